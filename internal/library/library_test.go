package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/campus-records/internal/storage/flatfile"
	"github.com/aanand-mishra/campus-records/internal/types"
)

func newTestStore(t *testing.T) (*Store, *flatfile.Storage) {
	t.Helper()
	dir := t.TempDir()
	st := flatfile.New(filepath.Join(dir, "books.txt"), filepath.Join(dir, "members.txt"), nil)
	return New(st, nil), st
}

func mustAddMember(t *testing.T, s *Store, name, email string) types.Member {
	t.Helper()
	m, err := s.AddMember(name, email)
	require.NoError(t, err)
	return m
}

func TestAddBookAssignsSequentialIDs(t *testing.T) {
	s, _ := newTestStore(t)

	b1 := s.AddBook("T", "A", "C")
	b2 := s.AddBook("T", "A", "C")

	assert.Equal(t, 101, b1.ID)
	assert.Equal(t, 102, b2.ID)
	assert.False(t, b1.Issued)
}

func TestAddMemberAssignsSequentialIDs(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Equal(t, 201, mustAddMember(t, s, "a", "a@b.co").ID)
	assert.Equal(t, 202, mustAddMember(t, s, "b", "b@b.co").ID)
}

func TestNextIDUsesMaxExisting(t *testing.T) {
	assert.Equal(t, 101, nextID(map[int]int{}, 100))
	assert.Equal(t, 151, nextID(map[int]int{150: 0, 120: 0}, 100))
	// A loaded id below the base still counts as the max.
	assert.Equal(t, 51, nextID(map[int]int{50: 0}, 100))
}

func TestAddMemberEmailValidation(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AddMember("x", "ab")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidEmail))
	assert.Empty(t, s.Members())

	m, err := s.AddMember("x", "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", m.Email)
}

func TestIssueBook(t *testing.T) {
	s, _ := newTestStore(t)
	b := s.AddBook("T", "A", "C")
	m := mustAddMember(t, s, "n", "n@x.io")

	require.NoError(t, s.IssueBook(m.ID, b.ID))

	gotBook, err := s.Book(b.ID)
	require.NoError(t, err)
	assert.True(t, gotBook.Issued)

	gotMember, err := s.Member(m.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{b.ID}, gotMember.IssuedBooks)
}

func TestIssueBookTwiceFails(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddBook("T", "A", "C")
	s.AddBook("T", "A", "C")
	m := mustAddMember(t, s, "n", "n@x.io")
	other := mustAddMember(t, s, "o", "o@x.io")

	require.NoError(t, s.IssueBook(m.ID, 101))

	for _, member := range []int{m.ID, other.ID} {
		err := s.IssueBook(member, 101)
		assert.True(t, errors.Is(err, ErrAlreadyIssued), "got %v", err)
	}

	b, _ := s.Book(101)
	assert.True(t, b.Issued)
	got, _ := s.Member(m.ID)
	assert.Equal(t, []int{101}, got.IssuedBooks)
	got, _ = s.Member(other.ID)
	assert.Empty(t, got.IssuedBooks)
}

func TestIssueBookUnknownIDs(t *testing.T) {
	s, _ := newTestStore(t)
	b := s.AddBook("T", "A", "C")
	m := mustAddMember(t, s, "n", "n@x.io")

	assert.True(t, errors.Is(s.IssueBook(999, b.ID), ErrMemberNotFound))
	assert.True(t, errors.Is(s.IssueBook(m.ID, 999), ErrBookNotFound))
	// Member is checked first.
	assert.True(t, errors.Is(s.IssueBook(999, 999), ErrMemberNotFound))

	got, _ := s.Book(b.ID)
	assert.False(t, got.Issued)
}

func TestReturnBook(t *testing.T) {
	s, _ := newTestStore(t)
	b := s.AddBook("T", "A", "C")
	m := mustAddMember(t, s, "n", "n@x.io")
	require.NoError(t, s.IssueBook(m.ID, b.ID))

	require.NoError(t, s.ReturnBook(m.ID, b.ID))

	gotBook, _ := s.Book(b.ID)
	assert.False(t, gotBook.Issued)
	gotMember, _ := s.Member(m.ID)
	assert.Empty(t, gotMember.IssuedBooks)

	// Can be issued again after return.
	require.NoError(t, s.IssueBook(m.ID, b.ID))
}

func TestReturnBookNotIssuedToMember(t *testing.T) {
	s, _ := newTestStore(t)
	b := s.AddBook("T", "A", "C")
	holder := mustAddMember(t, s, "h", "h@x.io")
	other := mustAddMember(t, s, "o", "o@x.io")
	require.NoError(t, s.IssueBook(holder.ID, b.ID))

	err := s.ReturnBook(other.ID, b.ID)
	assert.True(t, errors.Is(err, ErrNotIssuedToMember), "got %v", err)

	gotBook, _ := s.Book(b.ID)
	assert.True(t, gotBook.Issued, "issued flag unchanged")

	assert.True(t, errors.Is(s.ReturnBook(999, b.ID), ErrMemberNotFound))
	assert.True(t, errors.Is(s.ReturnBook(holder.ID, 999), ErrBookNotFound))
}

func TestReturnBookRemovesOneInstance(t *testing.T) {
	s, st := newTestStore(t)
	ctx := context.Background()

	// Duplicates can only arrive through a hand-edited file.
	require.NoError(t, st.SaveBooks(ctx, []types.Book{{ID: 101, Title: "T", Issued: true}}))
	require.NoError(t, st.SaveMembers(ctx, []types.Member{{ID: 201, Name: "n", Email: "n@x.io", IssuedBooks: []int{101, 102, 101}}}))
	require.NoError(t, s.Load(ctx))

	require.NoError(t, s.ReturnBook(201, 101))

	m, _ := s.Member(201)
	assert.Equal(t, []int{102, 101}, m.IssuedBooks)
}

func TestSearchBooks(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddBook("The Go Programming Language", "Donovan", "Programming")
	s.AddBook("Go in Action", "Kennedy", "Programming")
	s.AddBook("Dune", "Herbert", "SciFi")

	got, err := s.SearchBooks(FieldTitle, "GO")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{101, 102}, ids(got))

	got, err = s.SearchBooks(FieldAuthor, "herb")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{103}, ids(got))

	got, err = s.SearchBooks(FieldCategory, "programming")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{101, 102}, ids(got))

	got, err = s.SearchBooks(FieldTitle, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.SearchBooks(FieldTitle, "")
	require.NoError(t, err)
	assert.Len(t, got, 3, "empty query matches everything")

	_, err = s.SearchBooks(Field("isbn"), "x")
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestSortBooks(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddBook("banana", "z", "c")
	s.AddBook("Apple", "y", "b")
	s.AddBook("cherry", "x", "a")

	got, err := s.SortBooks(FieldTitle)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "banana", "cherry"}, titles(got))

	got, err = s.SortBooks(FieldAuthor)
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry", "Apple", "banana"}, titles(got))

	_, err = s.SortBooks(Field("year"))
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestSortBooksStable(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddBook("Same", "first", "x")
	s.AddBook("other", "second", "x")
	s.AddBook("SAME", "third", "x")
	s.AddBook("same", "fourth", "x")

	got, err := s.SortBooks(FieldTitle)
	require.NoError(t, err)

	var authors []string
	for _, b := range got {
		authors = append(authors, b.Author)
	}
	assert.Equal(t, []string{"second", "first", "third", "fourth"}, authors)
}

func TestParseField(t *testing.T) {
	f, err := ParseField(" Title ")
	require.NoError(t, err)
	assert.Equal(t, FieldTitle, f)

	_, err = ParseField("publisher")
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, st := newTestStore(t)
	ctx := context.Background()

	s.AddBook("Pipe|Title", "A|uthor", "Cat")
	s.AddBook("Plain", "B", "D")
	s.AddBook("Third", "C", "E")
	m1 := mustAddMember(t, s, "Asha|K", "asha@x.in")
	mustAddMember(t, s, "Ravi", "ravi@x.in")
	require.NoError(t, s.IssueBook(m1.ID, 101))
	require.NoError(t, s.IssueBook(m1.ID, 103))

	require.NoError(t, s.Save(ctx))

	fresh := New(st, nil)
	require.NoError(t, fresh.Load(ctx))

	assert.Equal(t, s.Books(), fresh.Books())
	assert.Equal(t, s.Members(), fresh.Members())

	// Ids keep counting from the loaded maximum.
	assert.Equal(t, 104, fresh.AddBook("x", "y", "z").ID)
}

func TestLoadMissingFilesGivesEmptyStore(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.Books())
	assert.Empty(t, s.Members())
	assert.Equal(t, 101, s.AddBook("a", "b", "c").ID)
}

type failingStorage struct {
	flatfile.Storage
	err error
}

func (f *failingStorage) SaveBooks(context.Context, []types.Book) error    { return f.err }
func (f *failingStorage) LoadBooks(context.Context) ([]types.Book, error) { return nil, f.err }

func TestSaveReportsErrorAndStillSavesMembers(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("disk full")
	st := &failingStorage{
		Storage: *flatfile.New(filepath.Join(dir, "b.txt"), filepath.Join(dir, "m.txt"), nil),
		err:     boom,
	}
	s := New(st, nil)
	mustAddMember(t, s, "n", "n@x.io")

	err := s.Save(context.Background())
	assert.True(t, errors.Is(err, boom))

	members, loadErr := st.LoadMembers(context.Background())
	require.NoError(t, loadErr)
	assert.Len(t, members, 1)
}

func TestLoadErrorLeavesStoreEmpty(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("unreadable")
	st := &failingStorage{
		Storage: *flatfile.New(filepath.Join(dir, "b.txt"), filepath.Join(dir, "m.txt"), nil),
		err:     boom,
	}
	s := New(st, nil)
	s.AddBook("a", "b", "c")

	err := s.Load(context.Background())
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, s.Books())
}

func TestLoadKeepsMembersWhenBooksUnreadable(t *testing.T) {
	dir := t.TempDir()
	membersPath := filepath.Join(dir, "m.txt")
	require.NoError(t, os.WriteFile(membersPath, []byte("201|Asha|asha@x.in|\n"), 0o644))

	boom := errors.New("token too long")
	st := &failingStorage{
		Storage: *flatfile.New(filepath.Join(dir, "b.txt"), membersPath, nil),
		err:     boom,
	}
	s := New(st, nil)

	err := s.Load(context.Background())
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, s.Books())
	require.Len(t, s.Members(), 1)
	assert.Equal(t, "Asha", s.Members()[0].Name)

	s.AddBook("a", "b", "c")
	_ = s.Save(context.Background())

	data, err := os.ReadFile(membersPath)
	require.NoError(t, err)
	assert.Equal(t, "201|Asha|asha@x.in|\n", string(data))
	assert.Equal(t, 202, mustAddMember(t, s, "Ravi", "ravi@x.in").ID)
}

func TestCopiesDoNotLeak(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddBook("T", "A", "C")
	m := mustAddMember(t, s, "n", "n@x.io")
	require.NoError(t, s.IssueBook(m.ID, 101))

	members := s.Members()
	members[0].IssuedBooks[0] = 999
	books := s.Books()
	books[0].Issued = false

	got, _ := s.Member(m.ID)
	assert.Equal(t, []int{101}, got.IssuedBooks)
	b, _ := s.Book(101)
	assert.True(t, b.Issued)
}

func ids(books []types.Book) []int {
	out := make([]int, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func titles(books []types.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}
