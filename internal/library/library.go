// Package library owns the books and members of the library and is the
// only place allowed to change them.
//
// A book's Issued flag and the holding member's IssuedBooks list must
// always agree. Store keeps both mappings private and hands out copies, so
// every change goes through an operation that updates both sides together.
//
// A Store is not safe for concurrent use.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/aanand-mishra/campus-records/internal/storage"
	"github.com/aanand-mishra/campus-records/internal/types"
	"github.com/aanand-mishra/campus-records/internal/utils/response"
)

// Sentinel errors returned by Store operations.
var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrMemberNotFound    = errors.New("member not found")
	ErrBookNotFound      = errors.New("book not found")
	ErrAlreadyIssued     = errors.New("book already issued")
	ErrNotIssuedToMember = errors.New("book not issued to member")
	ErrUnknownField      = errors.New("unknown field")
)

// Ids start one above these bases.
const (
	bookIDBase   = 100
	memberIDBase = 200
)

// Field names a text field of a book for search and sort.
type Field string

const (
	FieldTitle    Field = "title"
	FieldAuthor   Field = "author"
	FieldCategory Field = "category"
)

// ParseField accepts "title", "author" or "category" in any case.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldTitle, FieldAuthor, FieldCategory:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (want title, author or category)", ErrUnknownField, s)
}

func (f Field) of(b *types.Book) string {
	switch f {
	case FieldAuthor:
		return b.Author
	case FieldCategory:
		return b.Category
	default:
		return b.Title
	}
}

// Store holds the library in memory and persists it through a
// storage.Storage.
type Store struct {
	books   map[int]*types.Book
	members map[int]*types.Member

	storage storage.Storage
	log     *slog.Logger
	fold    cases.Caser
}

// New returns an empty Store. Call Load to read saved records.
func New(st storage.Storage, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		books:   make(map[int]*types.Book),
		members: make(map[int]*types.Member),
		storage: st,
		log:     log,
		fold:    cases.Fold(),
	}
}

// AddBook stores a new, not issued book under the next free id.
func (s *Store) AddBook(title, author, category string) types.Book {
	b := &types.Book{
		ID:       nextID(s.books, bookIDBase),
		Title:    title,
		Author:   author,
		Category: category,
	}
	s.books[b.ID] = b

	s.log.Debug("book added", slog.Int("id", b.ID))
	return *b
}

// AddMember stores a new member under the next free id. The email must
// pass types.ValidEmail.
func (s *Store) AddMember(name, email string) (types.Member, error) {
	m := &types.Member{Name: name, Email: email}

	if err := types.Validate(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return types.Member{}, fmt.Errorf("%w: %s", ErrInvalidEmail, response.ValidationError(verrs))
		}
		return types.Member{}, fmt.Errorf("AddMember: validate: %w", err)
	}

	m.ID = nextID(s.members, memberIDBase)
	s.members[m.ID] = m

	s.log.Debug("member added", slog.Int("id", m.ID))
	return m.Clone(), nil
}

// IssueBook lends bookID to memberID. On any error nothing changes.
func (s *Store) IssueBook(memberID, bookID int) error {
	m, ok := s.members[memberID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrMemberNotFound, memberID)
	}
	b, ok := s.books[bookID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrBookNotFound, bookID)
	}
	if b.Issued {
		return fmt.Errorf("%w: id %d", ErrAlreadyIssued, bookID)
	}

	b.Issued = true
	m.IssuedBooks = append(m.IssuedBooks, bookID)

	s.log.Debug("book issued", slog.Int("book", bookID), slog.Int("member", memberID))
	return nil
}

// ReturnBook takes bookID back from memberID. Exactly one occurrence of
// bookID is removed from the member's list. On any error nothing changes.
func (s *Store) ReturnBook(memberID, bookID int) error {
	m, ok := s.members[memberID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrMemberNotFound, memberID)
	}
	b, ok := s.books[bookID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrBookNotFound, bookID)
	}

	i := slices.Index(m.IssuedBooks, bookID)
	if i < 0 {
		return fmt.Errorf("%w: book %d, member %d", ErrNotIssuedToMember, bookID, memberID)
	}

	m.IssuedBooks = slices.Delete(m.IssuedBooks, i, i+1)
	b.Issued = false

	s.log.Debug("book returned", slog.Int("book", bookID), slog.Int("member", memberID))
	return nil
}

// SearchBooks returns the books whose field contains query, ignoring case.
// The order of the result is unspecified.
func (s *Store) SearchBooks(field Field, query string) ([]types.Book, error) {
	field, err := ParseField(string(field))
	if err != nil {
		return nil, err
	}

	q := s.fold.String(query)
	var found []types.Book
	for _, b := range s.books {
		if strings.Contains(s.fold.String(field.of(b)), q) {
			found = append(found, *b)
		}
	}
	return found, nil
}

// SortBooks returns every book ordered by field, ignoring case. Books that
// compare equal keep ascending id order.
func (s *Store) SortBooks(field Field) ([]types.Book, error) {
	field, err := ParseField(string(field))
	if err != nil {
		return nil, err
	}

	type keyed struct {
		key  string
		book types.Book
	}
	list := make([]keyed, 0, len(s.books))
	for _, b := range s.Books() {
		list = append(list, keyed{key: s.fold.String(field.of(&b)), book: b})
	}

	slices.SortStableFunc(list, func(a, b keyed) int {
		return strings.Compare(a.key, b.key)
	})

	out := make([]types.Book, len(list))
	for i, k := range list {
		out[i] = k.book
	}
	return out, nil
}

// Book returns a copy of the book with the given id.
func (s *Store) Book(id int) (types.Book, error) {
	b, ok := s.books[id]
	if !ok {
		return types.Book{}, fmt.Errorf("%w: id %d", ErrBookNotFound, id)
	}
	return *b, nil
}

// Member returns a copy of the member with the given id.
func (s *Store) Member(id int) (types.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return types.Member{}, fmt.Errorf("%w: id %d", ErrMemberNotFound, id)
	}
	return m.Clone(), nil
}

// Books returns copies of every book ordered by id.
func (s *Store) Books() []types.Book {
	out := make([]types.Book, 0, len(s.books))
	for _, id := range sortedKeys(s.books) {
		out = append(out, *s.books[id])
	}
	return out
}

// Members returns copies of every member ordered by id.
func (s *Store) Members() []types.Member {
	out := make([]types.Member, 0, len(s.members))
	for _, id := range sortedKeys(s.members) {
		out = append(out, s.members[id].Clone())
	}
	return out
}

// Load replaces the in-memory library with what the storage holds. Books
// and members are loaded independently: a collection that cannot be read
// is left empty, the other one is kept, and the failures are returned
// joined for reporting.
func (s *Store) Load(ctx context.Context) error {
	s.books = make(map[int]*types.Book)
	s.members = make(map[int]*types.Member)

	var errs []error

	books, err := s.storage.LoadBooks(ctx)
	if err != nil {
		s.log.Error("failed to load books", slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("Load books: %w", err))
	} else {
		for i := range books {
			b := books[i]
			s.books[b.ID] = &b
		}
	}

	members, err := s.storage.LoadMembers(ctx)
	if err != nil {
		s.log.Error("failed to load members", slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("Load members: %w", err))
	} else {
		for i := range members {
			m := members[i]
			s.members[m.ID] = &m
		}
	}

	s.log.Info("library loaded",
		slog.Int("books", len(s.books)),
		slog.Int("members", len(s.members)))
	return errors.Join(errs...)
}

// Save writes every book and member. Both collections are attempted even
// if the first fails.
func (s *Store) Save(ctx context.Context) error {
	var errs []error

	if err := s.storage.SaveBooks(ctx, s.Books()); err != nil {
		s.log.Error("failed to save books", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := s.storage.SaveMembers(ctx, s.Members()); err != nil {
		s.log.Error("failed to save members", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// nextID is one more than the largest key, or base+1 if m is empty. Ids
// are not reserved: editing the files by hand can make them collide.
func nextID[V any](m map[int]V, base int) int {
	if len(m) == 0 {
		return base + 1
	}
	return slices.Max(sortedKeys(m)) + 1
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for id := range m {
		keys = append(keys, id)
	}
	slices.Sort(keys)
	return keys
}
