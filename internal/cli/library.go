package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/campus-records/internal/config"
	"github.com/aanand-mishra/campus-records/internal/library"
	"github.com/aanand-mishra/campus-records/internal/storage"
	"github.com/aanand-mishra/campus-records/internal/storage/flatfile"
	"github.com/aanand-mishra/campus-records/internal/storage/sqlite"
	"github.com/aanand-mishra/campus-records/internal/utils/response"
)

// NewLibraryCommand creates the library command.
func NewLibraryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "library",
		Short: "Manage library books and members",
		Long: `Manage library books and members.

The library is loaded at start and saved after every add, issue and return.
By default it lives in books.txt and members.txt in the working directory;
see --config for other locations or the SQLite backend.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibrary(cmd, opts)
		},
	}
}

func runLibrary(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	st, err := openStorage(opts.cfg, opts.log)
	if err != nil {
		return err
	}
	defer st.Close()

	store := library.New(st, opts.log)
	if err := store.Load(ctx); err != nil {
		// The library starts empty; the next save overwrites what could
		// not be read.
		response.Error(out, err)
	}

	menu := &LibraryMenu{
		Store:  store,
		Prompt: NewPrompter(cmd.InOrStdin(), out),
		Out:    out,
		Log:    opts.log,
	}
	return menu.Run(ctx)
}

// openStorage returns the backend selected by cfg.Storage.Backend.
func openStorage(cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := sqlite.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise storage: %w", err)
		}
		log.Info("storage initialised",
			slog.String("backend", cfg.Storage.Backend),
			slog.String("path", cfg.Storage.SQLitePath))
		return db, nil
	default:
		log.Info("storage initialised",
			slog.String("backend", config.BackendFile),
			slog.String("books", cfg.Storage.BooksFile),
			slog.String("members", cfg.Storage.MembersFile))
		return flatfile.New(cfg.Storage.BooksFile, cfg.Storage.MembersFile, log), nil
	}
}

// LibraryMenu is the interactive loop over a library.Store.
type LibraryMenu struct {
	Store  *library.Store
	Prompt *Prompter
	Out    io.Writer
	Log    *slog.Logger
}

// Run shows the menu until Exit is chosen or the input ends, then saves
// one last time.
func (m *LibraryMenu) Run(ctx context.Context) error {
	if m.Log == nil {
		m.Log = slog.Default()
	}

	err := m.loop(ctx)
	m.save(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(m.Out, "Exiting. Data saved.")
	return nil
}

func (m *LibraryMenu) loop(ctx context.Context) error {
	for {
		fmt.Fprintln(m.Out)
		fmt.Fprintln(m.Out, "--- City Library ---")
		fmt.Fprintln(m.Out, "1.Add Book 2.Add Member 3.Issue Book 4.Return Book 5.Search Books 6.Sort Books 7.Show All 8.Exit")

		choice, err := m.Prompt.ReadLine("Choice: ")
		if err != nil {
			return endOfInput(err)
		}

		switch choice {
		case "1":
			err = m.addBook()
			m.save(ctx)
		case "2":
			err = m.addMember()
			m.save(ctx)
		case "3":
			err = m.issueBook()
			m.save(ctx)
		case "4":
			err = m.returnBook()
			m.save(ctx)
		case "5":
			err = m.searchBooks()
		case "6":
			err = m.sortBooks()
		case "7":
			m.showAll()
		case "8":
			return nil
		default:
			fmt.Fprintln(m.Out, "Invalid choice.")
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// save reports a failed save and carries on; the store has already logged
// it.
func (m *LibraryMenu) save(ctx context.Context) {
	if err := m.Store.Save(ctx); err != nil {
		response.Error(m.Out, err)
	}
}

func (m *LibraryMenu) addBook() error {
	title, err := m.Prompt.ReadLine("Title: ")
	if err != nil {
		return err
	}
	author, err := m.Prompt.ReadLine("Author: ")
	if err != nil {
		return err
	}
	category, err := m.Prompt.ReadLine("Category: ")
	if err != nil {
		return err
	}

	b := m.Store.AddBook(title, author, category)
	m.Log.Info("book added", slog.Int("id", b.ID))
	response.OK(m.Out, "Book added with ID: %d", b.ID)
	return nil
}

func (m *LibraryMenu) addMember() error {
	name, err := m.Prompt.ReadLine("Name: ")
	if err != nil {
		return err
	}
	email, err := m.Prompt.ReadLine("Email: ")
	if err != nil {
		return err
	}

	mem, err := m.Store.AddMember(name, email)
	if err != nil {
		return printRecoverable(m.Out, err)
	}
	m.Log.Info("member added", slog.Int("id", mem.ID))
	response.OK(m.Out, "Member added with ID: %d", mem.ID)
	return nil
}

func (m *LibraryMenu) issueBook() error {
	memberID, bookID, err := m.readIDs()
	if err != nil {
		return printRecoverable(m.Out, err)
	}
	if err := m.Store.IssueBook(memberID, bookID); err != nil {
		return printRecoverable(m.Out, err)
	}
	m.Log.Info("book issued", slog.Int("book", bookID), slog.Int("member", memberID))
	response.OK(m.Out, "Book issued.")
	return nil
}

func (m *LibraryMenu) returnBook() error {
	memberID, bookID, err := m.readIDs()
	if err != nil {
		return printRecoverable(m.Out, err)
	}
	if err := m.Store.ReturnBook(memberID, bookID); err != nil {
		return printRecoverable(m.Out, err)
	}
	m.Log.Info("book returned", slog.Int("book", bookID), slog.Int("member", memberID))
	response.OK(m.Out, "Book returned.")
	return nil
}

// readIDs asks for a member, then a book. An unknown member is reported
// before the book id is asked for.
func (m *LibraryMenu) readIDs() (memberID, bookID int, err error) {
	memberID, err = m.Prompt.ReadInt("Member ID: ")
	if err != nil {
		return 0, 0, err
	}
	if _, err := m.Store.Member(memberID); err != nil {
		return 0, 0, err
	}
	bookID, err = m.Prompt.ReadInt("Book ID: ")
	if err != nil {
		return 0, 0, err
	}
	return memberID, bookID, nil
}

func (m *LibraryMenu) searchBooks() error {
	key, err := m.Prompt.ReadLine("Search by (title/author/category): ")
	if err != nil {
		return err
	}
	query, err := m.Prompt.ReadLine("Enter search text: ")
	if err != nil {
		return err
	}
	field, err := library.ParseField(key)
	if err != nil {
		return printRecoverable(m.Out, err)
	}

	books, err := m.Store.SearchBooks(field, query)
	if err != nil {
		return printRecoverable(m.Out, err)
	}
	response.Books(m.Out, books)
	return nil
}

var sortChoices = map[string]library.Field{
	"1": library.FieldTitle,
	"2": library.FieldAuthor,
	"3": library.FieldCategory,
}

func (m *LibraryMenu) sortBooks() error {
	fmt.Fprintln(m.Out, "Sort by: 1.Title 2.Author 3.Category")
	choice, err := m.Prompt.ReadLine("")
	if err != nil {
		return err
	}
	field, ok := sortChoices[choice]
	if !ok {
		fmt.Fprintln(m.Out, "Invalid.")
		return nil
	}

	books, err := m.Store.SortBooks(field)
	if err != nil {
		return printRecoverable(m.Out, err)
	}
	response.Books(m.Out, books)
	return nil
}

func (m *LibraryMenu) showAll() {
	fmt.Fprintln(m.Out)
	fmt.Fprintln(m.Out, "Books:")
	response.Books(m.Out, m.Store.Books())
	fmt.Fprintln(m.Out)
	fmt.Fprintln(m.Out, "Members:")
	response.Members(m.Out, m.Store.Members())
}
