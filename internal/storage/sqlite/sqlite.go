// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// It keeps exactly the same snapshot the flat files do: every save wipes
// a table and inserts the current records. Issued book ids are stored in
// the same comma separated form as members.txt, so a database and a pair
// of text files can be converted into each other without loss.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aanand-mishra/campus-records/internal/config"
	"github.com/aanand-mishra/campus-records/internal/storage"
	"github.com/aanand-mishra/campus-records/internal/storage/flatfile"
	"github.com/aanand-mishra/campus-records/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the database implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at cfg.Storage.SQLitePath and creates the
// books and members tables if they do not already exist.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent, so it runs on every
	// startup.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS books (
			id       INTEGER PRIMARY KEY,
			title    TEXT    NOT NULL,
			author   TEXT    NOT NULL,
			category TEXT    NOT NULL,
			issued   INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS members (
			id           INTEGER PRIMARY KEY,
			name         TEXT NOT NULL,
			email        TEXT NOT NULL,
			issued_books TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// LoadBooks returns every book row.
func (s *SQLite) LoadBooks(ctx context.Context) ([]types.Book, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, title, author, category, issued FROM books ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("LoadBooks: query: %w: %v", storage.ErrFileAccess, err)
	}
	defer rows.Close()

	books := make([]types.Book, 0)
	for rows.Next() {
		var b types.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.Issued); err != nil {
			return nil, fmt.Errorf("LoadBooks: scan row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadBooks: rows iteration: %w", err)
	}

	return books, nil
}

// LoadMembers returns every member row. Rows whose issued_books column does
// not parse are skipped, as malformed lines are in the flat files.
func (s *SQLite) LoadMembers(ctx context.Context) ([]types.Member, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, name, email, issued_books FROM members ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("LoadMembers: query: %w: %v", storage.ErrFileAccess, err)
	}
	defer rows.Close()

	members := make([]types.Member, 0)
	for rows.Next() {
		var (
			m   types.Member
			ids string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &ids); err != nil {
			return nil, fmt.Errorf("LoadMembers: scan row: %w", err)
		}
		m.IssuedBooks, err = flatfile.SplitIDs(ids)
		if err != nil {
			continue
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadMembers: rows iteration: %w", err)
	}

	return members, nil
}

// SaveBooks replaces the books table with the given records.
func (s *SQLite) SaveBooks(ctx context.Context, books []types.Book) error {
	return s.replace(ctx, "books",
		"INSERT INTO books (id, title, author, category, issued) VALUES (?, ?, ?, ?, ?)",
		len(books), func(stmt *sql.Stmt, i int) error {
			b := books[i]
			_, err := stmt.ExecContext(ctx, b.ID, b.Title, b.Author, b.Category, b.Issued)
			return err
		})
}

// SaveMembers replaces the members table with the given records.
func (s *SQLite) SaveMembers(ctx context.Context, members []types.Member) error {
	return s.replace(ctx, "members",
		"INSERT INTO members (id, name, email, issued_books) VALUES (?, ?, ?, ?)",
		len(members), func(stmt *sql.Stmt, i int) error {
			m := members[i]
			_, err := stmt.ExecContext(ctx, m.ID, m.Name, m.Email, flatfile.JoinIDs(m.IssuedBooks))
			return err
		})
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// replace deletes every row of table and inserts n new ones through insert,
// all inside a single transaction.
func (s *SQLite) replace(ctx context.Context, table, insert string, n int, exec func(*sql.Stmt, int) error) error {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace %s: begin: %w: %v", table, storage.ErrFileAccess, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("replace %s: delete: %w: %v", table, storage.ErrFileAccess, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("replace %s: prepare: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("replace %s: exec: %w: %v", table, storage.ErrFileAccess, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace %s: commit: %w: %v", table, storage.ErrFileAccess, err)
	}
	return nil
}
