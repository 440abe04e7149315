// Package flatfile provides a plain-text implementation of the
// storage.Storage interface.
//
// Two files hold the library, one record per '\n'-terminated line:
//
//	books.txt    <id>|<title>|<author>|<category>|<true|false>
//	members.txt  <id>|<name>|<email>|<comma separated book ids>
//
// Every save truncates and rewrites the whole file. Writes are not atomic:
// a crash mid-write can leave a truncated file behind.
package flatfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/aanand-mishra/campus-records/internal/storage"
	"github.com/aanand-mishra/campus-records/internal/types"
)

// Storage keeps books and members in two text files.
type Storage struct {
	BooksPath   string
	MembersPath string

	log *slog.Logger
}

// New returns a Storage for the given file paths. The files are not
// touched until the first load or save.
func New(booksPath, membersPath string, log *slog.Logger) *Storage {
	if log == nil {
		log = slog.Default()
	}
	return &Storage{BooksPath: booksPath, MembersPath: membersPath, log: log}
}

var _ storage.Storage = (*Storage)(nil)

// LoadBooks reads every well-formed line of the books file.
func (s *Storage) LoadBooks(ctx context.Context) ([]types.Book, error) {
	books := make([]types.Book, 0)
	err := s.readLines(ctx, s.BooksPath, func(line string) error {
		b, err := DecodeBook(line)
		if err != nil {
			return err
		}
		books = append(books, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LoadBooks: %w", err)
	}
	return books, nil
}

// LoadMembers reads every well-formed line of the members file.
func (s *Storage) LoadMembers(ctx context.Context) ([]types.Member, error) {
	members := make([]types.Member, 0)
	err := s.readLines(ctx, s.MembersPath, func(line string) error {
		m, err := DecodeMember(line)
		if err != nil {
			return err
		}
		members = append(members, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LoadMembers: %w", err)
	}
	return members, nil
}

// SaveBooks overwrites the books file.
func (s *Storage) SaveBooks(ctx context.Context, books []types.Book) error {
	lines := make([]string, len(books))
	for i, b := range books {
		lines[i] = EncodeBook(b)
	}
	if err := writeLines(ctx, s.BooksPath, lines); err != nil {
		return fmt.Errorf("SaveBooks: %w", err)
	}
	return nil
}

// SaveMembers overwrites the members file.
func (s *Storage) SaveMembers(ctx context.Context, members []types.Member) error {
	lines := make([]string, len(members))
	for i, m := range members {
		lines[i] = EncodeMember(m)
	}
	if err := writeLines(ctx, s.MembersPath, lines); err != nil {
		return fmt.Errorf("SaveMembers: %w", err)
	}
	return nil
}

// Close is a no-op; files are opened per call.
func (s *Storage) Close() error { return nil }

// readLines calls fn for every line of path, however long. A missing file
// counts as empty. Lines fn rejects with ErrMalformedRecord are skipped.
func (s *Storage) readLines(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", storage.ErrFileAccess, path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, readErr := r.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("%w: read %s: %v", storage.ErrFileAccess, path, readErr)
		}
		if line == "" && readErr != nil {
			return nil
		}
		lineNo++

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		err := fn(line)
		if errors.Is(err, ErrMalformedRecord) {
			s.log.Debug("skipping malformed record",
				slog.String("path", path),
				slog.Int("line", lineNo),
				slog.String("error", err.Error()))
		} else if err != nil {
			return err
		}

		if readErr != nil {
			return nil
		}
	}
}

func writeLines(ctx context.Context, path string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// os.Create truncates: the previous content is gone from here on.
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", storage.ErrFileAccess, path, err)
	}

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("%w: write %s: %v", storage.ErrFileAccess, path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: flush %s: %v", storage.ErrFileAccess, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", storage.ErrFileAccess, path, err)
	}
	return nil
}
