// Package storage defines the Storage interface, the contract that any
// library persistence backend must satisfy.
//
// The library store never talks to files or databases directly. It hands
// a full snapshot of its books and members to a Storage on every save and
// asks for one back at startup. Two backends exist:
//
//   - flatfile: books.txt / members.txt, one delimited record per line
//   - sqlite:   the same snapshot kept in two tables
//
// Switching backends is a config change; the store does not notice.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/campus-records/internal/types"
)

// ErrFileAccess wraps any failure to open, read, or write the backing
// files or database.
var ErrFileAccess = errors.New("file access error")

// Storage is the persistence contract for the library.
//
// Save* replaces everything previously stored for that collection. Load*
// returns an empty slice (not an error) when nothing has been saved yet.
type Storage interface {
	LoadBooks(ctx context.Context) ([]types.Book, error)
	LoadMembers(ctx context.Context) ([]types.Member, error)

	SaveBooks(ctx context.Context, books []types.Book) error
	SaveMembers(ctx context.Context, members []types.Member) error

	Close() error
}
