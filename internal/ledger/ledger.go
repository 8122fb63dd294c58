// Package ledger finds the month of the user's first logged entry.
//
// Entries are stored one document per month under "books/YYYY-MM". The first
// date is the first day of the earliest month that has a document.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/five82/tally/internal/backend"
)

// Prefix is the storage prefix of monthly books.
const Prefix = "books/"

const monthLayout = "2006-01"

// Book remembers the first date found by LoadFirstDate.
type Book struct {
	mu    sync.RWMutex
	first time.Time
	found bool
}

// New returns a book with no first date.
func New() *Book {
	return &Book{}
}

// LoadFirstDate scans the monthly books in storage. Paths that do not parse
// as a month are ignored. With no books FirstDate keeps reporting false.
func (b *Book) LoadFirstDate(ctx context.Context, storage backend.Storage) error {
	paths, err := storage.List(ctx, Prefix)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	var first time.Time
	found := false
	for _, p := range paths {
		name := strings.TrimPrefix(p, Prefix)
		name = strings.TrimSuffix(name, ".json")
		month, err := time.Parse(monthLayout, name)
		if err != nil {
			continue
		}
		if !found || month.Before(first) {
			first = month
			found = true
		}
	}

	b.mu.Lock()
	b.first = first
	b.found = found
	b.mu.Unlock()
	return nil
}

// FirstDate returns the first day of the earliest book.
func (b *Book) FirstDate() (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.first, b.found
}
