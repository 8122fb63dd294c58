package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/five82/tally/internal/backend"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "tally.db")
	store := New(path)
	if err := store.Open(context.Background()); err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetOverwrite(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "user/meta.json", []byte(`{"lock":false}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "user/meta.json", []byte(`{"lock":true}`)); err != nil {
		t.Fatalf("put overwrite: %v", err)
	}
	got, err := store.Get(ctx, "user/meta.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"lock":true}` {
		t.Fatalf("get = %s, want overwritten value", got)
	}
}

func TestGetMissing(t *testing.T) {
	store := newSQLiteStore(t)
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("get missing err = %v, want ErrNotFound", err)
	}
}

func TestListPrefix(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	for _, p := range []string{"books/2024-01", "books/2023-12", "bookshelf", "trackers.json"} {
		if err := store.Put(ctx, p, []byte("x")); err != nil {
			t.Fatalf("put %s: %v", p, err)
		}
	}

	paths, err := store.List(ctx, "books/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 2 || paths[0] != "books/2023-12" || paths[1] != "books/2024-01" {
		t.Fatalf("list = %v, want two sorted books", paths)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("list all length: got %d", len(all))
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if err := New("").Open(context.Background()); err == nil {
		t.Fatalf("open with empty path should fail")
	}
}

func TestPathsAreNormalised(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "/books/2024-01/", []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Get(ctx, "books/2024-01"); err != nil {
		t.Fatalf("get cleaned path: %v", err)
	}
	if _, err := store.Get(ctx, ""); err == nil {
		t.Fatalf("get of an empty path should fail")
	}
}
