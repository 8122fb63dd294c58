package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Storage.Get when a path has no value.
var ErrNotFound = errors.New("backend: path not found")

// Storage is the key-value contract every backend satisfies once opened.
// Paths are slash separated, e.g. "user/meta.json".
type Storage interface {
	// Get returns the raw value stored at path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Put stores value at path, replacing any previous value.
	Put(ctx context.Context, path string, value []byte) error

	// List returns the stored paths beginning with prefix in lexical order.
	// An empty prefix lists everything.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources held by the backend.
	Close() error
}

// Driver is a Storage that must be opened before use. Open performs any
// handshake the backend needs (creating files, checking credentials,
// reaching a bucket).
type Driver interface {
	Storage
	Kind() Kind
	Open(ctx context.Context) error
}

// GetJSON decodes the JSON document stored at path into dest.
func GetJSON(ctx context.Context, s Storage, path string, dest any) error {
	raw, err := s.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// PutJSON encodes value as JSON and stores it at path.
func PutJSON(ctx context.Context, s Storage, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return s.Put(ctx, path, raw)
}

// CleanPath normalises a storage path: no surrounding whitespace, no leading
// slash, no empty segments.
func CleanPath(path string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	parts := strings.Split(trimmed, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return "", fmt.Errorf("invalid path %q", path)
		}
	}
	return trimmed, nil
}

// CleanPrefix normalises a List prefix like CleanPath. An empty prefix stays
// empty and a trailing slash is kept.
func CleanPrefix(prefix string) (string, error) {
	trimmed := strings.TrimSpace(prefix)
	if strings.Trim(trimmed, "/") == "" {
		return "", nil
	}
	clean, err := CleanPath(trimmed)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(trimmed, "/") {
		clean += "/"
	}
	return clean, nil
}
