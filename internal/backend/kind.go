package backend

import "strings"

// Kind identifies one backend of the closed set. The zero Kind means no
// backend has been selected and is distinct from every member of the set.
type Kind struct {
	name string
}

var (
	// Local stores data in an embedded badger database on disk.
	Local = Kind{name: "local"}
	// S3 stores data as objects in an S3-compatible bucket.
	S3 = Kind{name: "s3"}
	// SQLite stores data in a single SQLite file.
	SQLite = Kind{name: "sqlite"}
)

// Default is used whenever a requested kind is not recognised.
var Default = Local

var kinds = []Kind{Local, S3, SQLite}

// Kinds returns every member of the closed set in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind resolves a persisted or user-supplied name.
func ParseKind(name string) (Kind, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for _, k := range kinds {
		if k.name == trimmed {
			return k, true
		}
	}
	return Kind{}, false
}

// String returns the persisted name, or "" for the zero Kind.
func (k Kind) String() string {
	return k.name
}

// IsZero reports whether no backend is selected.
func (k Kind) IsZero() bool {
	return k.name == ""
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to
// the zero Kind.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, _ := ParseKind(string(text))
	*k = parsed
	return nil
}

// Cases is implemented by anything that must handle every backend kind.
// Adding a kind adds a method here, which breaks every implementation at
// compile time until it is handled.
type Cases[T any] interface {
	Local() T
	S3() T
	SQLite() T
}

// Dispatch calls the method of c matching k. It reports false for the zero
// Kind.
func Dispatch[T any](k Kind, c Cases[T]) (T, bool) {
	switch k {
	case Local:
		return c.Local(), true
	case S3:
		return c.S3(), true
	case SQLite:
		return c.SQLite(), true
	}
	var zero T
	return zero, false
}
