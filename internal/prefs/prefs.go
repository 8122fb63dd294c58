// Package prefs is the synchronous local cache for small per-device values
// such as the launch count and the selected backend.
// Values are stored in <data_dir>/local.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Keys used by tally.
const (
	KeyStorageType    = "root/storage_type"
	KeyLaunchCount    = "root/launch_count"
	KeyAlwaysLocate   = "root/always_locate"
	KeyTheme          = "root/theme"
	KeyUITheme        = "ui/theme"
	KeyCompactButtons = "settings/compactButtons"
)

const defaultLocalPath = "~/.local/share/tally/local.toml"

// DefaultPath returns the default cache file path.
func DefaultPath() string {
	return defaultLocalPath
}

// Local is a key/value cache persisted as a flat TOML table. Every Put
// rewrites the file before returning.
type Local struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// Open reads the cache at path, falling back to an empty cache when the file
// is missing or unreadable.
func Open(path string) (*Local, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	l := &Local{path: resolved, values: make(map[string]any)}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return l, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return l, nil // Graceful degradation
	}

	values := make(map[string]any)
	if err := toml.Unmarshal(bytes, &values); err != nil {
		return l, nil // Graceful degradation
	}
	l.values = values
	return l, nil
}

// Path returns the resolved file path.
func (l *Local) Path() string {
	return l.path
}

// Get returns the raw value stored under key.
func (l *Local) Get(key string) (any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.values[key]
	return v, ok
}

// String returns the value under key as a string, or "".
func (l *Local) String(key string) string {
	v, _ := l.Get(key)
	s, _ := v.(string)
	return s
}

// Int returns the value under key as an int, or 0.
func (l *Local) Int(key string) int {
	v, _ := l.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// Bool returns the value under key as a bool, or false.
func (l *Local) Bool(key string) bool {
	v, _ := l.Get(key)
	b, _ := v.(bool)
	return b
}

// Put stores value under key and writes the file. The in-memory value is
// updated even when writing fails.
func (l *Local) Put(key string, value any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch n := value.(type) {
	case int:
		value = int64(n)
	case int32:
		value = int64(n)
	}
	l.values[key] = value
	return l.saveLocked()
}

func (l *Local) saveLocked() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(l.values)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultLocalPath)
	}
	return ExpandPath(path)
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
