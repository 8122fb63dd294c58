package prefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	l, err := Open("")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if !strings.HasPrefix(l.Path(), home) {
		t.Fatalf("Path = %q, want it under HOME %q", l.Path(), home)
	}
	if _, ok := l.Get(KeyStorageType); ok {
		t.Fatalf("Get(%q) found a value in an empty cache", KeyStorageType)
	}
	if got := l.Int(KeyLaunchCount); got != 0 {
		t.Fatalf("Int(%q) = %d, want 0", KeyLaunchCount, got)
	}
}

func TestOpen_ReadsExistingFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "local.toml")
	content := `"root/storage_type" = "sqlite"
"root/launch_count" = 7
"settings/compactButtons" = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if got := l.String(KeyStorageType); got != "sqlite" {
		t.Fatalf("String(%q) = %q, want sqlite", KeyStorageType, got)
	}
	if got := l.Int(KeyLaunchCount); got != 7 {
		t.Fatalf("Int(%q) = %d, want 7", KeyLaunchCount, got)
	}
	if !l.Bool(KeyCompactButtons) {
		t.Fatalf("Bool(%q) = false, want true", KeyCompactButtons)
	}
}

func TestPut_PersistsAndCreatesDirs(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "subdir", "local.toml")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := l.Put(KeyLaunchCount, 3); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := l.Put(KeyStorageType, "local"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if got := reloaded.Int(KeyLaunchCount); got != 3 {
		t.Fatalf("Int(%q) = %d, want 3", KeyLaunchCount, got)
	}
	if got := reloaded.String(KeyStorageType); got != "local" {
		t.Fatalf("String(%q) = %q, want local", KeyStorageType, got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file should be renamed away, stat err = %v", err)
	}
}

func TestOpen_InvalidTOMLFallsBackToEmpty(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "local.toml")
	if err := os.WriteFile(path, []byte("not valid toml {{{\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, ok := l.Get(KeyStorageType); ok {
		t.Fatalf("Get(%q) found a value after a parse failure", KeyStorageType)
	}
}

func TestTypedAccessorsIgnoreWrongTypes(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "local.toml"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	_ = l.Put(KeyLaunchCount, "seven")
	if got := l.Int(KeyLaunchCount); got != 0 {
		t.Fatalf("Int on string value = %d, want 0", got)
	}
	if got := l.String(KeyAlwaysLocate); got != "" {
		t.Fatalf("String on missing key = %q, want empty", got)
	}
}
