// Package testutil provides sandboxed file helpers and catalog fixtures
// shared by the libris tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestEnv is a temporary directory that refuses paths escaping it.
// It is removed when the test completes.
type TestEnv struct {
	t       *testing.T
	rootDir string
}

// NewTestEnv creates a sandbox rooted in t.TempDir().
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{
		t:       t,
		rootDir: t.TempDir(),
	}
}

// RootDir returns the sandbox root
func (e *TestEnv) RootDir() string {
	return e.rootDir
}

// Path joins elem under the sandbox root and fails the test if the
// result escapes it.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	p := filepath.Clean(filepath.Join(e.rootDir, filepath.Join(elem...)))
	root := filepath.Clean(e.rootDir)
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		e.t.Fatalf("path %q escapes test sandbox %q", p, e.rootDir)
	}
	return p
}

// WriteFile writes content under the sandbox, creating parent directories.
func (e *TestEnv) WriteFile(path string, content []byte) {
	e.t.Helper()

	abs := e.Path(path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		e.t.Fatalf("failed to create directory for %q: %v", abs, err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		e.t.Fatalf("failed to write file %q: %v", abs, err)
	}
}

// WriteFileString is WriteFile for strings
func (e *TestEnv) WriteFileString(path, content string) {
	e.t.Helper()
	e.WriteFile(path, []byte(content))
}

// ReadFile reads a file from the sandbox
func (e *TestEnv) ReadFile(path string) []byte {
	e.t.Helper()

	abs := e.Path(path)
	content, err := os.ReadFile(abs)
	if err != nil {
		e.t.Fatalf("failed to read file %q: %v", abs, err)
	}
	return content
}

// ReadFileString is ReadFile for strings
func (e *TestEnv) ReadFileString(path string) string {
	e.t.Helper()
	return string(e.ReadFile(path))
}

// MkdirAll creates a directory tree under the sandbox
func (e *TestEnv) MkdirAll(path string) {
	e.t.Helper()

	abs := e.Path(path)
	if err := os.MkdirAll(abs, 0o755); err != nil {
		e.t.Fatalf("failed to create directory %q: %v", abs, err)
	}
}

// FileExists reports whether path exists under the sandbox
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()
	_, err := os.Stat(e.Path(path))
	return err == nil
}

// RequireFileExists fails the test unless path exists
func (e *TestEnv) RequireFileExists(path string) {
	e.t.Helper()
	if !e.FileExists(path) {
		e.t.Fatalf("expected file %q to exist", e.Path(path))
	}
}

// RequireFileNotExists fails the test if path exists
func (e *TestEnv) RequireFileNotExists(path string) {
	e.t.Helper()
	if e.FileExists(path) {
		e.t.Fatalf("expected file %q to not exist", e.Path(path))
	}
}

// ListFiles returns the entry names of a sandbox directory
func (e *TestEnv) ListFiles(path string) []string {
	e.t.Helper()

	abs := e.Path(path)
	entries, err := os.ReadDir(abs)
	if err != nil {
		e.t.Fatalf("failed to read directory %q: %v", abs, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	return files
}

// AssertFileContains reports an error if the file lacks expected
func (e *TestEnv) AssertFileContains(path, expected string) {
	e.t.Helper()
	if content := e.ReadFileString(path); !strings.Contains(content, expected) {
		e.t.Errorf("file %q does not contain expected string %q", path, expected)
	}
}

// LegacyBook is one entry of the bare-array books.json written by older
// versions of the library.
type LegacyBook struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	ISBN   string   `json:"isbn"`
	Tags   []string `json:"tags"`
}

// WriteLegacyCatalog writes books as a bare JSON array and returns its path.
func (e *TestEnv) WriteLegacyCatalog(path string, books ...LegacyBook) string {
	e.t.Helper()

	if books == nil {
		books = []LegacyBook{}
	}
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		e.t.Fatalf("failed to encode legacy catalog: %v", err)
	}
	e.WriteFile(path, data)
	return e.Path(path)
}

// SampleLegacyBooks returns a small catalog in the legacy format.
func SampleLegacyBooks() []LegacyBook {
	return []LegacyBook{
		{Title: "The Selfish Gene", Author: "Richard Dawkins", ISBN: "978-0-241-95270-2", Tags: []string{"Evolution", "biology"}},
		{Title: "Sapiens", Author: "Yuval Noah Harari", ISBN: "9780143127550", Tags: []string{"history", "biology"}},
		{Title: "Dune", Author: "Frank Herbert", ISBN: "0-441-17271-7", Tags: []string{"scifi", "classic"}},
	}
}
