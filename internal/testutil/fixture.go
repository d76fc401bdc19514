// Package testutil holds helpers shared by package tests for locating
// fixtures and scenarios under the repository testdata directory.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// RepoRoot returns the module root directory, located relative to this
// source file so tests work from any package directory.
func RepoRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("testutil: cannot locate source file")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

// FixturePath returns the path of a file under testdata/fixtures.
func FixturePath(t testing.TB, name string) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), "testdata", "fixtures", name)
}

// Fixture reads a file under testdata/fixtures.
func Fixture(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(FixturePath(t, name))
	if err != nil {
		t.Fatalf("testutil: read fixture %s: %v", name, err)
	}
	return data
}

// ScenarioDir returns the testdata/scenarios directory.
func ScenarioDir(t testing.TB) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), "testdata", "scenarios")
}
