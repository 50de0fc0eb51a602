package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemSource_RelativePath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFilesystem(dir)
	content, err := src.Read("a.go")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "package a" {
		t.Errorf("content = %q", content)
	}
}

func TestFilesystemSource_AbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.go")
	if err := os.WriteFile(path, []byte("package b"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFilesystem("/elsewhere")
	content, err := src.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "package b" {
		t.Errorf("content = %q", content)
	}
}

func TestFilesystemSource_MissingFile(t *testing.T) {
	src := NewFilesystem(t.TempDir())
	if _, err := src.Read("absent.go"); err == nil {
		t.Error("expected error for missing file")
	}
}
