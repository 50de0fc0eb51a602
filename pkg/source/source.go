// Package source abstracts file content access so analyzers and
// reporting collaborators never read the filesystem directly.
package source

import (
	"os"
	"path/filepath"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem, resolving
// relative paths against a root directory.
type FilesystemSource struct {
	root string
}

// NewFilesystem creates a source rooted at dir. An empty dir reads
// paths as given.
func NewFilesystem(dir string) *FilesystemSource {
	return &FilesystemSource{root: dir}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	if f.root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.root, path)
	}
	return os.ReadFile(path)
}
