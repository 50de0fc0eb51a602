// Package walker discovers candidate source files under a scan root,
// honoring configured exclusions and .gitignore files.
package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/reliclabs/relic/pkg/config"
	"github.com/reliclabs/relic/pkg/parser"
)

// Walker finds source files in a directory tree.
type Walker struct {
	config *config.Config

	matcher    gitignore.Matcher // configured exclude patterns
	gitMatcher gitignore.Matcher // repository .gitignore patterns
	gitPrefix  []string          // scan root relative to the git root
}

// New creates a file walker.
func New(cfg *config.Config) *Walker {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Walker{config: cfg}
}

// findGitRoot walks upward looking for a .git directory. Returns empty
// string outside a repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns builds a matcher for the configured exclude
// patterns and another for .gitignore files found from the git root
// down. Gitignore patterns are anchored at the git root, so when the
// scan root sits below it the matcher keeps its own path prefix.
func (w *Walker) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern

	for _, pattern := range w.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	for _, dir := range w.config.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(dir+"/", nil))
	}
	if len(patterns) > 0 {
		w.matcher = gitignore.NewMatcher(patterns)
	}

	if w.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			fs := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil && len(gitPatterns) > 0 {
				w.gitMatcher = gitignore.NewMatcher(gitPatterns)
				if rel, err := filepath.Rel(gitRoot, root); err == nil && rel != "." {
					w.gitPrefix = strings.Split(rel, string(filepath.Separator))
				}
			}
		}
	}
}

// isExcluded checks if a root-relative path matches any exclusion
// pattern. Gitignore patterns are matched against the path as seen from
// the git root.
func (w *Walker) isExcluded(relPath string, isDir bool) bool {
	parts := strings.Split(relPath, string(filepath.Separator))
	if w.matcher != nil && w.matcher.Match(parts, isDir) {
		return true
	}
	if w.gitMatcher != nil {
		gitParts := append(append([]string{}, w.gitPrefix...), parts...)
		if w.gitMatcher.Match(gitParts, isDir) {
			return true
		}
	}
	return false
}

// Walk scans root recursively and returns root-relative paths of files
// with a supported language, sorted for determinism. Symlinks that
// escape the root are skipped.
func (w *Walker) Walk(root string) ([]string, error) {
	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	w.loadExcludePatterns(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if relPath != "." && w.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.isExcluded(relPath, false) {
			return nil
		}
		if parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, relPath)
		}

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(files)
	return files, nil
}

// isWithinRoot checks path containment after symlink resolution.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// FilterBySize drops files exceeding maxSize bytes, returning the kept
// list and the dropped paths. maxSize 0 keeps everything.
func FilterBySize(root string, files []string, maxSize int64) ([]string, []string) {
	if maxSize <= 0 {
		return files, nil
	}

	kept := make([]string, 0, len(files))
	var dropped []string

	for _, f := range files {
		info, err := os.Stat(filepath.Join(root, f))
		if err != nil || info.Size() > maxSize {
			dropped = append(dropped, f)
			continue
		}
		kept = append(kept, f)
	}

	return kept, dropped
}
