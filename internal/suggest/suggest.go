// Package suggest defines the downstream advice surface: collaborators
// that turn a finished scan report into human guidance. Suggesters run
// strictly after a scan and can never influence it.
package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reliclabs/relic/pkg/models"
	"github.com/reliclabs/relic/pkg/source"
)

// SnippetReader hands suggesters the source lines behind a finding
// without exposing the filesystem.
type SnippetReader interface {
	// Snippet returns the lines [startLine, endLine] of a scanned file,
	// 1-based and inclusive.
	Snippet(file string, startLine, endLine uint32) ([]string, error)
}

// Suggester consumes a read-only report and produces advice strings.
type Suggester interface {
	Suggest(report *models.ScanReport, snippets SnippetReader) []string
}

// Reader adapts a ContentSource into a SnippetReader.
type Reader struct {
	src source.ContentSource
}

// NewReader creates a snippet reader over a content source.
func NewReader(src source.ContentSource) *Reader {
	return &Reader{src: src}
}

// Snippet implements SnippetReader.
func (r *Reader) Snippet(file string, startLine, endLine uint32) ([]string, error) {
	content, err := r.src.Read(file)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	if startLine < 1 || int(startLine) > len(lines) || endLine < startLine {
		return nil, fmt.Errorf("invalid range %d-%d for %s", startLine, endLine, file)
	}
	if int(endLine) > len(lines) {
		endLine = uint32(len(lines))
	}
	return lines[startLine-1 : endLine], nil
}

// Hotspots is the built-in suggester: it ranks the files with the most
// findings and proposes where refactoring pays off first.
type Hotspots struct {
	Limit int
}

// Suggest implements Suggester.
func (h *Hotspots) Suggest(report *models.ScanReport, _ SnippetReader) []string {
	limit := h.Limit
	if limit <= 0 {
		limit = 5
	}

	counts := make(map[string]int)
	severe := make(map[string]int)
	for _, s := range report.Smells {
		counts[s.File]++
		if s.Severity == models.SeveritySevere {
			severe[s.File]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	files := make([]string, 0, len(counts))
	for f := range counts {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		if counts[files[i]] != counts[files[j]] {
			return counts[files[i]] > counts[files[j]]
		}
		return files[i] < files[j]
	})
	if len(files) > limit {
		files = files[:limit]
	}

	var advice []string
	for _, f := range files {
		msg := fmt.Sprintf("%s: %d findings", f, counts[f])
		if n := severe[f]; n > 0 {
			msg += fmt.Sprintf(" (%d severe)", n)
		}
		advice = append(advice, msg)
	}
	return advice
}
