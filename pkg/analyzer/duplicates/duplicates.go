// Package duplicates detects structurally identical code fragments via
// normalized token fingerprints. Identifiers are canonicalized per
// fragment and literals collapsed, so renamed copies still collide.
package duplicates

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/reliclabs/relic/pkg/models"
	"github.com/reliclabs/relic/pkg/parser"
)

// Detector finds duplicate groups across parsed files. Safe for
// concurrent use; detection holds no mutable state between calls.
type Detector struct {
	minLines int
}

// Option is a functional option for configuring Detector.
type Option func(*Detector)

// WithMinLines sets the minimum structural line count for a fragment to
// participate in detection.
func WithMinLines(n int) Option {
	return func(d *Detector) {
		d.minLines = n
	}
}

// DefaultMinLines is the fragment-size floor when none is configured.
const DefaultMinLines = 5

// New creates a duplicate detector.
func New(opts ...Option) *Detector {
	d := &Detector{minLines: DefaultMinLines}
	for _, opt := range opts {
		opt(d)
	}
	if d.minLines < 2 {
		d.minLines = DefaultMinLines
	}
	return d
}

// fragment is one candidate region: a function body reduced to its
// canonical token sequence.
type fragment struct {
	file      string
	startLine uint32
	endLine   uint32
	lines     int // structural (non-blank, non-comment) lines
	key       uint64
	canonical string
}

// Detect extracts function fragments from every file and groups the
// ones sharing a canonical token sequence. Groups always contain at
// least two occurrences and come back in deterministic order.
func (d *Detector) Detect(files []*parser.File) []models.DuplicateGroup {
	byKey := make(map[uint64][]fragment)

	for _, f := range files {
		for _, frag := range d.extractFragments(f) {
			byKey[frag.key] = append(byKey[frag.key], frag)
		}
	}

	var groups []models.DuplicateGroup
	for _, frags := range byKey {
		if len(frags) < 2 {
			continue
		}

		frags = mergeOverlapping(frags)
		if len(frags) < 2 {
			continue
		}

		sort.Slice(frags, func(i, j int) bool {
			if frags[i].file != frags[j].file {
				return frags[i].file < frags[j].file
			}
			return frags[i].startLine < frags[j].startLine
		})

		group := models.DuplicateGroup{
			Fingerprint: fingerprint(frags[0].canonical),
			Lines:       maxStructuralLines(frags),
		}
		for _, frag := range frags {
			group.Occurrences = append(group.Occurrences, models.DuplicateOccurrence{
				File:      frag.file,
				StartLine: frag.startLine,
				EndLine:   frag.endLine,
			})
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Occurrences[0], groups[j].Occurrences[0]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return groups[i].Fingerprint < groups[j].Fingerprint
	})

	return groups
}

// extractFragments turns each function of a file into a canonical
// fragment, dropping the ones below the structural-line minimum.
func (d *Detector) extractFragments(f *parser.File) []fragment {
	sourceLines := strings.Split(string(f.Source), "\n")

	var frags []fragment
	for _, fn := range f.Functions() {
		start, end := int(fn.StartLine), int(fn.EndLine)
		if start < 1 || end > len(sourceLines) {
			continue
		}

		structural := structuralLines(sourceLines[start-1 : end])
		if len(structural) < d.minLines {
			continue
		}

		tokens := canonicalize(tokenize(strings.Join(structural, "\n")))
		if len(tokens) == 0 {
			continue
		}
		canonical := strings.Join(tokens, " ")

		frags = append(frags, fragment{
			file:      f.Path,
			startLine: fn.StartLine,
			endLine:   fn.EndLine,
			lines:     len(structural),
			key:       xxhash.Sum64String(canonical),
			canonical: canonical,
		})
	}
	return frags
}

// structuralLines drops blank and comment-only lines.
func structuralLines(lines []string) []string {
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isComment(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return kept
}

// canonicalize rewrites a token stream so fragments differing only in
// identifier names or literal values produce the same sequence.
// Identifiers map to VAR_N in first-seen order within the fragment;
// the numbering restarts per fragment so the mapping is positional,
// not global.
func canonicalize(tokens []string) []string {
	assigned := make(map[string]string)
	result := make([]string, 0, len(tokens))

	for _, token := range tokens {
		switch {
		case token == "":
		case isKeyword(token) || isOperatorOrDelimiter(token):
			result = append(result, token)
		case isLiteral(token):
			result = append(result, "LITERAL")
		default:
			canonical, ok := assigned[token]
			if !ok {
				canonical = "VAR_" + strconv.Itoa(len(assigned))
				assigned[token] = canonical
			}
			result = append(result, canonical)
		}
	}
	return result
}

// fingerprint returns the stable content hash reported for a group.
func fingerprint(canonical string) string {
	sum := blake3.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:16])
}

// mergeOverlapping collapses same-file occurrences with overlapping
// line ranges into the largest span, so a function and a nested helper
// with identical token streams count once.
func mergeOverlapping(frags []fragment) []fragment {
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].file != frags[j].file {
			return frags[i].file < frags[j].file
		}
		if frags[i].startLine != frags[j].startLine {
			return frags[i].startLine < frags[j].startLine
		}
		return frags[i].endLine > frags[j].endLine
	})

	var merged []fragment
	for _, frag := range frags {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if last.file == frag.file &&
				frag.startLine <= last.endLine && last.startLine <= frag.endLine {
				if frag.endLine > last.endLine {
					last.endLine = frag.endLine
				}
				if frag.lines > last.lines {
					last.lines = frag.lines
				}
				continue
			}
		}
		merged = append(merged, frag)
	}
	return merged
}

func maxStructuralLines(frags []fragment) int {
	max := 0
	for _, frag := range frags {
		if frag.lines > max {
			max = frag.lines
		}
	}
	return max
}
