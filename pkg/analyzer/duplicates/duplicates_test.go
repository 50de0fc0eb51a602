package duplicates

import (
	"strings"
	"testing"

	"github.com/reliclabs/relic/pkg/parser"
)

func parseFile(t *testing.T, path, src string) *parser.File {
	t.Helper()
	g := parser.ForPath(path)
	if g == nil {
		t.Fatalf("no grammar for %s", path)
	}
	p := parser.New()
	defer p.Close()
	f, err := p.Parse([]byte(src), g, path)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return f
}

func TestDetect_RenamedCopyCollides(t *testing.T) {
	a := parseFile(t, "a.go", `package main

func sumEven(values []int) int {
	total := 0
	for _, value := range values {
		if value%2 == 0 {
			total += value
		}
	}
	return total
}
`)
	b := parseFile(t, "b.go", `package main

func addPairs(items []int) int {
	acc := 0
	for _, item := range items {
		if item%2 == 0 {
			acc += item
		}
	}
	return acc
}
`)

	groups := New().Detect([]*parser.File{a, b})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	g := groups[0]
	if len(g.Occurrences) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(g.Occurrences))
	}
	if g.Occurrences[0].File != "a.go" || g.Occurrences[1].File != "b.go" {
		t.Errorf("occurrences out of order: %+v", g.Occurrences)
	}
	if len(g.Fingerprint) != 32 {
		t.Errorf("fingerprint %q should be 32 hex chars", g.Fingerprint)
	}
	if g.Lines < 5 {
		t.Errorf("Lines = %d, want >= minimum", g.Lines)
	}
}

func TestDetect_DifferentLiteralsStillCollide(t *testing.T) {
	a := parseFile(t, "a.go", `package main

func retryFast(op func() error) error {
	var err error
	for i := 0; i < 3; i++ {
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}
`)
	b := parseFile(t, "b.go", `package main

func retrySlow(op func() error) error {
	var err error
	for i := 0; i < 10; i++ {
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}
`)

	if groups := New().Detect([]*parser.File{a, b}); len(groups) != 1 {
		t.Errorf("literal values must not break grouping, got %d groups", len(groups))
	}
}

func TestDetect_StructurallyDifferentDoNotCollide(t *testing.T) {
	a := parseFile(t, "a.go", `package main

func withLoop(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
`)
	b := parseFile(t, "b.go", `package main

func withBranch(values []int) int {
	total := 0
	if len(values) > 0 {
		total = values[0]
	}
	return total
}
`)

	if groups := New().Detect([]*parser.File{a, b}); len(groups) != 0 {
		t.Errorf("expected no groups, got %+v", groups)
	}
}

func TestDetect_BelowMinimumNeverReported(t *testing.T) {
	a := parseFile(t, "a.go", `package main

func tiny1() int {
	return 1
}
`)
	b := parseFile(t, "b.go", `package main

func tiny2() int {
	return 2
}
`)

	if groups := New().Detect([]*parser.File{a, b}); len(groups) != 0 {
		t.Errorf("fragments below the minimum were reported: %+v", groups)
	}
}

func TestDetect_SingleOccurrenceDropped(t *testing.T) {
	a := parseFile(t, "a.go", `package main

func alone(values []int) int {
	total := 0
	for _, v := range values {
		total += v * 2
	}
	return total
}
`)

	if groups := New().Detect([]*parser.File{a}); len(groups) != 0 {
		t.Errorf("a lone fragment must not form a group: %+v", groups)
	}
}

func TestDetect_CommentsAndBlanksIgnored(t *testing.T) {
	a := parseFile(t, "a.go", `package main

func clean(values []int) int {
	total := 0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	return total
}
`)
	b := parseFile(t, "b.go", `package main

func commented(values []int) int {
	// running sum
	total := 0

	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	return total
}
`)

	if groups := New().Detect([]*parser.File{a, b}); len(groups) != 1 {
		t.Errorf("comments and blank lines must not affect grouping, got %d groups", len(groups))
	}
}

func TestCanonicalize(t *testing.T) {
	tokens := tokenize(`total := count + 1
if total > limit {
	return "over"
}`)
	canonical := canonicalize(tokens)
	joined := strings.Join(canonical, " ")

	if strings.Contains(joined, "total") || strings.Contains(joined, "limit") {
		t.Errorf("identifiers leaked into canonical form: %s", joined)
	}
	if !strings.Contains(joined, "VAR_0") || !strings.Contains(joined, "VAR_1") {
		t.Errorf("expected positional VAR_N tokens: %s", joined)
	}
	if !strings.Contains(joined, "LITERAL") {
		t.Errorf("expected literals collapsed: %s", joined)
	}
	if !strings.Contains(joined, "if") || !strings.Contains(joined, "return") {
		t.Errorf("keywords must survive verbatim: %s", joined)
	}
}

func TestCanonicalize_NumberingIsPerFragment(t *testing.T) {
	first := strings.Join(canonicalize(tokenize("alpha := beta + alpha")), " ")
	second := strings.Join(canonicalize(tokenize("gamma := delta + gamma")), " ")
	if first != second {
		t.Errorf("per-fragment numbering should make these equal:\n%s\n%s", first, second)
	}
}

func TestMergeOverlapping(t *testing.T) {
	frags := []fragment{
		{file: "a.go", startLine: 10, endLine: 30, lines: 15},
		{file: "a.go", startLine: 12, endLine: 20, lines: 8},
		{file: "b.go", startLine: 10, endLine: 30, lines: 15},
	}

	merged := mergeOverlapping(frags)
	if len(merged) != 2 {
		t.Fatalf("expected 2 fragments after merge, got %d", len(merged))
	}
	if merged[0].file != "a.go" || merged[0].startLine != 10 || merged[0].endLine != 30 {
		t.Errorf("merged[0] = %+v", merged[0])
	}
	if merged[1].file != "b.go" {
		t.Errorf("merged[1] = %+v", merged[1])
	}
}

func TestNew_ClampsMinLines(t *testing.T) {
	if d := New(WithMinLines(1)); d.minLines != DefaultMinLines {
		t.Errorf("minLines = %d, want default %d", d.minLines, DefaultMinLines)
	}
	if d := New(WithMinLines(8)); d.minLines != 8 {
		t.Errorf("minLines = %d, want 8", d.minLines)
	}
}
