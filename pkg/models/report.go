// Package models defines the value types shared between the analyzers
// and the reporting surfaces.
package models

import "time"

// FileRecord is the per-file metadata carried in a scan report.
type FileRecord struct {
	Path          string `json:"path"`
	Language      string `json:"language"`
	LOC           int    `json:"loc"`
	FunctionCount int    `json:"function_count"`
}

// FunctionRecord holds the measurements for one function. Records are
// immutable once created.
type FunctionRecord struct {
	File       string `json:"file"`
	Name       string `json:"name"`
	StartLine  uint32 `json:"start_line"`
	EndLine    uint32 `json:"end_line"`
	Lines      int    `json:"loc"`
	Cyclomatic int    `json:"complexity"`
	MaxNesting int    `json:"nesting_depth"`
	Parameters int    `json:"parameters"`
}

// SmellKind enumerates the detected smell types.
type SmellKind string

const (
	SmellLongFunction      SmellKind = "long-function"
	SmellHighComplexity    SmellKind = "high-complexity"
	SmellLargeFile         SmellKind = "large-file"
	SmellTooManyParameters SmellKind = "too-many-parameters"
	SmellDeepNesting       SmellKind = "deep-nesting"
	SmellUnusedVariable    SmellKind = "unused-variable"
	SmellUnusedImport      SmellKind = "unused-import"
	SmellDuplicateCode     SmellKind = "duplicate-code"
)

// Severity is the severity level of a smell.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeveritySevere  Severity = "severe"
)

// Weight returns a numeric weight for sorting (higher = more severe).
func (s Severity) Weight() int {
	switch s {
	case SeveritySevere:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Smell is one detected finding. Immutable value.
type Smell struct {
	Kind      SmellKind `json:"kind"`
	Severity  Severity  `json:"severity"`
	File      string    `json:"file"`
	Function  string    `json:"function,omitempty"`
	StartLine uint32    `json:"start_line"`
	EndLine   uint32    `json:"end_line"`
	Message   string    `json:"message"`
}

// DuplicateOccurrence is one location of a duplicated fragment.
type DuplicateOccurrence struct {
	File      string `json:"file"`
	StartLine uint32 `json:"start_line"`
	EndLine   uint32 `json:"end_line"`
}

// DuplicateGroup is a set of fragments sharing one content fingerprint.
// Every group has at least two occurrences.
type DuplicateGroup struct {
	Fingerprint string                `json:"fingerprint"`
	Lines       int                   `json:"lines"`
	Occurrences []DuplicateOccurrence `json:"occurrences"`
}

// DependencyEdge is one import/require relationship between files.
// Unresolved targets point at external sentinel nodes.
type DependencyEdge struct {
	From     string `json:"from_file"`
	To       string `json:"to_file"`
	Kind     string `json:"kind"`
	Resolved bool   `json:"resolved"`
}

// SkipCategory classifies why a file was excluded from analysis.
type SkipCategory string

const (
	SkipUnsupported SkipCategory = "unsupported"
	SkipParseError  SkipCategory = "parse-error"
	SkipIOError     SkipCategory = "io-error"
)

// SkippedFile records a file the scan could not analyze, so partial
// coverage is never silent.
type SkippedFile struct {
	Path     string       `json:"path"`
	Category SkipCategory `json:"category"`
	Reason   string       `json:"reason"`
}

// Summary aggregates scan-wide counts.
type Summary struct {
	TotalFiles         int            `json:"total_files"`
	TotalLOC           int            `json:"total_loc"`
	TotalFunctions     int            `json:"total_functions"`
	TotalSmells        int            `json:"total_smells"`
	Languages          map[string]int `json:"languages"`
	P50Complexity      int            `json:"p50_complexity"`
	P90Complexity      int            `json:"p90_complexity"`
	MaxComplexity      int            `json:"max_complexity"`
	SkippedUnsupported int            `json:"skipped_unsupported"`
	SkippedParseErrors int            `json:"skipped_parse_errors"`
	SkippedIOErrors    int            `json:"skipped_io_errors"`
}

// ScanReport is the sole artifact handed to reporting collaborators.
// Once produced it is read-only.
type ScanReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Root        string           `json:"root"`
	Summary     Summary          `json:"summary"`
	Files       []FileRecord     `json:"files"`
	Functions   []FunctionRecord `json:"functions"`
	Smells      []Smell          `json:"smells"`
	Duplicates  []DuplicateGroup `json:"duplicates"`
	Graph       []DependencyEdge `json:"graph"`
	Skipped     []SkippedFile    `json:"skipped,omitempty"`
}
