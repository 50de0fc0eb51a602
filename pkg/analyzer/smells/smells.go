// Package smells evaluates function and file measurements against a
// fixed rule table, plus syntactic checks for unused declarations.
package smells

import (
	"fmt"

	"github.com/reliclabs/relic/pkg/analyzer/metrics"
	"github.com/reliclabs/relic/pkg/config"
	"github.com/reliclabs/relic/pkg/models"
	"github.com/reliclabs/relic/pkg/parser"
)

// Thresholds configures the detection rules. Every limit is exclusive:
// a rule fires only when the measured value exceeds it.
type Thresholds struct {
	FunctionLines       int
	FunctionLinesSevere int
	Complexity          int
	FileLines           int
	MaxParameters       int
	MaxNesting          int
}

// DefaultThresholds returns the built-in default thresholds.
func DefaultThresholds() Thresholds {
	return FromConfig(config.DefaultConfig())
}

// FromConfig derives rule thresholds from a validated config.
func FromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		FunctionLines:       cfg.Thresholds.FunctionLines,
		FunctionLinesSevere: cfg.Thresholds.FunctionLinesSevere,
		Complexity:          cfg.Thresholds.Complexity,
		FileLines:           cfg.Thresholds.FileLines,
		MaxParameters:       cfg.Thresholds.MaxParameters,
		MaxNesting:          cfg.Thresholds.MaxNesting,
	}
}

// Detector runs the smell rules. Rules are pure functions evaluated in
// a fixed order, so a given input always yields the same findings in
// the same order. This detector is safe for concurrent use.
type Detector struct {
	thresholds Thresholds
}

// Option is a functional option for configuring Detector.
type Option func(*Detector)

// WithThresholds sets custom detection thresholds.
func WithThresholds(t Thresholds) Option {
	return func(d *Detector) {
		d.thresholds = t
	}
}

// New creates a smell detector, rejecting invalid thresholds.
func New(opts ...Option) (*Detector, error) {
	d := &Detector{thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(d)
	}

	t := d.thresholds
	checks := []struct {
		name  string
		value int
	}{
		{"function_lines", t.FunctionLines},
		{"complexity", t.Complexity},
		{"file_lines", t.FileLines},
		{"max_parameters", t.MaxParameters},
		{"max_nesting", t.MaxNesting},
	}
	for _, c := range checks {
		if c.value < 1 {
			return nil, fmt.Errorf("threshold %s must be positive, got %d", c.name, c.value)
		}
	}
	if t.FunctionLinesSevere <= t.FunctionLines {
		return nil, fmt.Errorf("severe function-lines threshold (%d) must exceed warning threshold (%d)",
			t.FunctionLinesSevere, t.FunctionLines)
	}

	return d, nil
}

// functionRule evaluates one function record. A nil result means the
// rule did not fire.
type functionRule func(t Thresholds, fr models.FunctionRecord) *models.Smell

// functionRules is the ordered rule table for function-scoped smells.
var functionRules = []functionRule{
	longFunction,
	highComplexity,
	tooManyParameters,
	deepNesting,
}

// DetectFile evaluates all rules against one parsed file and its
// metrics. Findings appear in rule-table order per subject, subjects
// in source order.
func (d *Detector) DetectFile(f *parser.File, fm *metrics.FileMetrics) []models.Smell {
	var found []models.Smell

	if s := largeFile(d.thresholds, fm); s != nil {
		found = append(found, *s)
	}

	for _, fr := range fm.Functions {
		for _, rule := range functionRules {
			if s := rule(d.thresholds, fr); s != nil {
				found = append(found, *s)
			}
		}
	}

	found = append(found, unusedVariables(f)...)
	found = append(found, unusedImports(f)...)

	return found
}

// longFunction flags functions exceeding the line thresholds. When the
// severe threshold is also exceeded, the severe finding supersedes the
// warning; a function is never reported twice for length.
func longFunction(t Thresholds, fr models.FunctionRecord) *models.Smell {
	if fr.Lines <= t.FunctionLines {
		return nil
	}
	severity := models.SeverityWarning
	threshold := t.FunctionLines
	if fr.Lines > t.FunctionLinesSevere {
		severity = models.SeveritySevere
		threshold = t.FunctionLinesSevere
	}
	return &models.Smell{
		Kind:      models.SmellLongFunction,
		Severity:  severity,
		File:      fr.File,
		Function:  fr.Name,
		StartLine: fr.StartLine,
		EndLine:   fr.EndLine,
		Message:   fmt.Sprintf("function %q spans %d lines (threshold %d)", fr.Name, fr.Lines, threshold),
	}
}

func highComplexity(t Thresholds, fr models.FunctionRecord) *models.Smell {
	if fr.Cyclomatic <= t.Complexity {
		return nil
	}
	return &models.Smell{
		Kind:      models.SmellHighComplexity,
		Severity:  models.SeverityWarning,
		File:      fr.File,
		Function:  fr.Name,
		StartLine: fr.StartLine,
		EndLine:   fr.EndLine,
		Message:   fmt.Sprintf("function %q has cyclomatic complexity %d (threshold %d)", fr.Name, fr.Cyclomatic, t.Complexity),
	}
}

func tooManyParameters(t Thresholds, fr models.FunctionRecord) *models.Smell {
	if fr.Parameters <= t.MaxParameters {
		return nil
	}
	return &models.Smell{
		Kind:      models.SmellTooManyParameters,
		Severity:  models.SeverityWarning,
		File:      fr.File,
		Function:  fr.Name,
		StartLine: fr.StartLine,
		EndLine:   fr.EndLine,
		Message:   fmt.Sprintf("function %q takes %d parameters (threshold %d)", fr.Name, fr.Parameters, t.MaxParameters),
	}
}

func deepNesting(t Thresholds, fr models.FunctionRecord) *models.Smell {
	if fr.MaxNesting <= t.MaxNesting {
		return nil
	}
	return &models.Smell{
		Kind:      models.SmellDeepNesting,
		Severity:  models.SeverityWarning,
		File:      fr.File,
		Function:  fr.Name,
		StartLine: fr.StartLine,
		EndLine:   fr.EndLine,
		Message:   fmt.Sprintf("function %q nests %d levels deep (threshold %d)", fr.Name, fr.MaxNesting, t.MaxNesting),
	}
}

func largeFile(t Thresholds, fm *metrics.FileMetrics) *models.Smell {
	if fm.LOC <= t.FileLines {
		return nil
	}
	return &models.Smell{
		Kind:      models.SmellLargeFile,
		Severity:  models.SeverityWarning,
		File:      fm.Path,
		StartLine: 1,
		EndLine:   1,
		Message:   fmt.Sprintf("file has %d lines of code (threshold %d)", fm.LOC, t.FileLines),
	}
}
