// Package scan orchestrates a full analysis run: discover files, parse
// and measure them in parallel, then merge per-file results with the
// scan-wide passes into one immutable report.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/reliclabs/relic/internal/fileproc"
	"github.com/reliclabs/relic/internal/walker"
	"github.com/reliclabs/relic/pkg/analyzer/duplicates"
	"github.com/reliclabs/relic/pkg/analyzer/graph"
	"github.com/reliclabs/relic/pkg/analyzer/metrics"
	"github.com/reliclabs/relic/pkg/analyzer/smells"
	"github.com/reliclabs/relic/pkg/config"
	"github.com/reliclabs/relic/pkg/models"
	"github.com/reliclabs/relic/pkg/parser"
	"github.com/reliclabs/relic/pkg/source"
	"github.com/reliclabs/relic/pkg/stats"
)

// Scanner runs the scan pipeline. Construction validates the
// configuration; an invalid configuration never starts a scan.
type Scanner struct {
	cfg      *config.Config
	src      source.ContentSource
	detector *smells.Detector
	now      func() time.Time
	progress fileproc.ProgressFunc
}

// Option is a functional option for configuring Scanner.
type Option func(*Scanner)

// WithSource overrides where file content is read from.
func WithSource(src source.ContentSource) Option {
	return func(s *Scanner) {
		s.src = src
	}
}

// WithProgress installs a callback invoked once per processed file.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(s *Scanner) {
		s.progress = fn
	}
}

// WithTimestamp overrides the report timestamp source.
func WithTimestamp(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// New creates a scanner for the given configuration.
func New(cfg *config.Config, opts ...Option) (*Scanner, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	detector, err := smells.New(smells.WithThresholds(smells.FromConfig(cfg)))
	if err != nil {
		return nil, &config.ConfigurationError{Reason: err.Error()}
	}

	s := &Scanner{
		cfg:      cfg,
		detector: detector,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// fileResult carries everything the merge phase needs for one file.
type fileResult struct {
	path    string
	file    *parser.File
	metrics *metrics.FileMetrics
	smells  []models.Smell
}

// Scan analyzes the tree under root and returns the report. Per-file
// failures are recorded in the report, never fatal; only configuration
// problems, unreadable roots, and cancellation abort the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (*models.ScanReport, error) {
	paths, err := walker.New(s.cfg).Walk(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	var skipped []models.SkippedFile
	paths, oversized := walker.FilterBySize(root, paths, s.cfg.Scan.MaxFileSize)
	for _, p := range oversized {
		skipped = append(skipped, models.SkippedFile{
			Path:     p,
			Category: models.SkipIOError,
			Reason:   "exceeds configured max file size",
		})
	}

	src := s.src
	if src == nil {
		src = source.NewFilesystem(root)
	}

	results, procErrs := fileproc.MapFilesWithContext(ctx, paths, s.cfg.Scan.Workers,
		func(psr *parser.Parser, path string) (fileResult, error) {
			return s.analyzeFile(psr, src, path)
		}, s.progress)

	if procErrs != nil {
		for _, pe := range procErrs.Errors {
			if errors.Is(pe.Err, context.Canceled) || errors.Is(pe.Err, context.DeadlineExceeded) {
				return nil, pe.Err
			}
			skipped = append(skipped, classifySkip(pe))
		}
	}

	return s.merge(root, results, skipped), nil
}

// analyzeFile runs the per-file pipeline: grammar lookup, read, parse,
// metrics, smells.
func (s *Scanner) analyzeFile(psr *parser.Parser, src source.ContentSource, path string) (fileResult, error) {
	g := parser.ForPath(path)
	if g == nil {
		return fileResult{}, &unsupportedError{path: path}
	}

	content, err := src.Read(path)
	if err != nil {
		return fileResult{}, fmt.Errorf("read: %w", err)
	}

	file, err := psr.Parse(content, g, path)
	if err != nil {
		return fileResult{}, err
	}

	fm := metrics.AnalyzeFile(file)
	return fileResult{
		path:    path,
		file:    file,
		metrics: fm,
		smells:  s.detector.DetectFile(file, fm),
	}, nil
}

// merge combines per-file results into the final report. Results are
// sorted by path first, so identical input always produces an
// identical report.
func (s *Scanner) merge(root string, results []fileResult, skipped []models.SkippedFile) *models.ScanReport {
	sort.Slice(results, func(i, j int) bool {
		return results[i].path < results[j].path
	})
	sort.Slice(skipped, func(i, j int) bool {
		return skipped[i].Path < skipped[j].Path
	})

	report := &models.ScanReport{
		GeneratedAt: s.now(),
		Root:        root,
		Skipped:     skipped,
	}
	report.Summary.Languages = make(map[string]int)

	var files []*parser.File
	var complexities []int
	for _, r := range results {
		files = append(files, r.file)

		report.Files = append(report.Files, models.FileRecord{
			Path:          r.path,
			Language:      r.metrics.Language,
			LOC:           r.metrics.LOC,
			FunctionCount: len(r.metrics.Functions),
		})
		report.Functions = append(report.Functions, r.metrics.Functions...)
		report.Smells = append(report.Smells, r.smells...)

		report.Summary.TotalFiles++
		report.Summary.TotalLOC += r.metrics.LOC
		report.Summary.Languages[r.metrics.Language]++
		for _, fn := range r.metrics.Functions {
			complexities = append(complexities, fn.Cyclomatic)
		}
	}

	report.Duplicates = duplicates.New(
		duplicates.WithMinLines(s.cfg.Thresholds.DuplicateMinLines),
	).Detect(files)
	for _, group := range report.Duplicates {
		first := group.Occurrences[0]
		report.Smells = append(report.Smells, models.Smell{
			Kind:      models.SmellDuplicateCode,
			Severity:  models.SeverityWarning,
			File:      first.File,
			StartLine: first.StartLine,
			EndLine:   first.EndLine,
			Message: fmt.Sprintf("duplicated block of %d lines appears in %d locations",
				group.Lines, len(group.Occurrences)),
		})
	}

	report.Graph = graph.Build(files).Edges

	report.Summary.TotalFunctions = len(report.Functions)
	report.Summary.TotalSmells = len(report.Smells)

	sort.Ints(complexities)
	report.Summary.P50Complexity = stats.PercentileInts(complexities, 50)
	report.Summary.P90Complexity = stats.PercentileInts(complexities, 90)
	if len(complexities) > 0 {
		report.Summary.MaxComplexity = complexities[len(complexities)-1]
	}

	for _, sk := range skipped {
		switch sk.Category {
		case models.SkipUnsupported:
			report.Summary.SkippedUnsupported++
		case models.SkipParseError:
			report.Summary.SkippedParseErrors++
		case models.SkipIOError:
			report.Summary.SkippedIOErrors++
		}
	}

	return report
}

// unsupportedError marks a file whose extension has no grammar.
type unsupportedError struct {
	path string
}

func (e *unsupportedError) Error() string {
	return "unsupported language: " + e.path
}

// classifySkip maps a per-file processing error onto the skip taxonomy.
func classifySkip(pe fileproc.ProcessingError) models.SkippedFile {
	sk := models.SkippedFile{Path: pe.Path, Reason: pe.Err.Error()}

	var parseErr *parser.ParseError
	var unsupported *unsupportedError
	switch {
	case errors.As(pe.Err, &unsupported):
		sk.Category = models.SkipUnsupported
	case errors.As(pe.Err, &parseErr):
		sk.Category = models.SkipParseError
	default:
		sk.Category = models.SkipIOError
	}
	return sk
}
