package fileproc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reliclabs/relic/pkg/parser"
)

func TestMapFiles(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "file1.go", "package main\nfunc main() {}"),
		createTestFile(t, tmpDir, "file2.go", "package main\nfunc test() {}"),
		createTestFile(t, tmpDir, "file3.go", "package main\nfunc validate() {}"),
	}

	results, errs := MapFiles(files, func(p *parser.Parser, path string) (string, error) {
		return filepath.Base(path), nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if len(results) != len(files) {
		t.Errorf("Expected %d results, got %d", len(files), len(results))
	}

	resultMap := make(map[string]bool)
	for _, r := range results {
		resultMap[r] = true
	}
	for _, expected := range []string{"file1.go", "file2.go", "file3.go"} {
		if !resultMap[expected] {
			t.Errorf("Missing expected result: %s", expected)
		}
	}
}

func TestMapFiles_EmptyFileList(t *testing.T) {
	results, errs := MapFiles(nil, func(p *parser.Parser, path string) (string, error) {
		return path, nil
	})

	if results != nil {
		t.Errorf("Expected nil for empty file list, got %v", results)
	}
	if errs != nil {
		t.Errorf("Expected nil errors for empty file list, got %v", errs)
	}
}

func TestMapFiles_WithErrors(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "good1.go", "package main"),
		createTestFile(t, tmpDir, "bad.go", "package main"),
		createTestFile(t, tmpDir, "good2.go", "package main"),
	}

	processedCount := atomic.Int32{}
	results, errs := MapFiles(files, func(p *parser.Parser, path string) (string, error) {
		processedCount.Add(1)
		if filepath.Base(path) == "bad.go" {
			return "", fmt.Errorf("simulated error")
		}
		return filepath.Base(path), nil
	})

	if int(processedCount.Load()) != 3 {
		t.Errorf("Expected all 3 files to be processed, got %d", processedCount.Load())
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 successful results (errors skipped), got %d", len(results))
	}
	if errs == nil {
		t.Error("Expected errors to be returned")
	} else if len(errs.Errors) != 1 {
		t.Errorf("Expected 1 error, got %d", len(errs.Errors))
	}
}

func TestMapFiles_ParserAvailable(t *testing.T) {
	tmpDir := t.TempDir()
	file := createTestFile(t, tmpDir, "test.go", "package main\nfunc main() {}")

	results, errs := MapFiles([]string{file}, func(p *parser.Parser, path string) (bool, error) {
		if p == nil {
			t.Error("Parser should not be nil")
			return false, nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return false, err
		}
		parsed, err := p.Parse(content, parser.ForPath(path), path)
		if err != nil {
			return false, err
		}
		return parsed != nil && parsed.Root != nil, nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if !results[0] {
		t.Error("Parser should have successfully parsed the file")
	}
}

func TestMapFilesWithContext_Progress(t *testing.T) {
	tmpDir := t.TempDir()

	files := make([]string, 5)
	for i := range files {
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("file%d.go", i), "package main")
	}

	progressCount := atomic.Int32{}
	results, errs := MapFilesWithContext(context.Background(), files, 0,
		func(p *parser.Parser, path string) (int, error) {
			return 1, nil
		}, func() { progressCount.Add(1) })

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if len(results) != len(files) {
		t.Errorf("Expected %d results, got %d", len(files), len(results))
	}
	if int(progressCount.Load()) != len(files) {
		t.Errorf("Expected progress callback %d times, got %d", len(files), progressCount.Load())
	}
}

func TestMapFilesWithContext_Cancellation(t *testing.T) {
	tmpDir := t.TempDir()

	fileCount := 100
	files := make([]string, fileCount)
	for i := 0; i < fileCount; i++ {
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("file%d.go", i), "package main")
	}

	ctx, cancel := context.WithCancel(context.Background())

	var processed atomic.Int32
	go func() {
		for processed.Load() < 10 {
			runtime.Gosched()
		}
		cancel()
	}()

	results, errs := MapFilesWithContext(ctx, files, 0,
		func(p *parser.Parser, path string) (string, error) {
			processed.Add(1)
			for i := 0; i < 1000; i++ {
				runtime.Gosched()
			}
			return filepath.Base(path), nil
		}, nil)

	errorCount := 0
	if errs != nil {
		errorCount = len(errs.Errors)
	}
	if len(results)+errorCount > fileCount {
		t.Errorf("Results (%d) + errors (%d) should not exceed file count (%d)",
			len(results), errorCount, fileCount)
	}
}

func TestWorkers(t *testing.T) {
	if got := Workers(4); got != 4 {
		t.Errorf("Workers(4) = %d, want 4", got)
	}
	want := runtime.NumCPU() * DefaultWorkerMultiplier
	if got := Workers(0); got != want {
		t.Errorf("Workers(0) = %d, want %d", got, want)
	}
	if got := Workers(-1); got != want {
		t.Errorf("Workers(-1) = %d, want %d", got, want)
	}
}

func TestForEachFile(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "file1.txt", "content1"),
		createTestFile(t, tmpDir, "file2.txt", "content2"),
		createTestFile(t, tmpDir, "file3.txt", "content3"),
	}

	results, errs := ForEachFile(files, func(path string) (string, error) {
		return filepath.Base(path), nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if len(results) != len(files) {
		t.Errorf("Expected %d results, got %d", len(files), len(results))
	}
}

func TestForEachFile_WithErrors(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "good1.txt", "content"),
		createTestFile(t, tmpDir, "bad.txt", "content"),
		createTestFile(t, tmpDir, "good2.txt", "content"),
	}

	results, errs := ForEachFile(files, func(path string) (string, error) {
		if filepath.Base(path) == "bad.txt" {
			return "", fmt.Errorf("simulated error")
		}
		return filepath.Base(path), nil
	})

	if len(results) != 2 {
		t.Errorf("Expected 2 successful results, got %d", len(results))
	}
	if errs == nil || len(errs.Errors) != 1 {
		t.Errorf("Expected 1 error, got %v", errs)
	}
}

func TestProcessingError(t *testing.T) {
	err := ProcessingError{Path: "/path/to/file.go", Err: fmt.Errorf("parse failed")}
	expected := "/path/to/file.go: parse failed"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestProcessingErrors(t *testing.T) {
	errs := &ProcessingErrors{}

	if errs.HasErrors() {
		t.Error("Empty ProcessingErrors should not have errors")
	}
	if errs.Error() != "no errors" {
		t.Errorf("Empty error message = %q, want 'no errors'", errs.Error())
	}

	errs.Add("/file1.go", fmt.Errorf("error1"))
	if !errs.HasErrors() {
		t.Error("ProcessingErrors with one error should have errors")
	}
	if errs.Error() != "/file1.go: error1" {
		t.Errorf("Single error message = %q", errs.Error())
	}

	errs.Add("/file2.go", fmt.Errorf("error2"))
	if len(errs.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(errs.Errors))
	}
	if errs.Error() != "2 files failed to process (first: /file1.go: error1)" {
		t.Errorf("Multiple error message = %q", errs.Error())
	}
}

func TestProcessingErrors_ThreadSafe(t *testing.T) {
	errs := &ProcessingErrors{}
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs.Add(fmt.Sprintf("/file%d.go", n), fmt.Errorf("error %d", n))
		}(i)
	}
	wg.Wait()

	if len(errs.Errors) != 100 {
		t.Errorf("Expected 100 errors, got %d", len(errs.Errors))
	}
}

func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file %s: %v", name, err)
	}
	return path
}
