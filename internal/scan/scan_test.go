package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/temirov/pmgen/internal/types"
)

func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(filepath.Dir(filePath), 0o755); makeDirError != nil {
		testingHandle.Fatalf("failed to create %s: %v", filepath.Dir(filePath), makeDirError)
	}
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

func buildProjectTree(testingHandle *testing.T) string {
	testingHandle.Helper()
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "b.go"), "package b\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.go"), "package a\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "A.go"), "package upper\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "README.md"), "# readme\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "big.go"), strings.Repeat("x", 200))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "bin.go"), "pack\x00age")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, ".hidden.go"), "package hidden\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, ".git", "config.go"), "package git\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "node_modules", "x.js"), "module.exports = 1\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", "c.go"), "package c\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", "z.txt"), "notes\n")
	return rootDirectory
}

func relativePaths(files []types.SourceFile) []string {
	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, file.RelativePath)
	}
	return paths
}

func TestWalkSelectionAndOrder(testingHandle *testing.T) {
	rootDirectory := buildProjectTree(testingHandle)
	baseOptions := Options{
		Root:            rootDirectory,
		Extensions:      []string{".GO", "js"},
		ExcludePatterns: []string{"node_modules/"},
		IgnorePatterns:  []string{".git/"},
		MaxFileSize:     100,
	}

	testCases := []struct {
		name          string
		mutate        func(options *Options)
		expectedFiles []string
	}{
		{
			name:          "defaults",
			mutate:        func(options *Options) {},
			expectedFiles: []string{"A.go", "a.go", "b.go", "sub/c.go"},
		},
		{
			name:          "include hidden",
			mutate:        func(options *Options) { options.IncludeHidden = true },
			expectedFiles: []string{".hidden.go", "A.go", "a.go", "b.go", "sub/c.go"},
		},
		{
			name:          "depth limit",
			mutate:        func(options *Options) { options.MaxDepth = 1 },
			expectedFiles: []string{"A.go", "a.go", "b.go"},
		},
		{
			name:          "no exclusions",
			mutate:        func(options *Options) { options.ExcludePatterns = nil },
			expectedFiles: []string{"A.go", "a.go", "b.go", "node_modules/x.js", "sub/c.go"},
		},
		{
			name: "any extension",
			mutate: func(options *Options) {
				options.Extensions = nil
			},
			expectedFiles: []string{"A.go", "README.md", "a.go", "b.go", "sub/c.go", "sub/z.txt"},
		},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingInstance *testing.T) {
			options := baseOptions
			testCase.mutate(&options)
			result, walkError := Walk(context.Background(), options)
			if walkError != nil {
				testingInstance.Fatalf("Walk failed: %v", walkError)
			}
			if got := relativePaths(result.Files); !reflect.DeepEqual(got, testCase.expectedFiles) {
				testingInstance.Fatalf("unexpected files: got %v want %v", got, testCase.expectedFiles)
			}
			for _, file := range result.Files {
				if file.Content != "" {
					testingInstance.Fatalf("Walk must not read content, got %q for %s", file.Content, file.RelativePath)
				}
			}
		})
	}
}

func TestWalkRecordsSkipReasons(testingHandle *testing.T) {
	rootDirectory := buildProjectTree(testingHandle)
	result, walkError := Walk(context.Background(), Options{
		Root:            rootDirectory,
		Extensions:      []string{".go"},
		ExcludePatterns: []string{"node_modules/"},
		IgnorePatterns:  []string{".git/"},
		MaxFileSize:     100,
	})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}

	reasons := make(map[string]types.SkipReason, len(result.Skipped))
	for _, skipped := range result.Skipped {
		reasons[skipped.RelativePath] = skipped.Reason
	}
	expected := map[string]types.SkipReason{
		".hidden.go": types.SkipReasonHidden,
		"README.md":  types.SkipReasonExtension,
		"big.go":     types.SkipReasonSize,
		"bin.go":     types.SkipReasonBinary,
		"sub/z.txt":  types.SkipReasonExtension,
	}
	if !reflect.DeepEqual(reasons, expected) {
		testingHandle.Fatalf("unexpected skip reasons: got %v want %v", reasons, expected)
	}
}

func TestWalkSkipsServiceFilesAsIgnored(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, ".gitignore"), "*.log\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "main.go"), "package main\n")

	result, walkError := Walk(context.Background(), Options{Root: rootDirectory, IncludeHidden: true})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}
	if got := relativePaths(result.Files); !reflect.DeepEqual(got, []string{"main.go"}) {
		testingHandle.Fatalf("unexpected files: %v", got)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != types.SkipReasonIgnored {
		testingHandle.Fatalf("expected .gitignore to be skipped as ignored, got %+v", result.Skipped)
	}
}

func TestWalkDoesNotFollowSymlinks(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	outsideDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(outsideDirectory, "secret.go"), "package secret\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "main.go"), "package main\n")
	if symlinkError := os.Symlink(outsideDirectory, filepath.Join(rootDirectory, "linked")); symlinkError != nil {
		testingHandle.Skipf("symlinks unavailable: %v", symlinkError)
	}

	result, walkError := Walk(context.Background(), Options{Root: rootDirectory})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}
	if got := relativePaths(result.Files); !reflect.DeepEqual(got, []string{"main.go"}) {
		testingHandle.Fatalf("unexpected files: %v", got)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != types.SkipReasonSymlink {
		testingHandle.Fatalf("expected symlink skip, got %+v", result.Skipped)
	}
}

func TestWalkRootValidation(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	filePath := filepath.Join(rootDirectory, "single.go")
	writeTestFile(testingHandle, filePath, "package single\n")

	if _, walkError := Walk(context.Background(), Options{Root: filePath}); !errors.Is(walkError, ErrRootNotDirectory) {
		testingHandle.Fatalf("expected ErrRootNotDirectory, got %v", walkError)
	}
	if _, walkError := Walk(context.Background(), Options{Root: filepath.Join(rootDirectory, "missing")}); !errors.Is(walkError, os.ErrNotExist) {
		testingHandle.Fatalf("expected not-exist error, got %v", walkError)
	}
}

func TestWalkEmptySelectionIsNotAnError(testingHandle *testing.T) {
	result, walkError := Walk(context.Background(), Options{Root: testingHandle.TempDir()})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}
	if len(result.Files) != 0 {
		testingHandle.Fatalf("expected no files, got %v", result.Files)
	}
}

func TestWalkHonorsCancellation(testingHandle *testing.T) {
	rootDirectory := buildProjectTree(testingHandle)
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()
	if _, walkError := Walk(cancelledContext, Options{Root: rootDirectory}); !errors.Is(walkError, context.Canceled) {
		testingHandle.Fatalf("expected context.Canceled, got %v", walkError)
	}
}

type upperTransformer struct{}

func (upperTransformer) Transform(path string, content []byte) []byte {
	return []byte(strings.ToUpper(string(content)))
}

func TestReadPreservesOrderAndRecordsFailures(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	var files []types.SourceFile
	for _, name := range []string{"d.go", "c.go", "missing.go", "b.go", "a.go"} {
		filePath := filepath.Join(rootDirectory, name)
		if name != "missing.go" {
			writeTestFile(testingHandle, filePath, "package "+strings.TrimSuffix(name, ".go"))
		}
		files = append(files, types.SourceFile{Path: filePath, RelativePath: name})
	}

	result, readError := Read(context.Background(), types.ScanResult{Root: rootDirectory, Files: files}, ReadOptions{Concurrency: 2, Transformer: upperTransformer{}})
	if readError != nil {
		testingHandle.Fatalf("Read failed: %v", readError)
	}

	expectedOrder := []string{"d.go", "c.go", "b.go", "a.go"}
	if got := relativePaths(result.Files); !reflect.DeepEqual(got, expectedOrder) {
		testingHandle.Fatalf("unexpected order: got %v want %v", got, expectedOrder)
	}
	if result.Files[0].Content != "PACKAGE D" {
		testingHandle.Fatalf("transformer not applied: %q", result.Files[0].Content)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].RelativePath != "missing.go" || result.Skipped[0].Reason != types.SkipReasonUnreadable {
		testingHandle.Fatalf("expected missing.go to be unreadable, got %+v", result.Skipped)
	}
}

func TestScanReadsSelectedFiles(testingHandle *testing.T) {
	rootDirectory := buildProjectTree(testingHandle)
	result, scanError := Scan(context.Background(), Options{
		Root:           rootDirectory,
		Extensions:     []string{".go"},
		IgnorePatterns: []string{".git/"},
		MaxFileSize:    100,
	}, ReadOptions{})
	if scanError != nil {
		testingHandle.Fatalf("Scan failed: %v", scanError)
	}
	if len(result.Files) != 4 || result.Files[3].Content != "package c\n" {
		testingHandle.Fatalf("unexpected scan result: %+v", result.Files)
	}
	if result.TotalBytes() == 0 {
		testingHandle.Fatalf("expected non-zero total bytes")
	}
}

func TestWalkDepthLimitAboveOne(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.go"), "package a\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", "c.go"), "package c\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", "deep", "d.go"), "package d\n")

	result, walkError := Walk(context.Background(), Options{Root: rootDirectory, MaxDepth: 2})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}
	expected := []string{"a.go", "sub/c.go"}
	if got := relativePaths(result.Files); !reflect.DeepEqual(got, expected) {
		testingHandle.Fatalf("unexpected files: got %v want %v", got, expected)
	}
}

func TestWalkInterleavesDirectoriesAndFiles(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "d.go"), "package d\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "b.go"), "package b\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "c", "y.go"), "package y\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a", "x.go"), "package x\n")

	result, walkError := Walk(context.Background(), Options{Root: rootDirectory})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}
	expected := []string{"a/x.go", "b.go", "c/y.go", "d.go"}
	if got := relativePaths(result.Files); !reflect.DeepEqual(got, expected) {
		testingHandle.Fatalf("unexpected order: got %v want %v", got, expected)
	}
}

func TestWalkDirectoryPatternKeepsFileOfSameName(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "build"), "#!/bin/sh\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "out", "build", "x.go"), "package x\n")

	result, walkError := Walk(context.Background(), Options{Root: rootDirectory, ExcludePatterns: []string{"build/"}})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}
	expected := []string{"build"}
	if got := relativePaths(result.Files); !reflect.DeepEqual(got, expected) {
		testingHandle.Fatalf("unexpected files: got %v want %v", got, expected)
	}
}

func TestWalkUnreadableDirectories(testingHandle *testing.T) {
	if os.Geteuid() == 0 {
		testingHandle.Skip("permission bits are not enforced for root")
	}
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "ok.go"), "package ok\n")
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	writeTestFile(testingHandle, filepath.Join(lockedDirectory, "x.go"), "package x\n")
	if chmodError := os.Chmod(lockedDirectory, 0); chmodError != nil {
		testingHandle.Fatalf("chmod failed: %v", chmodError)
	}
	testingHandle.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	result, walkError := Walk(context.Background(), Options{Root: rootDirectory})
	if walkError != nil {
		testingHandle.Fatalf("Walk must continue past an unreadable subdirectory: %v", walkError)
	}
	if got := relativePaths(result.Files); !reflect.DeepEqual(got, []string{"ok.go"}) {
		testingHandle.Fatalf("unexpected files: %v", got)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].RelativePath != "locked/" || result.Skipped[0].Reason != types.SkipReasonUnreadable {
		testingHandle.Fatalf("expected locked/ skipped as unreadable, got %+v", result.Skipped)
	}

	if _, rootError := Walk(context.Background(), Options{Root: lockedDirectory}); rootError == nil {
		testingHandle.Fatalf("expected an error for an unreadable root")
	}
}
