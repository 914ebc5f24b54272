package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/pmgen/internal/output"
	"github.com/temirov/pmgen/internal/types"
)

func TestJSONFormatter(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "compact json", input: `{"info":{"name":"demo"},"item":[]}`, expected: "{\n  \"info\": {\n    \"name\": \"demo\"\n  },\n  \"item\": []\n}\n"},
		{name: "surrounding whitespace", input: "\n [1,2] \n", expected: "[\n  1,\n  2\n]\n"},
		{name: "not json", input: "I could not find endpoints.", expected: "I could not find endpoints.\n"},
		{name: "not json with newline", input: "partial {\n", expected: "partial {\n"},
	}

	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			formatted, formatError := output.JSONFormatter{}.Format([]byte(testCase.input))
			if formatError != nil {
				subTest.Fatalf("Format failed: %v", formatError)
			}
			if string(formatted) != testCase.expected {
				subTest.Fatalf("Format() = %q, want %q", formatted, testCase.expected)
			}
		})
	}
}

func TestWriteCreatesDirectoriesAndRefusesOverwrite(testingInstance *testing.T) {
	targetPath := filepath.Join(testingInstance.TempDir(), "nested", "collections", "api.json")

	writtenPath, writeError := output.Write(targetPath, []byte(`{"a":1}`), output.WriteOptions{Formatter: output.JSONFormatter{}})
	if writeError != nil {
		testingInstance.Fatalf("Write failed: %v", writeError)
	}
	if writtenPath != targetPath {
		testingInstance.Fatalf("unexpected written path %q", writtenPath)
	}
	content, readError := os.ReadFile(targetPath)
	if readError != nil {
		testingInstance.Fatalf("read failed: %v", readError)
	}
	if string(content) != "{\n  \"a\": 1\n}\n" {
		testingInstance.Fatalf("unexpected content %q", content)
	}
	fileInfo, statError := os.Stat(targetPath)
	if statError != nil {
		testingInstance.Fatalf("stat failed: %v", statError)
	}
	if fileInfo.Mode().Perm() != 0o644 {
		testingInstance.Fatalf("unexpected permissions %v", fileInfo.Mode().Perm())
	}

	if _, secondError := output.Write(targetPath, []byte("second"), output.WriteOptions{}); !errors.Is(secondError, output.ErrOutputExists) {
		testingInstance.Fatalf("expected ErrOutputExists, got %v", secondError)
	}
	if _, forcedError := output.Write(targetPath, []byte("second"), output.WriteOptions{Force: true}); forcedError != nil {
		testingInstance.Fatalf("forced Write failed: %v", forcedError)
	}
	content, _ = os.ReadFile(targetPath)
	if string(content) != "second" {
		testingInstance.Fatalf("expected passthrough content, got %q", content)
	}

	entries, _ := os.ReadDir(filepath.Dir(targetPath))
	if len(entries) != 1 {
		testingInstance.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestWriteRejectsDirectoryTarget(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	if _, writeError := output.Write(directory, []byte("x"), output.WriteOptions{Force: true}); writeError == nil {
		testingInstance.Fatalf("expected an error when the target is a directory")
	}
}

func sampleScanResult() types.ScanResult {
	return types.ScanResult{
		Root: "/project",
		Files: []types.SourceFile{
			{Path: "/project/main.go", RelativePath: "main.go", SizeBytes: 2048, Tokens: 300},
			{Path: "/project/api/routes.go", RelativePath: "api/routes.go", SizeBytes: 100, Tokens: 20},
		},
		Skipped: []types.SkippedFile{
			{RelativePath: "logo.png", Reason: types.SkipReasonBinary},
			{RelativePath: "dump.sql", Reason: types.SkipReasonSize, Detail: "2.0mb exceeds limit 256.0kb"},
		},
	}
}

func TestRenderScanReportRaw(testingInstance *testing.T) {
	var buffer bytes.Buffer
	if renderError := output.RenderScanReport(&buffer, sampleScanResult(), output.ReportOptions{IncludeTokens: true, Model: "gpt-4o"}); renderError != nil {
		testingInstance.Fatalf("RenderScanReport failed: %v", renderError)
	}
	rendered := buffer.String()
	for _, expectedLine := range []string{
		"Root: /project\n",
		"Files (2):\n",
		"  main.go (2kb, 300 tokens)\n",
		"Skipped (2):\n",
		"  logo.png: binary\n",
		"  dump.sql: size (2.0mb exceeds limit 256.0kb)\n",
		", 320 tokens (gpt-4o)\n",
	} {
		if !strings.Contains(rendered, expectedLine) {
			testingInstance.Fatalf("raw report missing %q:\n%s", expectedLine, rendered)
		}
	}
	if strings.Index(rendered, "main.go") > strings.Index(rendered, "api/routes.go") {
		testingInstance.Fatalf("files must keep scan order:\n%s", rendered)
	}
}

func TestRenderScanReportJSON(testingInstance *testing.T) {
	var buffer bytes.Buffer
	if renderError := output.RenderScanReport(&buffer, sampleScanResult(), output.ReportOptions{Format: "JSON"}); renderError != nil {
		testingInstance.Fatalf("RenderScanReport failed: %v", renderError)
	}
	var decoded struct {
		Root  string `json:"root"`
		Files []struct {
			RelativePath string `json:"relativePath"`
			Tokens       int    `json:"tokens"`
		} `json:"files"`
		Skipped []struct {
			Reason string `json:"reason"`
		} `json:"skipped"`
		Summary struct {
			Files  int   `json:"files"`
			Bytes  int64 `json:"bytes"`
			Tokens int   `json:"tokens"`
		} `json:"summary"`
	}
	if decodeError := json.Unmarshal(buffer.Bytes(), &decoded); decodeError != nil {
		testingInstance.Fatalf("invalid JSON report: %v", decodeError)
	}
	if decoded.Root != "/project" || len(decoded.Files) != 2 || decoded.Files[1].RelativePath != "api/routes.go" {
		testingInstance.Fatalf("unexpected report: %+v", decoded)
	}
	if decoded.Files[0].Tokens != 0 || decoded.Summary.Tokens != 0 {
		testingInstance.Fatalf("tokens must be omitted unless requested: %+v", decoded)
	}
	if decoded.Summary.Files != 2 || decoded.Summary.Bytes != 2148 || len(decoded.Skipped) != 2 {
		testingInstance.Fatalf("unexpected summary: %+v", decoded.Summary)
	}
}

func TestRenderScanReportXML(testingInstance *testing.T) {
	var buffer bytes.Buffer
	if renderError := output.RenderScanReport(&buffer, sampleScanResult(), output.ReportOptions{Format: output.FormatXML}); renderError != nil {
		testingInstance.Fatalf("RenderScanReport failed: %v", renderError)
	}
	rendered := buffer.String()
	if !strings.HasPrefix(rendered, "<?xml") || !strings.Contains(rendered, `<file path="main.go" size="2048"></file>`) || !strings.Contains(rendered, `reason="binary"`) {
		testingInstance.Fatalf("unexpected XML report:\n%s", rendered)
	}
}

func TestRenderScanReportUnknownFormat(testingInstance *testing.T) {
	if renderError := output.RenderScanReport(&bytes.Buffer{}, types.ScanResult{}, output.ReportOptions{Format: "yaml"}); renderError == nil {
		testingInstance.Fatalf("expected error for unknown format")
	}
}
