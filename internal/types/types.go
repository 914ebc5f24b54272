// Package types defines the cross-package data structures used by pmgen.
package types

const (
	CommandGenerate = "generate"
	CommandScan     = "scan"
	CommandPrompt   = "prompt"
	CommandInit     = "init"
)

// SkipReason explains why the scanner left a file out of the prompt.
type SkipReason string

const (
	SkipReasonIgnored    SkipReason = "ignored"
	SkipReasonHidden     SkipReason = "hidden"
	SkipReasonExtension  SkipReason = "extension"
	SkipReasonSize       SkipReason = "size"
	SkipReasonBinary     SkipReason = "binary"
	SkipReasonSymlink    SkipReason = "symlink"
	SkipReasonUnreadable SkipReason = "unreadable"
)

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}

// SourceFile is one file selected for the prompt, in traversal order.
type SourceFile struct {
	Path         string `json:"path"`
	RelativePath string `json:"relativePath"`
	SizeBytes    int64  `json:"sizeBytes"`
	Content      string `json:"-"`
	Tokens       int    `json:"tokens,omitempty"`
}

// SkippedFile records a file the scanner saw but did not select.
type SkippedFile struct {
	RelativePath string     `json:"relativePath"`
	Reason       SkipReason `json:"reason"`
	Detail       string     `json:"detail,omitempty"`
}

// ScanResult is the ordered outcome of walking one root directory.
type ScanResult struct {
	Root    string        `json:"root"`
	Files   []SourceFile  `json:"files"`
	Skipped []SkippedFile `json:"skipped,omitempty"`
}

// TotalBytes sums the sizes of the selected files.
func (result ScanResult) TotalBytes() int64 {
	var total int64
	for _, file := range result.Files {
		total += file.SizeBytes
	}
	return total
}

// TotalTokens sums per-file token counts when they were computed.
func (result ScanResult) TotalTokens() int {
	total := 0
	for _, file := range result.Files {
		total += file.Tokens
	}
	return total
}
