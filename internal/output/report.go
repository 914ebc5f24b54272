package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/pmgen/internal/types"
	"github.com/temirov/pmgen/internal/utils"
)

const (
	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"

	xmlHeader            = xml.Header
	rawRootFormat        = "Root: %s\n"
	rawFilesHeaderFormat = "Files (%d):\n"
	rawFileFormat        = "  %s (%s)\n"
	rawFileTokensFormat  = "  %s (%s, %d tokens)\n"
	rawSkippedHeader     = "Skipped (%d):\n"
	rawSkippedFormat     = "  %s: %s\n"
	rawSkippedDetail     = "  %s: %s (%s)\n"
	rawSummaryFormat     = "Summary: %d files, %s"
	rawSummaryTokens     = ", %d tokens"
	rawSummaryModel      = " (%s)"
	errorUnknownFormat   = "unsupported report format %q"
)

// ReportOptions controls scan report rendering.
type ReportOptions struct {
	Format string
	// IncludeTokens renders per-file and total token counts.
	IncludeTokens bool
	// Model names the tokenizer that produced the counts.
	Model string
}

type reportSummary struct {
	Files  int    `json:"files" xml:"files"`
	Bytes  int64  `json:"bytes" xml:"bytes"`
	Size   string `json:"size" xml:"size"`
	Tokens int    `json:"tokens,omitempty" xml:"tokens,omitempty"`
	Model  string `json:"model,omitempty" xml:"model,omitempty"`
}

type jsonReport struct {
	Root    string              `json:"root"`
	Files   []types.SourceFile  `json:"files"`
	Skipped []types.SkippedFile `json:"skipped"`
	Summary reportSummary       `json:"summary"`
}

type xmlFile struct {
	Path   string `xml:"path,attr"`
	Size   int64  `xml:"size,attr"`
	Tokens int    `xml:"tokens,attr,omitempty"`
}

type xmlSkipped struct {
	Path   string `xml:"path,attr"`
	Reason string `xml:"reason,attr"`
	Detail string `xml:"detail,attr,omitempty"`
}

type xmlReport struct {
	XMLName xml.Name      `xml:"scan"`
	Root    string        `xml:"root,attr"`
	Files   []xmlFile     `xml:"files>file"`
	Skipped []xmlSkipped  `xml:"skipped>file"`
	Summary reportSummary `xml:"summary"`
}

// RenderScanReport writes the selected and skipped files of result to writer.
func RenderScanReport(writer io.Writer, result types.ScanResult, options ReportOptions) error {
	summary := reportSummary{
		Files: len(result.Files),
		Bytes: result.TotalBytes(),
		Size:  utils.FormatFileSize(result.TotalBytes()),
	}
	if options.IncludeTokens {
		summary.Tokens = result.TotalTokens()
		summary.Model = options.Model
	}

	switch strings.ToLower(strings.TrimSpace(options.Format)) {
	case "", FormatRaw:
		return renderRawReport(writer, result, summary, options.IncludeTokens)
	case FormatJSON:
		return renderJSONReport(writer, result, summary, options.IncludeTokens)
	case FormatXML:
		return renderXMLReport(writer, result, summary, options.IncludeTokens)
	default:
		return fmt.Errorf(errorUnknownFormat, options.Format)
	}
}

func renderRawReport(writer io.Writer, result types.ScanResult, summary reportSummary, includeTokens bool) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, rawRootFormat, result.Root)
	fmt.Fprintf(&builder, rawFilesHeaderFormat, len(result.Files))
	for _, file := range result.Files {
		if includeTokens {
			fmt.Fprintf(&builder, rawFileTokensFormat, file.RelativePath, utils.FormatFileSize(file.SizeBytes), file.Tokens)
			continue
		}
		fmt.Fprintf(&builder, rawFileFormat, file.RelativePath, utils.FormatFileSize(file.SizeBytes))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(&builder, rawSkippedHeader, len(result.Skipped))
		for _, skipped := range result.Skipped {
			if skipped.Detail != "" {
				fmt.Fprintf(&builder, rawSkippedDetail, skipped.RelativePath, skipped.Reason, skipped.Detail)
				continue
			}
			fmt.Fprintf(&builder, rawSkippedFormat, skipped.RelativePath, skipped.Reason)
		}
	}
	fmt.Fprintf(&builder, rawSummaryFormat, summary.Files, summary.Size)
	if includeTokens {
		fmt.Fprintf(&builder, rawSummaryTokens, summary.Tokens)
		if summary.Model != "" {
			fmt.Fprintf(&builder, rawSummaryModel, summary.Model)
		}
	}
	builder.WriteString("\n")
	_, writeError := io.WriteString(writer, builder.String())
	return writeError
}

func renderJSONReport(writer io.Writer, result types.ScanResult, summary reportSummary, includeTokens bool) error {
	files := make([]types.SourceFile, len(result.Files))
	copy(files, result.Files)
	if !includeTokens {
		for fileIndex := range files {
			files[fileIndex].Tokens = 0
		}
	}
	skipped := result.Skipped
	if skipped == nil {
		skipped = []types.SkippedFile{}
	}
	encoded, encodeError := json.MarshalIndent(jsonReport{Root: result.Root, Files: files, Skipped: skipped, Summary: summary}, indentPrefix, indentSpacer)
	if encodeError != nil {
		return encodeError
	}
	_, writeError := fmt.Fprintln(writer, string(encoded))
	return writeError
}

func renderXMLReport(writer io.Writer, result types.ScanResult, summary reportSummary, includeTokens bool) error {
	report := xmlReport{Root: result.Root, Summary: summary}
	for _, file := range result.Files {
		entry := xmlFile{Path: file.RelativePath, Size: file.SizeBytes}
		if includeTokens {
			entry.Tokens = file.Tokens
		}
		report.Files = append(report.Files, entry)
	}
	for _, skipped := range result.Skipped {
		report.Skipped = append(report.Skipped, xmlSkipped{Path: skipped.RelativePath, Reason: string(skipped.Reason), Detail: skipped.Detail})
	}
	encoded, encodeError := xml.MarshalIndent(report, indentPrefix, indentSpacer)
	if encodeError != nil {
		return encodeError
	}
	_, writeError := fmt.Fprintln(writer, xmlHeader+string(encoded))
	return writeError
}
