// Package prompt assembles scanned source files into a single completion prompt.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/temirov/pmgen/internal/tokenizer"
	"github.com/temirov/pmgen/internal/types"
)

// DefaultInstruction asks the model for a Postman collection describing the project's HTTP API.
const DefaultInstruction = `You are given the source code of a software project. Identify every HTTP endpoint it exposes, including method, path, path and query parameters, headers, and request and response bodies where they can be inferred. Produce a Postman Collection v2.1 JSON document that describes all of these endpoints, grouped into folders by resource. Use {{baseUrl}} as the host variable. Output only the JSON document with no commentary.`

const (
	projectLineFormat     = "Project: %s\n"
	fileHeaderFormat      = "File: %s\n"
	fileFooterFormat      = "\nEnd of file: %s\n"
	fileSeparatorWidth    = 40
	fileSeparatorRune     = "-"
	errorCountFormat      = "count prompt tokens: %w"
	errorTooLargeFormat   = "%w: %d tokens exceeds limit of %d"
	errorInstructionRead  = "read instruction file %s: %w"
	errorInstructionEmpty = "instruction file %s is empty"
)

var (
	// ErrNoFiles is returned when the scan selected nothing to send.
	ErrNoFiles = errors.New("no source files selected")
	// ErrPromptTooLarge is returned when the prompt exceeds the configured token budget.
	ErrPromptTooLarge = errors.New("prompt exceeds token budget")
)

var fileSeparator = strings.Repeat(fileSeparatorRune, fileSeparatorWidth) + "\n"

// Options configures prompt assembly.
type Options struct {
	// Instruction leads the prompt. Empty uses DefaultInstruction.
	Instruction string
	// ProjectName is announced after the instruction when not empty.
	ProjectName string
	// MaxTokens rejects larger prompts when positive and Counter is set.
	MaxTokens int
	Counter   tokenizer.Counter
}

// Prompt is the assembled text with its statistics.
type Prompt struct {
	Text   string
	Files  int
	Tokens int
}

// Assemble renders the instruction followed by every file of result in scan order.
func Assemble(result types.ScanResult, options Options) (Prompt, error) {
	if len(result.Files) == 0 {
		return Prompt{}, ErrNoFiles
	}

	instruction := strings.TrimSpace(options.Instruction)
	if instruction == "" {
		instruction = DefaultInstruction
	}

	var builder strings.Builder
	builder.Grow(len(instruction) + int(result.TotalBytes()) + len(result.Files)*(2*fileSeparatorWidth))
	builder.WriteString(instruction)
	builder.WriteString("\n\n")
	if projectName := strings.TrimSpace(options.ProjectName); projectName != "" {
		fmt.Fprintf(&builder, projectLineFormat, projectName)
		builder.WriteString("\n")
	}
	for _, file := range result.Files {
		fmt.Fprintf(&builder, fileHeaderFormat, file.RelativePath)
		builder.WriteString(file.Content)
		fmt.Fprintf(&builder, fileFooterFormat, file.RelativePath)
		builder.WriteString(fileSeparator)
	}

	assembled := Prompt{Text: builder.String(), Files: len(result.Files)}
	if options.Counter == nil {
		return assembled, nil
	}

	tokens, countError := options.Counter.CountString(assembled.Text)
	if countError != nil {
		return Prompt{}, fmt.Errorf(errorCountFormat, countError)
	}
	assembled.Tokens = tokens
	if options.MaxTokens > 0 && tokens > options.MaxTokens {
		return assembled, fmt.Errorf(errorTooLargeFormat, ErrPromptTooLarge, tokens, options.MaxTokens)
	}
	return assembled, nil
}

// ResolveInstruction returns the instruction file's content when path is set,
// the inline instruction otherwise.
func ResolveInstruction(inline string, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return inline, nil
	}
	// #nosec G304
	content, readError := os.ReadFile(path)
	if readError != nil {
		return "", fmt.Errorf(errorInstructionRead, path, readError)
	}
	instruction := strings.TrimSpace(string(content))
	if instruction == "" {
		return "", fmt.Errorf(errorInstructionEmpty, path)
	}
	return instruction, nil
}
