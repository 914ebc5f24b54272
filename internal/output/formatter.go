// Package output formats and persists generated documents and renders scan reports.
package output

import (
	"bytes"
	"encoding/json"
)

const (
	indentPrefix = ""
	indentSpacer = "  "
)

// Formatter rewrites a document before it is persisted.
type Formatter interface {
	Format(document []byte) ([]byte, error)
}

// JSONFormatter re-indents JSON documents with two spaces. Anything that is
// not valid JSON passes through unchanged; this is not a validator.
type JSONFormatter struct{}

// Format indents document when it is valid JSON and terminates it with a newline.
func (JSONFormatter) Format(document []byte) ([]byte, error) {
	if !json.Valid(document) {
		return withTrailingNewline(document), nil
	}
	var indented bytes.Buffer
	if indentError := json.Indent(&indented, bytes.TrimSpace(document), indentPrefix, indentSpacer); indentError != nil {
		return nil, indentError
	}
	indented.WriteByte('\n')
	return indented.Bytes(), nil
}

// PassthroughFormatter writes documents exactly as given.
type PassthroughFormatter struct{}

// Format returns document unchanged.
func (PassthroughFormatter) Format(document []byte) ([]byte, error) {
	return document, nil
}

func withTrailingNewline(document []byte) []byte {
	if len(document) == 0 || document[len(document)-1] == '\n' {
		return document
	}
	terminated := make([]byte, 0, len(document)+1)
	terminated = append(terminated, document...)
	return append(terminated, '\n')
}

var (
	_ Formatter = JSONFormatter{}
	_ Formatter = PassthroughFormatter{}
)
