package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	outputDirectoryPermissions = 0o755
	outputFilePermissions      = 0o644
	temporaryFilePattern       = ".pmgen-*.tmp"

	errorResolvePathFormat    = "resolve output path %s: %w"
	errorFormatDocumentFormat = "format document: %w"
	errorExistsFormat         = "%w: %s (use --force to overwrite)"
	errorIsDirectoryFormat    = "output path %s is a directory"
	errorCreateDirFormat      = "create output directory %s: %w"
	errorTemporaryFileFormat  = "create temporary file in %s: %w"
	errorWriteFormat          = "write %s: %w"
	errorRenameFormat         = "replace %s: %w"
)

// ErrOutputExists is returned when the output file exists and overwriting was not requested.
var ErrOutputExists = errors.New("output file already exists")

// WriteOptions controls how Write persists a document.
type WriteOptions struct {
	// Force replaces an existing file.
	Force bool
	// Formatter rewrites the document first. Nil writes it unchanged.
	Formatter Formatter
}

// Write formats document and stores it at path through a temporary file in
// the same directory, so readers never observe a partial file. It returns the
// absolute path written.
func Write(path string, document []byte, options WriteOptions) (string, error) {
	absolutePath, absolutePathError := filepath.Abs(path)
	if absolutePathError != nil {
		return "", fmt.Errorf(errorResolvePathFormat, path, absolutePathError)
	}

	formatter := options.Formatter
	if formatter == nil {
		formatter = PassthroughFormatter{}
	}
	formatted, formatError := formatter.Format(document)
	if formatError != nil {
		return "", fmt.Errorf(errorFormatDocumentFormat, formatError)
	}

	if existingInfo, statError := os.Stat(absolutePath); statError == nil {
		if existingInfo.IsDir() {
			return "", fmt.Errorf(errorIsDirectoryFormat, absolutePath)
		}
		if !options.Force {
			return "", fmt.Errorf(errorExistsFormat, ErrOutputExists, absolutePath)
		}
	}

	directory := filepath.Dir(absolutePath)
	if makeDirectoryError := os.MkdirAll(directory, outputDirectoryPermissions); makeDirectoryError != nil {
		return "", fmt.Errorf(errorCreateDirFormat, directory, makeDirectoryError)
	}

	temporaryFile, temporaryError := os.CreateTemp(directory, temporaryFilePattern)
	if temporaryError != nil {
		return "", fmt.Errorf(errorTemporaryFileFormat, directory, temporaryError)
	}
	temporaryPath := temporaryFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(temporaryPath)
		}
	}()

	if _, writeError := temporaryFile.Write(formatted); writeError != nil {
		_ = temporaryFile.Close()
		return "", fmt.Errorf(errorWriteFormat, temporaryPath, writeError)
	}
	if chmodError := temporaryFile.Chmod(outputFilePermissions); chmodError != nil {
		_ = temporaryFile.Close()
		return "", fmt.Errorf(errorWriteFormat, temporaryPath, chmodError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return "", fmt.Errorf(errorWriteFormat, temporaryPath, closeError)
	}
	if renameError := os.Rename(temporaryPath, absolutePath); renameError != nil {
		return "", fmt.Errorf(errorRenameFormat, absolutePath, renameError)
	}
	committed = true
	return absolutePath, nil
}
