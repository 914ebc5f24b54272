// Package scan walks a project tree and selects the source files that make up a prompt.
//
// Traversal is depth-first in pre-order. Entries of one directory are visited
// in byte-wise lexical order of their names, files and directories
// interleaved, so the same tree always yields the same file order.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/temirov/pmgen/internal/types"
	"github.com/temirov/pmgen/internal/utils"
)

const (
	errorAbsolutePathFormat  = "resolving scan root %s: %w"
	errorStatRootFormat      = "scan root %s: %w"
	errorReadDirectoryFormat = "reading directory %s: %w"
	detailNotRegular         = "not a regular file"
	detailSizeFormat         = "%s exceeds limit %s"
	directorySuffix          = "/"
)

// ErrRootNotDirectory is returned when the scan root exists but is not a directory.
var ErrRootNotDirectory = errors.New("scan root is not a directory")

// Options configures file selection and recursion.
type Options struct {
	// Root is the directory to scan.
	Root string
	// Extensions lists the accepted file extensions. Empty accepts every extension.
	Extensions []string
	// ExcludePatterns are user supplied patterns applied like ignore-file entries.
	ExcludePatterns []string
	// IgnorePatterns are root-relative patterns loaded from ignore files.
	IgnorePatterns []string
	// MaxFileSize skips files larger than this many bytes when positive.
	MaxFileSize int64
	// MaxDepth limits recursion when positive. Files directly under Root have depth 1.
	MaxDepth int
	// IncludeHidden enables dot-prefixed files and directories.
	IncludeHidden bool
}

type walker struct {
	options    Options
	root       string
	patterns   []string
	extensions map[string]struct{}
	result     *types.ScanResult
}

// Walk selects files under options.Root without reading their content.
func Walk(ctx context.Context, options Options) (types.ScanResult, error) {
	absoluteRoot, absoluteError := filepath.Abs(options.Root)
	if absoluteError != nil {
		return types.ScanResult{}, fmt.Errorf(errorAbsolutePathFormat, options.Root, absoluteError)
	}
	absoluteRoot = filepath.Clean(absoluteRoot)

	rootInfo, statError := os.Stat(absoluteRoot)
	if statError != nil {
		return types.ScanResult{}, fmt.Errorf(errorStatRootFormat, options.Root, statError)
	}
	if !rootInfo.IsDir() {
		return types.ScanResult{}, fmt.Errorf("%w: %s", ErrRootNotDirectory, absoluteRoot)
	}

	result := types.ScanResult{Root: absoluteRoot}
	scanWalker := &walker{
		options:    options,
		root:       absoluteRoot,
		patterns:   utils.DeduplicatePatterns(append(append([]string{}, options.IgnorePatterns...), options.ExcludePatterns...)),
		extensions: extensionSet(options.Extensions),
		result:     &result,
	}
	if walkError := scanWalker.walkDirectory(ctx, absoluteRoot, 0); walkError != nil {
		return types.ScanResult{}, walkError
	}
	return result, nil
}

// Scan walks options.Root and reads the selected files.
func Scan(ctx context.Context, options Options, readOptions ReadOptions) (types.ScanResult, error) {
	walked, walkError := Walk(ctx, options)
	if walkError != nil {
		return types.ScanResult{}, walkError
	}
	return Read(ctx, walked, readOptions)
}

func (scanWalker *walker) walkDirectory(ctx context.Context, directoryPath string, depth int) error {
	if contextError := ctx.Err(); contextError != nil {
		return contextError
	}

	entries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		if depth == 0 {
			return fmt.Errorf(errorReadDirectoryFormat, directoryPath, readError)
		}
		scanWalker.skip(directoryPath, true, types.SkipReasonUnreadable, readError.Error())
		return nil
	}

	childDepth := depth + 1
	for _, entry := range entries {
		childPath := filepath.Join(directoryPath, entry.Name())
		relativePath := filepath.ToSlash(utils.RelativePathOrSelf(childPath, scanWalker.root))

		if entry.Type()&fs.ModeSymlink != 0 {
			scanWalker.skip(childPath, false, types.SkipReasonSymlink, "")
			continue
		}

		if utils.ShouldIgnoreByPath(relativePath, scanWalker.patterns, entry.IsDir()) {
			if !entry.IsDir() {
				scanWalker.skip(childPath, false, types.SkipReasonIgnored, "")
			}
			continue
		}

		if !scanWalker.options.IncludeHidden && utils.IsHiddenName(entry.Name()) {
			if !entry.IsDir() {
				scanWalker.skip(childPath, false, types.SkipReasonHidden, "")
			}
			continue
		}

		if entry.IsDir() {
			if scanWalker.options.MaxDepth > 0 && childDepth >= scanWalker.options.MaxDepth {
				continue
			}
			if walkError := scanWalker.walkDirectory(ctx, childPath, childDepth); walkError != nil {
				return walkError
			}
			continue
		}

		scanWalker.considerFile(childPath, relativePath, entry)
	}
	return nil
}

func (scanWalker *walker) considerFile(filePath string, relativePath string, entry fs.DirEntry) {
	if !entry.Type().IsRegular() {
		scanWalker.skip(filePath, false, types.SkipReasonUnreadable, detailNotRegular)
		return
	}
	if !scanWalker.acceptsExtension(entry.Name()) {
		scanWalker.skip(filePath, false, types.SkipReasonExtension, "")
		return
	}

	entryInfo, infoError := entry.Info()
	if infoError != nil {
		scanWalker.skip(filePath, false, types.SkipReasonUnreadable, infoError.Error())
		return
	}
	if scanWalker.options.MaxFileSize > 0 && entryInfo.Size() > scanWalker.options.MaxFileSize {
		detail := fmt.Sprintf(detailSizeFormat, utils.FormatFileSize(entryInfo.Size()), utils.FormatFileSize(scanWalker.options.MaxFileSize))
		scanWalker.skip(filePath, false, types.SkipReasonSize, detail)
		return
	}

	isBinary, binaryError := utils.IsFileBinary(filePath)
	if binaryError != nil {
		scanWalker.skip(filePath, false, types.SkipReasonUnreadable, binaryError.Error())
		return
	}
	if isBinary {
		scanWalker.skip(filePath, false, types.SkipReasonBinary, "")
		return
	}

	scanWalker.result.Files = append(scanWalker.result.Files, types.SourceFile{
		Path:         filePath,
		RelativePath: relativePath,
		SizeBytes:    entryInfo.Size(),
	})
}

func (scanWalker *walker) acceptsExtension(name string) bool {
	if len(scanWalker.extensions) == 0 {
		return true
	}
	_, accepted := scanWalker.extensions[utils.NormalizeExtension(filepath.Ext(name))]
	return accepted
}

func (scanWalker *walker) skip(path string, isDirectory bool, reason types.SkipReason, detail string) {
	relativePath := filepath.ToSlash(utils.RelativePathOrSelf(path, scanWalker.root))
	if isDirectory {
		relativePath += directorySuffix
	}
	scanWalker.result.Skipped = append(scanWalker.result.Skipped, types.SkippedFile{
		RelativePath: relativePath,
		Reason:       reason,
		Detail:       detail,
	})
}

func extensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, extension := range extensions {
		normalized := utils.NormalizeExtension(extension)
		if normalized == utils.EmptyString {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}
