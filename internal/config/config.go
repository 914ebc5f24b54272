// Package config loads ignore files and the application configuration file.
package config

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/pmgen/internal/utils"
)

const (
	// gitDirectoryPattern represents the pattern that matches the Git directory.
	gitDirectoryPattern = utils.GitDirectoryName + "/"
	// binarySectionHeader identifies a section of an .ignore file that pmgen does not use.
	binarySectionHeader = "[binary]"
	// ignoreSectionHeader identifies the section listing ignore patterns.
	ignoreSectionHeader = "[ignore]"
	// negationPrefix marks gitignore re-include patterns, which are not supported.
	negationPrefix = "!"
	// anchorPrefix marks a gitignore pattern anchored to its own directory.
	anchorPrefix = "/"
)

// LoadIgnoreFilePatterns reads a specified ignore file and returns its ignore patterns.
// A missing file yields no patterns and no error. Blank lines, comments,
// negated patterns, and lines under a [binary] section are skipped.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer fileHandle.Close()

	var ignorePatterns []string
	currentSectionHeader := ignoreSectionHeader
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") || strings.HasPrefix(trimmedLine, negationPrefix) {
			continue
		}
		if strings.EqualFold(trimmedLine, binarySectionHeader) {
			currentSectionHeader = binarySectionHeader
			continue
		}
		if strings.EqualFold(trimmedLine, ignoreSectionHeader) {
			currentSectionHeader = ignoreSectionHeader
			continue
		}
		if currentSectionHeader == binarySectionHeader {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// IgnoreLoadOptions selects which ignore sources are aggregated.
type IgnoreLoadOptions struct {
	ExclusionPatterns []string
	UseGitignore      bool
	UseIgnoreFile     bool
	IncludeGit        bool
}

// LoadRecursiveIgnorePatterns walks rootDirectoryPath and aggregates ignore patterns.
// Patterns from utils.IgnoreFileName and utils.GitIgnoreFileName in each nested directory are prefixed with that directory's
// path relative to rootDirectoryPath. A pattern starting with a slash is anchored to the directory holding its ignore
// file. The directory named utils.GitDirectoryName is ignored unless IncludeGit is set. ExclusionPatterns are appended
// to the result verbatim.
func LoadRecursiveIgnorePatterns(rootDirectoryPath string, options IgnoreLoadOptions) ([]string, error) {
	var aggregatedPatterns []string

	walkFunction := func(currentDirectoryPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if directoryEntry != nil && directoryEntry.IsDir() && currentDirectoryPath != rootDirectoryPath {
				return filepath.SkipDir
			}
			return walkError
		}
		if !directoryEntry.IsDir() {
			return nil
		}
		if !options.IncludeGit && directoryEntry.Name() == utils.GitDirectoryName {
			return filepath.SkipDir
		}

		relativeDirectory := utils.RelativePathOrSelf(currentDirectoryPath, rootDirectoryPath)
		prefix := ""
		if relativeDirectory != "." {
			prefix = relativeDirectory + "/"
		}

		var sources []string
		if options.UseIgnoreFile {
			sources = append(sources, utils.IgnoreFileName)
		}
		if options.UseGitignore {
			sources = append(sources, utils.GitIgnoreFileName)
		}
		for _, sourceName := range sources {
			ignoreFilePath := filepath.Join(currentDirectoryPath, sourceName)
			ignorePatterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
			if loadError != nil {
				return fmt.Errorf("loading %s from %s: %w", sourceName, currentDirectoryPath, loadError)
			}
			for _, pattern := range ignorePatterns {
				aggregatedPatterns = append(aggregatedPatterns, scopePattern(prefix, pattern))
			}
		}
		return nil
	}

	if walkError := filepath.WalkDir(rootDirectoryPath, walkFunction); walkError != nil {
		return nil, walkError
	}

	if !options.IncludeGit {
		aggregatedPatterns = append(aggregatedPatterns, gitDirectoryPattern)
	}

	deduplicatedPatterns := utils.DeduplicatePatterns(aggregatedPatterns)

	for _, pattern := range options.ExclusionPatterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if !utils.ContainsString(deduplicatedPatterns, trimmedPattern) {
			deduplicatedPatterns = append(deduplicatedPatterns, trimmedPattern)
		}
	}

	return deduplicatedPatterns, nil
}

// scopePattern rewrites a pattern read in a nested directory so it is evaluated relative to the scan root.
func scopePattern(prefix string, pattern string) string {
	if strings.HasPrefix(pattern, anchorPrefix) {
		return utils.ExclusionPrefix + prefix + strings.TrimPrefix(pattern, anchorPrefix)
	}
	return prefix + pattern
}
