// Package strip removes comments from source files before they enter a prompt.
package strip

import (
	"bytes"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const warnStripFailedMessage = "comment stripping failed, content left unchanged"

// Stripper removes comment nodes from supported source files.
type Stripper struct {
	logger *zap.Logger
}

// NewStripper constructs a Stripper. A nil logger discards warnings.
func NewStripper(logger *zap.Logger) *Stripper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stripper{logger: logger}
}

// Transform strips comments when the file type is supported and logs a
// warning when a supported file fails to parse.
func (stripper *Stripper) Transform(path string, content []byte) []byte {
	stripped, ok := stripper.Strip(path, content)
	if !ok && stripper.Supports(path) {
		stripper.logger.Warn(warnStripFailedMessage, zap.String("path", path))
	}
	return stripped
}

type byteRange struct {
	start int
	end   int
}

func extensionOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func isLineBlank(character byte) bool {
	return character == ' ' || character == '\t'
}

// removeRanges deletes the ordered, non-overlapping ranges from source. A
// range that is alone on its line takes the whole line with it; a range that
// ends a line takes the blanks before it.
func removeRanges(source []byte, ranges []byteRange) []byte {
	var output bytes.Buffer
	output.Grow(len(source))
	cursor := 0
	for _, current := range ranges {
		start, end := current.start, current.end
		if end > start && source[end-1] == '\n' {
			end--
		}
		if start < cursor || end > len(source) || start >= end {
			continue
		}

		lineStart := start
		for lineStart > cursor && isLineBlank(source[lineStart-1]) {
			lineStart--
		}
		lineEnd := end
		for lineEnd < len(source) && isLineBlank(source[lineEnd]) {
			lineEnd++
		}
		startsLine := lineStart == 0 || source[lineStart-1] == '\n'
		endsLine := lineEnd == len(source) || source[lineEnd] == '\n' || source[lineEnd] == '\r'

		switch {
		case startsLine && endsLine:
			output.Write(source[cursor:lineStart])
			if lineEnd < len(source) && source[lineEnd] == '\r' {
				lineEnd++
			}
			if lineEnd < len(source) && source[lineEnd] == '\n' {
				lineEnd++
			}
			cursor = lineEnd
		case endsLine:
			output.Write(source[cursor:lineStart])
			cursor = lineEnd
		default:
			output.Write(source[cursor:start])
			cursor = end
		}
	}
	output.Write(source[cursor:])
	return output.Bytes()
}
