package tokenizer

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/temirov/pmgen/internal/types"
	"github.com/temirov/pmgen/internal/utils"
)

var errNilCounter = errors.New("nil tokenizer counter")

const errorCountFileFormat = "count tokens for %s: %w"

// CountResult captures the outcome of counting a byte slice.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountBytes counts tokens in data. Binary or invalid UTF-8 data is reported
// as not counted, and empty data counts as zero tokens.
func CountBytes(counter Counter, data []byte) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	if len(data) == 0 {
		return CountResult{Counted: true}, nil
	}
	if utils.IsBinary(data) || !utf8.Valid(data) {
		return CountResult{}, nil
	}
	tokens, countError := counter.CountString(string(data))
	if countError != nil {
		return CountResult{}, countError
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}

// CountFiles stores the token count of every file's content in its Tokens
// field and returns the total.
func CountFiles(counter Counter, files []types.SourceFile) (int, error) {
	total := 0
	for fileIndex := range files {
		counted, countError := CountBytes(counter, []byte(files[fileIndex].Content))
		if countError != nil {
			return 0, fmt.Errorf(errorCountFileFormat, files[fileIndex].RelativePath, countError)
		}
		files[fileIndex].Tokens = counted.Tokens
		total += counted.Tokens
	}
	return total, nil
}
