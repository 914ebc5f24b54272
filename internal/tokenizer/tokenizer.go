// Package tokenizer estimates prompt sizes in model tokens.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters.
type Config struct {
	Model string
}

const (
	defaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
	estimatorName       = "estimate"
	bytesPerToken       = 4
)

// NewCounter returns a tiktoken backed Counter for the requested model along
// with the name of the model or encoding it resolved to. Models without a
// dedicated encoding fall back to cl100k_base.
func NewCounter(cfg Config) (Counter, string, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	lowerModel := strings.ToLower(model)

	if isOpenAIModel(lowerModel) {
		encoding, err := tiktoken.EncodingForModel(lowerModel)
		if err == nil && encoding != nil {
			return openAICounter{encoding: encoding, name: lowerModel}, model, nil
		}
	}

	fallback, fallbackErr := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackErr != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return openAICounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}

// NewEstimator returns a Counter that approximates one token per four bytes.
// It needs no encoding data and serves when NewCounter cannot load one.
func NewEstimator() Counter {
	return estimateCounter{}
}

type estimateCounter struct{}

func (estimateCounter) Name() string {
	return estimatorName
}

func (estimateCounter) CountString(input string) (int, error) {
	if input == "" {
		return 0, nil
	}
	return (len(input) + bytesPerToken - 1) / bytesPerToken, nil
}

func isOpenAIModel(model string) bool {
	prefixes := []string{
		"gpt-",
		"o1",
		"o3",
		"o4",
		"text-embedding",
		"text-davinci",
		"davinci",
		"babbage",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
