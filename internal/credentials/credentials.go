// Package credentials resolves the API key used for the completion service.
package credentials

import (
	"errors"
	"os"
	"strings"
)

// DefaultEnvironmentVariable holds the API key when no other variable is configured.
const DefaultEnvironmentVariable = "OPENAI_API_KEY"

// ErrNotFound is returned when no source yields a key.
var ErrNotFound = errors.New("api key not found")

// Source yields an API key.
type Source interface {
	APIKey() (string, error)
}

// EnvSource reads the key from an environment variable.
type EnvSource struct {
	Variable string
}

// APIKey returns the trimmed value of the variable or ErrNotFound when it is unset or blank.
func (source EnvSource) APIKey() (string, error) {
	variable := strings.TrimSpace(source.Variable)
	if variable == "" {
		variable = DefaultEnvironmentVariable
	}
	value := strings.TrimSpace(os.Getenv(variable))
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// StaticSource wraps a literal key.
type StaticSource string

// APIKey returns the literal key or ErrNotFound when it is blank.
func (source StaticSource) APIKey() (string, error) {
	value := strings.TrimSpace(string(source))
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Chain tries each source in order and returns the first key found.
type Chain []Source

// APIKey returns the first key found. Errors other than ErrNotFound stop the search.
func (chain Chain) APIKey() (string, error) {
	for _, source := range chain {
		if source == nil {
			continue
		}
		value, sourceError := source.APIKey()
		if sourceError == nil {
			return value, nil
		}
		if !errors.Is(sourceError, ErrNotFound) {
			return "", sourceError
		}
	}
	return "", ErrNotFound
}
