package credentials

import (
	"errors"
	"testing"
)

type failingSource struct{}

func (failingSource) APIKey() (string, error) { return "", errors.New("keychain locked") }

func TestSources(testingHandle *testing.T) {
	testingHandle.Setenv(DefaultEnvironmentVariable, " default-key ")
	testingHandle.Setenv("PMGEN_TEST_KEY", "custom-key")
	testingHandle.Setenv("PMGEN_BLANK_KEY", "   ")

	testCases := []struct {
		name          string
		source        Source
		expectedKey   string
		expectedError error
	}{
		{name: "default variable", source: EnvSource{}, expectedKey: "default-key"},
		{name: "custom variable", source: EnvSource{Variable: "PMGEN_TEST_KEY"}, expectedKey: "custom-key"},
		{name: "blank variable", source: EnvSource{Variable: "PMGEN_BLANK_KEY"}, expectedError: ErrNotFound},
		{name: "static", source: StaticSource("literal"), expectedKey: "literal"},
		{name: "empty static", source: StaticSource(""), expectedError: ErrNotFound},
		{
			name:        "chain falls through",
			source:      Chain{StaticSource(""), nil, EnvSource{Variable: "PMGEN_BLANK_KEY"}, EnvSource{Variable: "PMGEN_TEST_KEY"}},
			expectedKey: "custom-key",
		},
		{name: "chain exhausted", source: Chain{StaticSource("")}, expectedError: ErrNotFound},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingInstance *testing.T) {
			key, keyError := testCase.source.APIKey()
			if testCase.expectedError != nil {
				if !errors.Is(keyError, testCase.expectedError) {
					testingInstance.Fatalf("expected %v, got %v", testCase.expectedError, keyError)
				}
				return
			}
			if keyError != nil {
				testingInstance.Fatalf("unexpected error: %v", keyError)
			}
			if key != testCase.expectedKey {
				testingInstance.Fatalf("APIKey() = %q, want %q", key, testCase.expectedKey)
			}
		})
	}
}

func TestChainStopsOnHardFailure(testingHandle *testing.T) {
	_, keyError := Chain{failingSource{}, StaticSource("unused")}.APIKey()
	if keyError == nil || errors.Is(keyError, ErrNotFound) {
		testingHandle.Fatalf("expected the source failure to surface, got %v", keyError)
	}
}
