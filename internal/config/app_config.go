package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/pmgen/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds configuration defaults for every pipeline stage.
type ApplicationConfiguration struct {
	Scan       ScanConfiguration       `mapstructure:"scan"`
	Prompt     PromptConfiguration     `mapstructure:"prompt"`
	Completion CompletionConfiguration `mapstructure:"completion"`
	Output     OutputConfiguration     `mapstructure:"output"`
}

// ScanConfiguration configures file selection and traversal.
type ScanConfiguration struct {
	Extensions    []string `mapstructure:"extensions"`
	Exclude       []string `mapstructure:"exclude"`
	MaxFileSize   *int64   `mapstructure:"max_file_size"`
	MaxDepth      *int     `mapstructure:"max_depth"`
	IncludeHidden *bool    `mapstructure:"include_hidden"`
	UseGitignore  *bool    `mapstructure:"use_gitignore"`
	UseIgnoreFile *bool    `mapstructure:"use_ignore"`
	StripComments *bool    `mapstructure:"strip_comments"`
}

// PromptConfiguration configures prompt assembly.
type PromptConfiguration struct {
	Instruction     string `mapstructure:"instruction"`
	InstructionFile string `mapstructure:"instruction_file"`
	MaxTokens       *int   `mapstructure:"max_tokens"`
	TokenizerModel  string `mapstructure:"tokenizer_model"`
}

// CompletionConfiguration configures the remote completion call.
type CompletionConfiguration struct {
	Mode        string        `mapstructure:"mode"`
	Model       string        `mapstructure:"model"`
	MaxTokens   *int          `mapstructure:"max_tokens"`
	Temperature *float64      `mapstructure:"temperature"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	APIKeyEnv   string        `mapstructure:"api_key_env"`
	APIKey      string        `mapstructure:"api_key"`
}

// OutputConfiguration configures persistence of the model response.
type OutputConfiguration struct {
	Path       string `mapstructure:"path"`
	FormatJSON *bool  `mapstructure:"format_json"`
	Force      *bool  `mapstructure:"force"`
	Clipboard  *bool  `mapstructure:"clipboard"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
// Local values override global ones field by field.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	merged.Scan.Exclude = utils.DeduplicatePatterns(merged.Scan.Exclude)
	merged.Scan.Extensions = utils.DeduplicatePatterns(merged.Scan.Extensions)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName)
}

func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		reader.SetConfigType("yaml")
	}
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Scan = result.Scan.merge(override.Scan)
	result.Prompt = result.Prompt.merge(override.Prompt)
	result.Completion = result.Completion.merge(override.Completion)
	result.Output = result.Output.merge(override.Output)
	return result
}

func (config ScanConfiguration) merge(override ScanConfiguration) ScanConfiguration {
	result := config
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string{}, override.Extensions...)
	}
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	if override.MaxFileSize != nil {
		result.MaxFileSize = clonePointer(override.MaxFileSize)
	}
	if override.MaxDepth != nil {
		result.MaxDepth = clonePointer(override.MaxDepth)
	}
	if override.IncludeHidden != nil {
		result.IncludeHidden = clonePointer(override.IncludeHidden)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = clonePointer(override.UseGitignore)
	}
	if override.UseIgnoreFile != nil {
		result.UseIgnoreFile = clonePointer(override.UseIgnoreFile)
	}
	if override.StripComments != nil {
		result.StripComments = clonePointer(override.StripComments)
	}
	return result
}

func (config PromptConfiguration) merge(override PromptConfiguration) PromptConfiguration {
	result := config
	if override.Instruction != "" {
		result.Instruction = override.Instruction
	}
	if override.InstructionFile != "" {
		result.InstructionFile = override.InstructionFile
	}
	if override.MaxTokens != nil {
		result.MaxTokens = clonePointer(override.MaxTokens)
	}
	if override.TokenizerModel != "" {
		result.TokenizerModel = override.TokenizerModel
	}
	return result
}

func (config CompletionConfiguration) merge(override CompletionConfiguration) CompletionConfiguration {
	result := config
	if override.Mode != "" {
		result.Mode = override.Mode
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	if override.MaxTokens != nil {
		result.MaxTokens = clonePointer(override.MaxTokens)
	}
	if override.Temperature != nil {
		result.Temperature = clonePointer(override.Temperature)
	}
	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	if override.APIKeyEnv != "" {
		result.APIKeyEnv = override.APIKeyEnv
	}
	if override.APIKey != "" {
		result.APIKey = override.APIKey
	}
	return result
}

func (config OutputConfiguration) merge(override OutputConfiguration) OutputConfiguration {
	result := config
	if override.Path != "" {
		result.Path = override.Path
	}
	if override.FormatJSON != nil {
		result.FormatJSON = clonePointer(override.FormatJSON)
	}
	if override.Force != nil {
		result.Force = clonePointer(override.Force)
	}
	if override.Clipboard != nil {
		result.Clipboard = clonePointer(override.Clipboard)
	}
	return result
}

func clonePointer[T any](value *T) *T {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
