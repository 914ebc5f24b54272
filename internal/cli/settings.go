package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/pmgen/internal/completion"
	"github.com/temirov/pmgen/internal/config"
	"github.com/temirov/pmgen/internal/credentials"
	"github.com/temirov/pmgen/internal/pipeline"
	"github.com/temirov/pmgen/internal/prompt"
)

const (
	extensionFlagName        = "ext"
	exclusionFlagName        = "e"
	maxFileSizeFlagName      = "max-file-size"
	maxDepthFlagName         = "max-depth"
	hiddenFlagName           = "hidden"
	noGitignoreFlagName      = "no-gitignore"
	noIgnoreFlagName         = "no-ignore"
	stripCommentsFlagName    = "strip-comments"
	instructionFlagName      = "instruction"
	instructionFileFlagName  = "instruction-file"
	maxPromptTokensFlagName  = "max-prompt-tokens"
	tokenizerModelFlagName   = "tokenizer-model"
	modeFlagName             = "mode"
	modelFlagName            = "model"
	maxTokensFlagName        = "max-tokens"
	temperatureFlagName      = "temperature"
	baseURLFlagName          = "base-url"
	apiKeyEnvFlagName        = "api-key-env"
	timeoutFlagName          = "timeout"
	outputFlagName           = "output"
	outputFlagShorthand      = "o"
	forceFlagName            = "force"
	rawFlagName              = "raw"
	dryRunFlagName           = "dry-run"
	promptOutFlagName        = "prompt-out"
	copyFlagName             = "copy"
	allExtensionsLiteral     = "*"
	defaultMaxFileSize       = int64(256 * 1024)
	defaultOutputPath        = "postman_collection.json"
	extensionFlagDescription = "file extension to include, repeatable; '*' selects every extension"
	exclusionFlagDescription = "exclude path pattern, repeatable"
	maxFileSizeDescription   = "skip files larger than this many bytes (0 disables the limit)"
	maxDepthDescription      = "limit recursion depth, files directly under the root have depth 1 (0 is unlimited)"
	hiddenDescription        = "include dot-prefixed files and directories"
	noGitignoreDescription   = "do not use .gitignore"
	noIgnoreDescription      = "do not use .ignore"
	stripCommentsDescription = "remove comments from Go, JavaScript, TypeScript and Python files"
	instructionDescription   = "instruction placed before the source files"
	instructionFileDesc      = "read the instruction from this file"
	maxPromptTokensDesc      = "fail when the prompt exceeds this many tokens (0 disables the check)"
	tokenizerModelDesc       = "model whose tokenizer counts prompt tokens (defaults to the completion model)"
	modeDescription          = "completion endpoint: chat or completion"
	modelDescription         = "model name sent to the completion endpoint (default gpt-4o for chat, gpt-3.5-turbo-instruct for completion)"
	maxTokensDescription     = "maximum tokens in the completion"
	temperatureDescription   = "sampling temperature"
	baseURLDescription       = "base URL of the OpenAI compatible API"
	apiKeyEnvDescription     = "environment variable holding the API key"
	timeoutDescription       = "timeout of the completion request"
	outputDescription        = "file the generated document is written to"
	forceDescription         = "overwrite existing output files"
	rawDescription           = "write the answer as received instead of re-indenting JSON"
	dryRunDescription        = "assemble the prompt without calling the completion endpoint"
	promptOutDescription     = "also write the assembled prompt to this file"
	copyDescription          = "copy the generated document to the clipboard"
)

var defaultExtensions = []string{".go", ".js", ".ts", ".py", ".rb", ".java", ".kt", ".php", ".cs", ".rs"}

type scanFlags struct {
	extensions       []string
	exclusions       []string
	maxFileSize      int64
	maxDepth         int
	includeHidden    bool
	disableGitignore bool
	disableIgnore    bool
	stripComments    bool
}

type promptFlags struct {
	instruction     string
	instructionFile string
	maxPromptTokens int
	tokenizerModel  string
}

type completionFlags struct {
	mode        string
	model       string
	maxTokens   int
	temperature float64
	baseURL     string
	apiKeyEnv   string
	timeout     time.Duration
}

type outputFlags struct {
	outputPath string
	force      bool
	raw        bool
	dryRun     bool
	promptOut  string
	copy       bool
}

func addScanFlags(command *cobra.Command, flags *scanFlags) {
	flagSet := command.Flags()
	flagSet.StringArrayVar(&flags.extensions, extensionFlagName, nil, extensionFlagDescription)
	flagSet.StringArrayVarP(&flags.exclusions, exclusionFlagName, exclusionFlagName, nil, exclusionFlagDescription)
	flagSet.Int64Var(&flags.maxFileSize, maxFileSizeFlagName, defaultMaxFileSize, maxFileSizeDescription)
	flagSet.IntVar(&flags.maxDepth, maxDepthFlagName, 0, maxDepthDescription)
	registerSwitch(flagSet, &flags.includeHidden, hiddenFlagName, hiddenDescription)
	registerSwitch(flagSet, &flags.disableGitignore, noGitignoreFlagName, noGitignoreDescription)
	registerSwitch(flagSet, &flags.disableIgnore, noIgnoreFlagName, noIgnoreDescription)
	registerSwitch(flagSet, &flags.stripComments, stripCommentsFlagName, stripCommentsDescription)
}

func addPromptFlags(command *cobra.Command, flags *promptFlags) {
	flagSet := command.Flags()
	flagSet.StringVar(&flags.instruction, instructionFlagName, "", instructionDescription)
	flagSet.StringVar(&flags.instructionFile, instructionFileFlagName, "", instructionFileDesc)
	flagSet.IntVar(&flags.maxPromptTokens, maxPromptTokensFlagName, 0, maxPromptTokensDesc)
	flagSet.StringVar(&flags.tokenizerModel, tokenizerModelFlagName, "", tokenizerModelDesc)
}

func addCompletionFlags(command *cobra.Command, flags *completionFlags) {
	flagSet := command.Flags()
	flagSet.StringVar(&flags.mode, modeFlagName, string(completion.DefaultMode), modeDescription)
	flagSet.StringVar(&flags.model, modelFlagName, "", modelDescription)
	flagSet.IntVar(&flags.maxTokens, maxTokensFlagName, completion.DefaultMaxTokens, maxTokensDescription)
	flagSet.Float64Var(&flags.temperature, temperatureFlagName, float64(completion.DefaultTemperature), temperatureDescription)
	flagSet.StringVar(&flags.baseURL, baseURLFlagName, completion.DefaultBaseURL, baseURLDescription)
	flagSet.StringVar(&flags.apiKeyEnv, apiKeyEnvFlagName, credentials.DefaultEnvironmentVariable, apiKeyEnvDescription)
	flagSet.DurationVar(&flags.timeout, timeoutFlagName, completion.DefaultTimeout, timeoutDescription)
}

func addOutputFlags(command *cobra.Command, flags *outputFlags) {
	flagSet := command.Flags()
	flagSet.StringVarP(&flags.outputPath, outputFlagName, outputFlagShorthand, defaultOutputPath, outputDescription)
	flagSet.StringVar(&flags.promptOut, promptOutFlagName, "", promptOutDescription)
	registerSwitch(flagSet, &flags.force, forceFlagName, forceDescription)
	registerSwitch(flagSet, &flags.raw, rawFlagName, rawDescription)
	registerSwitch(flagSet, &flags.dryRun, dryRunFlagName, dryRunDescription)
	registerSwitch(flagSet, &flags.copy, copyFlagName, copyDescription)
}

// resolveScanOptions fills the traversal part of pipeline.Options.
func resolveScanOptions(flagSet *pflag.FlagSet, flags scanFlags, configuration config.ScanConfiguration, root string) pipeline.Options {
	extensions := resolveSetting(flagSet, extensionFlagName, flags.extensions, optionalStrings(configuration.Extensions), defaultExtensions)
	exclusions := configuration.Exclude
	if flagSet.Changed(exclusionFlagName) {
		exclusions = append(append([]string{}, configuration.Exclude...), flags.exclusions...)
	}
	return pipeline.Options{
		Root:            root,
		Extensions:      normalizeExtensionList(extensions),
		ExcludePatterns: exclusions,
		MaxFileSize:     resolveSetting(flagSet, maxFileSizeFlagName, flags.maxFileSize, configuration.MaxFileSize, defaultMaxFileSize),
		MaxDepth:        resolveSetting(flagSet, maxDepthFlagName, flags.maxDepth, configuration.MaxDepth, 0),
		IncludeHidden:   resolveSetting(flagSet, hiddenFlagName, flags.includeHidden, configuration.IncludeHidden, false),
		UseGitignore:    !resolveSetting(flagSet, noGitignoreFlagName, flags.disableGitignore, invertedOptional(configuration.UseGitignore), false),
		UseIgnoreFile:   !resolveSetting(flagSet, noIgnoreFlagName, flags.disableIgnore, invertedOptional(configuration.UseIgnoreFile), false),
		StripComments:   resolveSetting(flagSet, stripCommentsFlagName, flags.stripComments, configuration.StripComments, false),
	}
}

// resolvePromptOptions adds instruction and budget settings to options.
func resolvePromptOptions(flagSet *pflag.FlagSet, flags promptFlags, configuration config.PromptConfiguration, options *pipeline.Options) error {
	inline := resolveSetting(flagSet, instructionFlagName, flags.instruction, optionalString(configuration.Instruction), "")
	instructionFile := resolveSetting(flagSet, instructionFileFlagName, flags.instructionFile, optionalString(configuration.InstructionFile), "")
	if flagSet.Changed(instructionFlagName) && !flagSet.Changed(instructionFileFlagName) {
		instructionFile = ""
	}
	instruction, instructionError := prompt.ResolveInstruction(inline, instructionFile)
	if instructionError != nil {
		return instructionError
	}
	options.Instruction = instruction
	options.MaxPromptTokens = resolveSetting(flagSet, maxPromptTokensFlagName, flags.maxPromptTokens, configuration.MaxTokens, 0)
	return nil
}

// resolveTokenizerModel picks the tokenizer model, defaulting to the completion model.
func resolveTokenizerModel(flagSet *pflag.FlagSet, flagValue string, configured string, completionModel string) string {
	return resolveSetting(flagSet, tokenizerModelFlagName, flagValue, optionalString(configured), completionModel)
}

// resolveCompletionConfig builds the client configuration without the API key.
func resolveCompletionConfig(flagSet *pflag.FlagSet, flags completionFlags, configuration config.CompletionConfiguration) (completion.Config, string) {
	temperature := resolveSetting(flagSet, temperatureFlagName, flags.temperature, configuration.Temperature, float64(completion.DefaultTemperature))
	apiKeyVariable := resolveSetting(flagSet, apiKeyEnvFlagName, flags.apiKeyEnv, optionalString(configuration.APIKeyEnv), credentials.DefaultEnvironmentVariable)
	mode := completion.Mode(strings.ToLower(resolveSetting(flagSet, modeFlagName, flags.mode, optionalString(configuration.Mode), string(completion.DefaultMode))))
	return completion.Config{
		BaseURL:     resolveSetting(flagSet, baseURLFlagName, flags.baseURL, optionalString(configuration.BaseURL), completion.DefaultBaseURL),
		Mode:        mode,
		Model:       resolveSetting(flagSet, modelFlagName, flags.model, optionalString(configuration.Model), completion.DefaultModelFor(mode)),
		MaxTokens:   resolveSetting(flagSet, maxTokensFlagName, flags.maxTokens, configuration.MaxTokens, completion.DefaultMaxTokens),
		Temperature: float32(temperature),
		Timeout:     resolveSetting(flagSet, timeoutFlagName, flags.timeout, optionalDuration(configuration.Timeout), completion.DefaultTimeout),
	}, apiKeyVariable
}

// resolveOutputOptions adds persistence settings to options.
func resolveOutputOptions(flagSet *pflag.FlagSet, flags outputFlags, configuration config.OutputConfiguration, workingDirectory string, options *pipeline.Options) {
	options.OutputPath = resolveLocalPath(resolveSetting(flagSet, outputFlagName, flags.outputPath, optionalString(configuration.Path), defaultOutputPath), workingDirectory)
	options.PromptOutputPath = resolveLocalPath(flags.promptOut, workingDirectory)
	options.Force = resolveSetting(flagSet, forceFlagName, flags.force, configuration.Force, false)
	options.FormatJSON = !resolveSetting(flagSet, rawFlagName, flags.raw, invertedOptional(configuration.FormatJSON), false)
	options.CopyToClipboard = resolveSetting(flagSet, copyFlagName, flags.copy, configuration.Clipboard, false)
	options.DryRun = flags.dryRun
}

func normalizeExtensionList(extensions []string) []string {
	normalized := make([]string, 0, len(extensions))
	for _, extension := range extensions {
		for _, part := range strings.Split(extension, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == allExtensionsLiteral {
				return nil
			}
			if trimmed != "" {
				normalized = append(normalized, trimmed)
			}
		}
	}
	return normalized
}
