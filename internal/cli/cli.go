// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pmgen/internal/completion"
	"github.com/temirov/pmgen/internal/services/clipboard"
	"github.com/temirov/pmgen/internal/tokenizer"
	"github.com/temirov/pmgen/internal/types"
	"github.com/temirov/pmgen/internal/utils"
)

const (
	configFlagName        = "config"
	verboseFlagName       = "verbose"
	verboseDescription    = "log debug messages"
	configFlagDescription = "configuration file (default ./config.yaml merged over ~/.pmgen/config.yaml)"
	versionTemplate       = "pmgen version: {{.Version}}\n"
	defaultPath           = "."
	rootUse               = utils.ApplicationName
	rootShortDescription  = "generate Postman collections from source code"
	rootLongDescription   = `pmgen scans a project's source tree, assembles the selected files into one prompt,
submits it to an OpenAI compatible completion endpoint and writes the answer to a file.
By default the answer is a Postman Collection v2.1 document describing the project's HTTP API.
Use scan to preview file selection and prompt to inspect the assembled prompt.`

	warningTokenizerFallback    = "tokenizer unavailable, estimating tokens from byte length"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	errorAbsolutePathFormat     = "abs failed for '%s': %w"
	errorPathMissingFormat      = "path '%s' does not exist"
	errorStatFormat             = "stat failed for '%s': %w"
	errorNotDirectoryFormat     = "path '%s' is not a directory"
)

// dependencies are the collaborators commands reach outside the process with.
type dependencies struct {
	logger           *zap.Logger
	clipboard        clipboard.Copier
	newCounter       func(model string) (tokenizer.Counter, string, error)
	newClient        func(configuration completion.Config) (completion.Client, error)
	workingDirectory string
}

func defaultDependencies(logger *zap.Logger) dependencies {
	if logger == nil {
		logger = zap.NewNop()
	}
	return dependencies{
		logger:    logger,
		clipboard: clipboard.NewService(),
		newCounter: func(model string) (tokenizer.Counter, string, error) {
			return tokenizer.NewCounter(tokenizer.Config{Model: model})
		},
		newClient: func(configuration completion.Config) (completion.Client, error) {
			return completion.New(configuration)
		},
	}
}

// Execute runs the pmgen application.
func Execute(ctx context.Context, logger *zap.Logger) error {
	rootCommand := createRootCommand(defaultDependencies(logger))
	rootCommand.SetArgs(normalizeSwitchArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(initialDependencies dependencies) *cobra.Command {
	var (
		configPath     string
		verboseLogging bool
	)
	applicationDependencies := &initialDependencies

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Version:       utils.GetApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if !verboseLogging {
				return nil
			}
			verboseLogger, loggerError := utils.NewVerboseApplicationLogger()
			if loggerError != nil {
				return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
			}
			applicationDependencies.logger = verboseLogger
			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.PersistentFlags().StringVar(&configPath, configFlagName, "", configFlagDescription)
	registerSwitch(rootCommand.PersistentFlags(), &verboseLogging, verboseFlagName, verboseDescription)
	rootCommand.AddCommand(
		createGenerateCommand(applicationDependencies, &configPath),
		createScanCommand(applicationDependencies, &configPath),
		createPromptCommand(applicationDependencies, &configPath),
		createInitCommand(applicationDependencies),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// counterFor returns a tokenizer for model, falling back to the byte-length
// estimator with a warning on the current logger.
func (applicationDependencies *dependencies) counterFor(model string) (tokenizer.Counter, string) {
	counter, counterName, counterError := applicationDependencies.newCounter(model)
	if counterError != nil {
		applicationDependencies.logger.Warn(warningTokenizerFallback, zap.Error(counterError))
		estimator := tokenizer.NewEstimator()
		return estimator, estimator.Name()
	}
	return counter, counterName
}

func (applicationDependencies dependencies) resolveWorkingDirectory() (string, error) {
	if applicationDependencies.workingDirectory != "" {
		return applicationDependencies.workingDirectory, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	return workingDirectory, nil
}

// resolveRoot converts the optional root argument into a validated absolute directory.
func resolveRoot(arguments []string, workingDirectory string) (types.ValidatedPath, error) {
	inputPath := defaultPath
	if len(arguments) > 0 {
		inputPath = arguments[0]
	}
	candidate := inputPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(workingDirectory, candidate)
	}
	absolutePath, absolutePathError := filepath.Abs(candidate)
	if absolutePathError != nil {
		return types.ValidatedPath{}, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
	}
	cleanPath := filepath.Clean(absolutePath)
	info, fileStatusError := os.Stat(cleanPath)
	if fileStatusError != nil {
		if os.IsNotExist(fileStatusError) {
			return types.ValidatedPath{}, fmt.Errorf(errorPathMissingFormat, inputPath)
		}
		return types.ValidatedPath{}, fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
	}
	if !info.IsDir() {
		return types.ValidatedPath{}, fmt.Errorf(errorNotDirectoryFormat, inputPath)
	}
	return types.ValidatedPath{AbsolutePath: cleanPath, IsDir: true}, nil
}

// resolveLocalPath anchors a relative output path to the working directory.
func resolveLocalPath(path string, workingDirectory string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workingDirectory, path)
}
