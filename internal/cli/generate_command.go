package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/pmgen/internal/completion"
	"github.com/temirov/pmgen/internal/config"
	"github.com/temirov/pmgen/internal/credentials"
	"github.com/temirov/pmgen/internal/pipeline"
	"github.com/temirov/pmgen/internal/tokenizer"
	"github.com/temirov/pmgen/internal/types"
)

const (
	generateAlias            = "g"
	generateUse              = types.CommandGenerate + " [root]"
	generateShortDescription = "generate a document from the project's source files"
	generateLongDescription  = `generate scans root (default: the current directory), assembles the selected files into one prompt,
submits it to the completion endpoint and writes the answer to --output.
The API key is read from the environment variable named by --api-key-env.`

	generateWrittenFormat    = "%s\n"
	generateDryRunFormat     = "dry run: %d files, %d skipped, %d prompt tokens\n"
	generateDryRunNoTokens   = "dry run: %d files, %d skipped\n"
	generatePromptPathFormat = "prompt: %s\n"
	errorLoadConfigFormat    = "load configuration: %w"
	errorCredentialsFormat   = "resolve API key from %s: %w"
)

func createGenerateCommand(applicationDependencies *dependencies, configPath *string) *cobra.Command {
	var (
		scanSettings       scanFlags
		promptSettings     promptFlags
		completionSettings completionFlags
		outputSettings     outputFlags
	)

	generateCommand := &cobra.Command{
		Use:     generateUse,
		Aliases: []string{generateAlias},
		Short:   generateShortDescription,
		Long:    generateLongDescription,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := applicationDependencies.resolveWorkingDirectory()
			if workingDirectoryError != nil {
				return workingDirectoryError
			}
			applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
				WorkingDirectory: workingDirectory,
				ExplicitFilePath: *configPath,
			})
			if configurationError != nil {
				return fmt.Errorf(errorLoadConfigFormat, configurationError)
			}
			root, rootError := resolveRoot(arguments, workingDirectory)
			if rootError != nil {
				return rootError
			}

			flagSet := command.Flags()
			options := resolveScanOptions(flagSet, scanSettings, applicationConfiguration.Scan, root.AbsolutePath)
			if promptError := resolvePromptOptions(flagSet, promptSettings, applicationConfiguration.Prompt, &options); promptError != nil {
				return promptError
			}
			resolveOutputOptions(flagSet, outputSettings, applicationConfiguration.Output, workingDirectory, &options)
			completionConfiguration, apiKeyVariable := resolveCompletionConfig(flagSet, completionSettings, applicationConfiguration.Completion)
			options.Model = completionConfiguration.Model
			options.MaxTokens = completionConfiguration.MaxTokens

			runDependencies := pipeline.Dependencies{
				Clipboard: applicationDependencies.clipboard,
				Logger:    applicationDependencies.logger,
			}
			if options.MaxPromptTokens > 0 || options.DryRun {
				tokenizerModel := resolveTokenizerModel(flagSet, promptSettings.tokenizerModel, applicationConfiguration.Prompt.TokenizerModel, completionConfiguration.Model)
				runDependencies.Counter, _ = applicationDependencies.counterFor(tokenizerModel)
			}
			if !options.DryRun {
				client, clientError := buildClient(applicationDependencies, completionConfiguration, apiKeyVariable, applicationConfiguration.Completion.APIKey)
				if clientError != nil {
					return clientError
				}
				runDependencies.Client = client
			}

			result, runError := pipeline.Run(command.Context(), options, runDependencies)
			if runError != nil {
				return runError
			}
			return reportGenerateResult(command, result, options.DryRun, runDependencies.Counter)
		},
	}

	addScanFlags(generateCommand, &scanSettings)
	addPromptFlags(generateCommand, &promptSettings)
	addCompletionFlags(generateCommand, &completionSettings)
	addOutputFlags(generateCommand, &outputSettings)
	return generateCommand
}

// buildClient resolves the API key and constructs the completion client.
func buildClient(applicationDependencies *dependencies, completionConfiguration completion.Config, apiKeyVariable string, configuredKey string) (completion.Client, error) {
	keySource := credentials.Chain{
		credentials.EnvSource{Variable: apiKeyVariable},
		credentials.StaticSource(configuredKey),
	}
	apiKey, keyError := keySource.APIKey()
	if keyError != nil {
		if errors.Is(keyError, credentials.ErrNotFound) {
			return nil, fmt.Errorf(errorCredentialsFormat, apiKeyVariable, completion.ErrMissingAPIKey)
		}
		return nil, fmt.Errorf(errorCredentialsFormat, apiKeyVariable, keyError)
	}
	completionConfiguration.APIKey = apiKey
	return applicationDependencies.newClient(completionConfiguration)
}

func reportGenerateResult(command *cobra.Command, result pipeline.Result, dryRun bool, counter tokenizer.Counter) error {
	writer := command.OutOrStdout()
	if result.PromptPath != "" {
		if _, printError := fmt.Fprintf(writer, generatePromptPathFormat, result.PromptPath); printError != nil {
			return printError
		}
	}
	if dryRun {
		if counter == nil {
			_, printError := fmt.Fprintf(writer, generateDryRunNoTokens, result.Files, len(result.Skipped))
			return printError
		}
		_, printError := fmt.Fprintf(writer, generateDryRunFormat, result.Files, len(result.Skipped), result.PromptTokens)
		return printError
	}
	_, printError := fmt.Fprintf(writer, generateWrittenFormat, result.OutputPath)
	return printError
}
