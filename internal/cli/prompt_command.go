package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/temirov/pmgen/internal/completion"
	"github.com/temirov/pmgen/internal/config"
	"github.com/temirov/pmgen/internal/pipeline"
	"github.com/temirov/pmgen/internal/tokenizer"
	"github.com/temirov/pmgen/internal/types"
)

const (
	promptAlias            = "p"
	promptUse              = types.CommandPrompt + " [root]"
	promptShortDescription = "print the assembled prompt without calling the completion endpoint"
	defaultCompletionModel = completion.DefaultModel
)

func createPromptCommand(applicationDependencies *dependencies, configPath *string) *cobra.Command {
	var (
		scanSettings   scanFlags
		promptSettings promptFlags
	)

	promptCommand := &cobra.Command{
		Use:     promptUse,
		Aliases: []string{promptAlias},
		Short:   promptShortDescription,
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

			var counter tokenizer.Counter
			if options.MaxPromptTokens > 0 {
				completionModel := applicationConfiguration.Completion.Model
				if completionModel == "" {
					completionModel = defaultCompletionModel
				}
				counter, _ = applicationDependencies.counterFor(resolveTokenizerModel(flagSet, promptSettings.tokenizerModel, applicationConfiguration.Prompt.TokenizerModel, completionModel))
			}
			_, assembled, buildError := pipeline.BuildPrompt(command.Context(), options, counter, applicationDependencies.logger)
			if buildError != nil {
				return buildError
			}
			_, writeError := io.WriteString(command.OutOrStdout(), assembled.Text)
			return writeError
		},
	}

	addScanFlags(promptCommand, &scanSettings)
	addPromptFlags(promptCommand, &promptSettings)
	return promptCommand
}
