package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/pmgen/internal/config"
	"github.com/temirov/pmgen/internal/output"
	"github.com/temirov/pmgen/internal/pipeline"
	"github.com/temirov/pmgen/internal/tokenizer"
	"github.com/temirov/pmgen/internal/types"
)

const (
	scanAlias            = "s"
	scanUse              = types.CommandScan + " [root]"
	scanShortDescription = "list the files a generation run would include"
	scanLongDescription  = `scan walks root with the same selection rules as generate and prints the selected files
in prompt order, the skipped files with their reasons and the totals.`

	tokensFlagName    = "tokens"
	tokensDescription = "count tokens of every selected file"
	formatFlagName    = "format"
	formatDescription = "report format: raw, json or xml"
)

func createScanCommand(applicationDependencies *dependencies, configPath *string) *cobra.Command {
	var (
		scanSettings   scanFlags
		includeTokens  bool
		tokenizerModel string
		reportFormat   string
	)

	scanCommand := &cobra.Command{
		Use:     scanUse,
		Aliases: []string{scanAlias},
		Short:   scanShortDescription,
		Long:    scanLongDescription,
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
			scanResult, scanError := pipeline.ScanProject(command.Context(), options, applicationDependencies.logger)
			if scanError != nil {
				return scanError
			}

			reportOptions := output.ReportOptions{Format: reportFormat, IncludeTokens: includeTokens}
			if includeTokens {
				completionModel := applicationConfiguration.Completion.Model
				if completionModel == "" {
					completionModel = defaultCompletionModel
				}
				model := resolveTokenizerModel(flagSet, tokenizerModel, applicationConfiguration.Prompt.TokenizerModel, completionModel)
				counter, counterName := applicationDependencies.counterFor(model)
				if _, countError := tokenizer.CountFiles(counter, scanResult.Files); countError != nil {
					return countError
				}
				reportOptions.Model = counterName
			}
			return output.RenderScanReport(command.OutOrStdout(), scanResult, reportOptions)
		},
	}

	addScanFlags(scanCommand, &scanSettings)
	registerSwitch(scanCommand.Flags(), &includeTokens, tokensFlagName, tokensDescription)
	scanCommand.Flags().StringVar(&tokenizerModel, tokenizerModelFlagName, "", tokenizerModelDesc)
	scanCommand.Flags().StringVar(&reportFormat, formatFlagName, output.FormatRaw, formatDescription)
	return scanCommand
}
