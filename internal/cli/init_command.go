package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/pmgen/internal/config"
	"github.com/temirov/pmgen/internal/types"
)

const (
	initShortDescription = "write the default configuration file"
	initLongDescription  = `init writes config.yaml with the built-in defaults into the current directory,
or into ~/.pmgen with --global.`
	globalFlagName        = "global"
	globalFlagDescription = "write the configuration into the global configuration directory"
	initForceDescription  = "overwrite an existing configuration file"
	initWrittenFormat     = "configuration written to %s\n"
)

func createInitCommand(applicationDependencies *dependencies) *cobra.Command {
	var (
		writeGlobal bool
		overwrite   bool
	)

	initCommand := &cobra.Command{
		Use:   types.CommandInit,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := applicationDependencies.resolveWorkingDirectory()
			if workingDirectoryError != nil {
				return workingDirectoryError
			}
			target := config.InitTargetLocal
			if writeGlobal {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            overwrite,
				WorkingDirectory: workingDirectory,
			})
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(command.OutOrStdout(), initWrittenFormat, destinationPath)
			return printError
		},
	}

	registerSwitch(initCommand.Flags(), &writeGlobal, globalFlagName, globalFlagDescription)
	registerSwitch(initCommand.Flags(), &overwrite, forceFlagName, initForceDescription)
	return initCommand
}
