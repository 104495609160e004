package main

import (
	"github.com/spf13/cobra"

	"github.com/babystarcloud/bundletool/cmd/config"
)

func attachGlobalFlags(command *cobra.Command, c *config.CLIConfig) {
	command.PersistentFlags().StringVarP(
		&c.ConfigFile,
		"configuration",
		"c",
		"",
		"Location of the configuration file to use. Defaults to '"+config.DefaultConfigFile+"' in the current directory.",
	)
	command.PersistentFlags().BoolVarP(
		&c.Verbose,
		"verbose",
		"v",
		false,
		"Print (very) verbose debug logs.",
	)
	command.PersistentFlags().StringVarP(
		&c.LogFile,
		"log-file",
		"l",
		"",
		"File to write logs to instead of the standard output.",
	)
}

func attachGenerateFlags(command *cobra.Command, c *config.CLIConfig) {
	command.Flags().BoolVarP(
		&c.DryRun,
		"dry-run",
		"d",
		false,
		"Generate all splits but do not write them to the output directory.",
	)
	command.Flags().StringVarP(
		&c.OutputDirectory,
		"output",
		"o",
		"",
		"Directory to which to write the generated splits. Any existing content will be removed. "+
			"If neither this flag nor the configuration specify an output a temporary folder will be used.",
	)
}
