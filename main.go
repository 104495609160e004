package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/babystarcloud/bundletool/cmd"
	"github.com/babystarcloud/bundletool/cmd/config"
)

func main() {
	var c config.CLIConfig
	root := cobra.Command{
		Use:   "bundletool",
		Short: "Generate device-targeted splits from the modules of an app bundle.",
		PersistentPreRunE: func(_ *cobra.Command, args []string) error {
			return c.CheckConfig()
		},
		SilenceUsage: true,
	}

	attachGlobalFlags(&root, &c)

	root.AddCommand(
		checkCmd(&c),
		generateCmd(&c),
	)

	if err := root.Execute(); err != nil {
		if c.Logger != nil {
			c.Logger.Debug("Execution failed.", zap.Error(err))
			_ = c.Logger.Sync()
		}
		os.Exit(1)
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func checkCmd(c *config.CLIConfig) *cobra.Command {
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration by generating all splits without writing them.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.RunCheck(c)
		},
	}

	return check
}

func generateCmd(c *config.CLIConfig) *cobra.Command {
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate the splits of all configured modules and write them to the output directory.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.RunGenerate(c)
		},
	}
	attachGenerateFlags(generate, c)

	return generate
}
