package cmd

import (
	"go.uber.org/zap"

	"github.com/babystarcloud/bundletool/cmd/config"
	"github.com/babystarcloud/bundletool/internal/chopper"
	"github.com/babystarcloud/bundletool/internal/generator"
	"github.com/babystarcloud/bundletool/internal/parser"
)

func RunGenerate(c *config.CLIConfig) error {
	ms, err := parser.Parse(c.Logger, c.Filecache, c.Bundle.Modules...)
	if err != nil {
		return err
	}

	ss, err := generator.GenerateAll(c.Logger, &c.Bundle, ms)
	if err != nil {
		return err
	}

	if c.DryRun {
		for _, s := range ss {
			c.Logger.Info("Generated split.", zap.String("directory", chopper.Directory(s)), zap.Stringer("split", s))
		}
		c.Logger.Info("Dry run: not writing any split content.", zap.Int("splits", len(ss)))
		return nil
	}

	fs, err := chopper.InitOutput(c.Logger, c.Bundle.Output)
	if err != nil {
		return err
	}
	if _, err = chopper.CleaveSplits(c.Logger, fs, ss); err != nil {
		return err
	}
	c.Logger.Info("Wrote splits.", zap.String("directory", fs.Root()), zap.Int("splits", len(ss)))
	return nil
}
