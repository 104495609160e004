package cmd

import (
	"go.uber.org/zap"

	"github.com/babystarcloud/bundletool/cmd/config"
	"github.com/babystarcloud/bundletool/internal/generator"
	"github.com/babystarcloud/bundletool/internal/parser"
)

func RunCheck(c *config.CLIConfig) error {
	c.Logger.Info("Parsing bundle modules.")
	ms, err := parser.Parse(c.Logger, c.Filecache, c.Bundle.Modules...)
	if err != nil {
		return err
	}

	c.Logger.Info("Generating splits to verify the configuration.")
	ss, err := generator.GenerateAll(c.Logger, &c.Bundle, ms)
	if err != nil {
		return err
	}
	c.Logger.Info("The configuration in "+c.ConfigFile+" is valid.", zap.Int("modules", len(ms)), zap.Int("splits", len(ss)))
	return nil
}
