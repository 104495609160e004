package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/babystarcloud/bundletool/internal/filecache"
	"github.com/babystarcloud/bundletool/internal/filecache/uncache"
	"github.com/babystarcloud/bundletool/internal/repohandler"
)

// DefaultConfigFile is the name of the configuration file looked up in the current directory.
const DefaultConfigFile = "bundletool.yaml"

type CLIConfig struct {
	// Path to the configuration file to use. If empty this will default to a 'bundletool.yaml' file
	// located in the directory from which the command is invoked.
	ConfigFile string
	// File to which to write execution logs. If empty logs will be written to the standard output
	// of the command invocation.
	LogFile string
	// Directory to which to write generated splits. Overrides the output configured in the
	// configuration file.
	OutputDirectory string
	// If set generate splits but do not write them.
	DryRun bool
	// If set emit verbose debug logs.
	Verbose bool

	// Internal state.
	cliConfigData
}

type cliConfigData struct {
	Logger    *zap.Logger
	Filecache filecache.FileCache
	Bundle    Bundle
}

func (c *CLIConfig) CheckConfig() error {
	// Logger needs to be checked first as anything after this point might write logs.
	if err := c.checkLogger(); err != nil {
		return err
	}

	if err := c.checkConfigFile(); err != nil {
		return err
	}

	root := filepath.Dir(c.ConfigFile)
	if c.OutputDirectory != "" {
		c.Bundle.Output = c.OutputDirectory
	} else if c.Bundle.Output != "" && !filepath.IsAbs(c.Bundle.Output) {
		c.Bundle.Output = filepath.Join(root, c.Bundle.Output)
	}

	if err := c.Bundle.Resolve(c.Logger); err != nil {
		return err
	}
	if c.Bundle.Stamp != nil && c.Bundle.Stamp.FromGit {
		src, err := repohandler.StampSource(c.Logger, root)
		if err != nil {
			return err
		}
		c.Bundle.StampSource = src
	}

	if c.Filecache == nil {
		fc, err := uncache.NewUncache(c.Logger, root)
		if err != nil {
			return err
		}
		c.Filecache = fc
	}
	return nil
}

func (c *CLIConfig) checkLogger() error {
	if c.Logger != nil {
		return nil
	}

	level, err := c.logLevel()
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	if level.Enabled(zapcore.DebugLevel) {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}

	var out zapcore.WriteSyncer = os.Stdout
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_EXCL, 0644)
		if err != nil {
			return fmt.Errorf("failed to open %q to write log output: %w", c.LogFile, err)
		}
		out = f
	}

	c.Logger = zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, level), zap.AddCaller())
	c.Logger.Debug("Logger initialised.", zap.Stringer("level", level), zap.String("file", c.LogFile))
	return nil
}

// logLevel honours, in order, the '-v | --verbose' flag, the DEBUG environment variable and the
// LOG_LEVEL environment variable.
func (c *CLIConfig) logLevel() (zapcore.Level, error) {
	if c.Verbose {
		return zapcore.DebugLevel, nil
	}
	if _, ok := os.LookupEnv("DEBUG"); ok {
		return zapcore.DebugLevel, nil
	}
	if val, ok := os.LookupEnv("LOG_LEVEL"); ok {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(val)); err != nil {
			return l, fmt.Errorf("could not parse value of LOG_LEVEL environment variable (%s) as a valid log level: %w", val, err)
		}
		return l, nil
	}
	return zapcore.InfoLevel, nil
}

func (c *CLIConfig) checkConfigFile() error {
	if c.ConfigFile == "" {
		if err := c.findConfigFile(); err != nil {
			return err
		}
	}

	c.Logger.Debug("Reading configuration file.", zap.String("file", c.ConfigFile))
	cb, err := ioutil.ReadFile(c.ConfigFile)
	if err != nil {
		c.Logger.Error("Unable to read content of configuration file.", zap.String("file", c.ConfigFile), zap.Error(err))
		return err
	}

	c.Logger.Debug("Parsing configuration file content.", zap.String("file", c.ConfigFile), zap.ByteString("configuration", cb))
	if err = yaml.Unmarshal(cb, &c.Bundle); err != nil {
		c.Logger.Error("Unable to parse configuration file.", zap.String("file", c.ConfigFile), zap.Error(err))
		return err
	}
	return nil
}

func (c *CLIConfig) findConfigFile() error {
	wd, err := os.Getwd()
	if err != nil {
		c.Logger.Error("Could not determine the current working directory.", zap.Error(err))
		return err
	}
	p := filepath.Join(wd, DefaultConfigFile)

	info, err := os.Stat(p)
	if err != nil && !os.IsNotExist(err) {
		c.Logger.Error("Encountered an unexpected error while testing file existence.", zap.String("path", p), zap.Error(err))
		return err
	} else if os.IsNotExist(err) || info.IsDir() {
		c.Logger.Error("No configuration file was found.", zap.String("path", p))
		return fmt.Errorf("no configuration file found at %q", p)
	}

	c.ConfigFile = p
	c.Logger.Info("Using configuration file at default location.", zap.String("path", p))
	return nil
}
