// Package cli wires the pvlayout commands: optimize, validate and modules.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/piwi3910/pvlayout/internal/logger"
	"github.com/piwi3910/pvlayout/internal/project"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCmd builds the pvlayout command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pvlayout",
		Short:         "PV table layout optimizer",
		Long:          "pvlayout packs PV tables into fenced land parcels and sweeps the row pitch for the highest installed capacity.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "project file (YAML or JSON), defaults to ./"+project.DefaultConfigName)
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: json or console")

	root.AddCommand(newOptimizeCmd(opts), newValidateCmd(opts), newModulesCmd(opts))
	return root
}

// Execute runs the CLI with a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig finds and loads the project file, then applies the logging
// flags over its logging section.
func (o *rootOptions) loadConfig() (*project.Config, error) {
	path, err := project.FindConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := project.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := o.configureLogging(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *rootOptions) configureLogging(lc project.LoggingConfig) error {
	if o.logLevel != "" {
		lc.Level = o.logLevel
	}
	if o.logFormat != "" {
		lc.Format = o.logFormat
	}
	if err := logger.Configure(logger.Options{Level: lc.Level, Format: lc.Format}); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func defaultLogging() project.LoggingConfig {
	return project.Default().Logging
}
