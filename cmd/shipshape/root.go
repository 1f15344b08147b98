package main

import (
	"context"
	"fmt"
	"io"

	"github.com/shipshape/backend/internal/infrastructure/config"
	"github.com/shipshape/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli holds what every subcommand needs once the root pre-run has finished
type cli struct {
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
	closer  io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "shipshape",
		Short:         "Warehouse trailer and shipment record store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.close()
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "Path to config file (toml)")

	root.AddCommand(
		newServeCmd(c),
		newReportCmd(c),
		newSlotsCmd(c),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			// version needs no config or logger
			PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
			PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
			},
		},
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closer, err := logger.New(loggerConfig(cfg))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	c.cfg = cfg
	c.log = log.With(zap.String("context_id", cfg.Storage.ContextID))
	c.closer = closer
	return nil
}

// loggerConfig starts from the environment's defaults and applies the
// configured log settings on top
func loggerConfig(cfg *config.Config) *logger.Config {
	lc := logger.ConfigForEnvironment(cfg.App.Env)
	lc.Level = cfg.Log.Level
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	lc.Output = cfg.Log.Output
	lc.MaxSizeMB = cfg.Log.MaxSizeMB
	lc.MaxBackups = cfg.Log.MaxBackups
	return lc
}

func (c *cli) close() error {
	if c.log == nil {
		return nil
	}
	_ = logger.Sync(c.log)
	return c.closer.Close()
}

// background is the context for one-shot commands
func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
