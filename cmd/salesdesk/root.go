package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesdesk/internal/app"
	"salesdesk/internal/config"
	"salesdesk/internal/logger"
)

// cli carries what PersistentPreRunE prepares for the subcommands
type cli struct {
	verbose  bool
	noColor  bool
	jsonMode bool

	cfg *config.Config
	log *zap.Logger
	ui  *UI
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "salesdesk",
		Short: "Sales Desk - answer buyer questions about the project catalogue",
		Long: `salesdesk runs the query pipeline from the terminal: remote model, quick
filters, FAQ lookup, keyword rules and the default answer, in that order.
It also lists the catalogue and prepares the SQL store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVar(&c.jsonMode, "json", false, "print JSON instead of text")

	root.AddCommand(
		newAskCmd(c),
		newProjectsCmd(c),
		newCategoriesCmd(c),
		newFiltersCmd(c),
		newQuickCmd(c),
		newMigrateCmd(c),
		newSeedCmd(c),
		newEmbedCmd(c),
		newHistoryCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	// the terminal is for answers; keep the logger quiet unless asked
	logCfg := config.LoggingConfig{Level: "warn", Format: "console"}
	if c.verbose {
		logCfg.Level = "debug"
	}
	if c.log, err = logger.New(logCfg); err != nil {
		return err
	}

	c.ui = NewUI(cmd.OutOrStdout(), c.jsonMode, c.noColor)
	return nil
}

// open builds the full application; the caller closes it.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, c.cfg, c.log)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.cfg.Store.Driver, err)
	}
	return a, nil
}
