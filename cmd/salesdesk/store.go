package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"salesdesk/internal/app"
	"salesdesk/internal/catalog"
	"salesdesk/internal/repository"
	"salesdesk/internal/service"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalogue and query log tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := c.openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Migrate(cmd.Context()); err != nil {
				return err
			}
			c.ui.Success("%s schema is up to date", repo.Driver())
			return nil
		},
	}
}

func newSeedCmd(c *cli) *cobra.Command {
	var fixture string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the catalogue fixture into the SQL store",
		Long:  "Upserts projects, units and FAQs. Without --fixture the built-in catalogue is loaded.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if fixture == "" {
				fixture = c.cfg.Store.FixturePath
			}
			f, err := catalog.LoadFixture(fixture)
			if err != nil {
				return err
			}

			repo, err := c.openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Migrate(ctx); err != nil {
				return err
			}
			if err := repo.Seed(ctx, f); err != nil {
				return err
			}
			c.ui.Success("seeded %d projects, %d units and %d FAQs", len(f.Projects), len(f.Units), len(f.FAQs))

			answers := app.OpenCache(ctx, c.cfg, c.log)
			defer answers.Close()
			dropped, err := service.NewAssistantService(nil, answers, service.AssistantOptions{}, c.log).ForgetAnswers(ctx)
			if err != nil {
				return err
			}
			c.ui.Info("dropped %d cached answers", dropped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&fixture, "fixture", "f", "", "YAML catalogue to load")
	return cmd
}

func newEmbedCmd(c *cli) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Rebuild the FAQ embeddings used for semantic FAQ selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Services.Indexer.Rebuild(ctx, projectID)
			if err != nil {
				return err
			}
			if done, err := c.ui.JSON(resp); done {
				return err
			}

			c.ui.Success("embedded %d FAQs", resp.Success)
			if resp.Failed > 0 {
				c.ui.Warning("%d failed: %s", resp.Failed, strings.Join(resp.Errors, "; "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "only embed this project's FAQs")
	return cmd
}

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recently answered queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			history, err := a.Services.Queries.History(ctx, limit)
			if err != nil {
				return err
			}
			if done, err := c.ui.JSON(history); done {
				return err
			}
			if len(history) == 0 {
				c.ui.Info("no queries logged yet")
				return nil
			}

			rows := make([][]string, 0, len(history))
			for _, h := range history {
				rows = append(rows, []string{
					h.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					h.Query,
					h.Stage,
					string(h.ResultType),
					strconv.Itoa(h.FeedbackCount),
				})
			}
			c.ui.Table([]string{"WHEN", "QUERY", "STAGE", "RESULT", "FEEDBACK"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultHistoryLimit, "how many queries to list")
	return cmd
}

func (c *cli) openRepository() (*repository.SQLRepository, error) {
	if c.cfg.Store.Driver == "memory" {
		return nil, fmt.Errorf("STORE_DRIVER is memory; set it to postgres or sqlite")
	}
	return app.OpenRepository(c.cfg)
}
