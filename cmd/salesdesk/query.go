package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
	"salesdesk/internal/service"
)

func newAskCmd(c *cli) *cobra.Command {
	var (
		projectID string
		trace     bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question through the query pipeline",
		Example: `  salesdesk ask "Show me properties under 1 crore" --project greenfield-1
  salesdesk ask "3 BHK" --trace`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var observe pipeline.Observer
			if trace {
				observe = func(e pipeline.StageEvent) {
					detail := ""
					if e.Detail != "" {
						detail = " (" + e.Detail + ")"
					}
					c.ui.Info("%-12s %s%s", e.Stage, e.Outcome, detail)
				}
			}

			resp, err := a.Services.Queries.ResolveObserved(ctx, &model.QueryRequest{
				Query:     strings.Join(args, " "),
				ProjectID: projectID,
			}, observe)
			if err != nil {
				return err
			}
			if done, err := c.ui.JSON(resp); done {
				return err
			}

			c.ui.Section(fmt.Sprintf("Answer from %s stage", resp.Stage))
			c.ui.Text(resp.Result.Text)
			if units := resp.Result.Units(); len(units) > 0 {
				c.ui.Text("")
				c.ui.Table([]string{"UNIT", "PROJECT", "TYPE", "PRICE", "AVAILABILITY"}, unitRows(units))
			}
			c.ui.Text("")
			c.ui.KeyValue("query id", resp.ID)
			c.ui.KeyValue("elapsed", fmt.Sprintf("%dms", resp.ElapsedMs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "project id to scope the question to")
	cmd.Flags().BoolVar(&trace, "trace", false, "print every pipeline stage as it runs")
	return cmd
}

func newQuickCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "quick <project-id> <kind>",
		Short:     "Ask one of the quick response questions about a project",
		Long:      "Kinds: " + strings.Join(service.QuickKinds(), ", ") + ". Needs a remote assistant.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: service.QuickKinds(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			project, err := a.Store.GetProject(ctx, args[0])
			if err != nil {
				return err
			}
			units, err := a.Store.ListUnitsByProject(ctx, project.ID)
			if err != nil {
				return err
			}
			resp, err := a.Services.Assistant.QuickResponse(ctx, args[1], project, units)
			if err != nil {
				return err
			}
			if done, err := c.ui.JSON(resp); done {
				return err
			}

			c.ui.Section(fmt.Sprintf("%s: %s", project.Name, args[1]))
			c.ui.Text(resp.Response)
			c.ui.Text("")
			c.ui.KeyValue("confidence", string(resp.Confidence))
			if resp.Fallback != "" {
				c.ui.Warning("%s", resp.Fallback)
			}
			return nil
		},
	}
}

func unitRows(units []model.Unit) [][]string {
	rows := make([][]string, 0, len(units))
	for _, u := range units {
		rows = append(rows, []string{
			u.ID,
			u.ProjectID,
			u.Type,
			"₹" + pipeline.CroreString(u.Price) + " Cr",
			string(u.Availability),
		})
	}
	return rows
}
