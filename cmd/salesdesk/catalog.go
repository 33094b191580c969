package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
)

func newProjectsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects in the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.Store.ListProjects(ctx)
			if err != nil {
				return err
			}
			if done, err := c.ui.JSON(projects); done {
				return err
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.ID, p.Name, p.Location, p.Status, strconv.Itoa(p.AvailableUnits)})
			}
			c.ui.Table([]string{"ID", "NAME", "LOCATION", "STATUS", "AVAILABLE"}, rows)
			return nil
		},
	}
}

func newCategoriesCmd(c *cli) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show how the FAQs fall into topic categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var faqs []model.FAQ
			if projectID != "" {
				if _, err := a.Store.GetProject(ctx, projectID); err != nil {
					return err
				}
				faqs, err = a.Store.ListFaqsByProject(ctx, projectID)
			} else {
				faqs, err = a.Store.ListFaqs(ctx)
			}
			if err != nil {
				return err
			}

			counts := pipeline.CountByCategory(faqs)
			if done, err := c.ui.JSON(counts); done {
				return err
			}

			rows := make([][]string, 0, len(counts))
			for _, cc := range counts {
				rows = append(rows, []string{cc.ID, cc.Name, cc.Description, strconv.Itoa(cc.Count)})
			}
			c.ui.Table([]string{"ID", "NAME", "COVERS", "FAQS"}, rows)
			c.ui.Text("")
			c.ui.KeyValue("total", strconv.Itoa(len(faqs)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "only count this project's FAQs")
	return cmd
}

func newFiltersCmd(c *cli) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "filters [filter-id]",
		Short: "List the quick filters, or rank the units one of them selects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				filters := pipeline.QuickFilters()
				if done, err := c.ui.JSON(filters); done {
					return err
				}
				rows := make([][]string, 0, len(filters))
				for _, f := range filters {
					rows = append(rows, []string{f.ID, f.Label, f.Description, f.Criteria})
				}
				c.ui.Table([]string{"ID", "LABEL", "DESCRIPTION", "CRITERIA"}, rows)
				return nil
			}

			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Services.Search.FilterUnits(ctx, args[0], projectID)
			if err != nil {
				return err
			}
			if done, err := c.ui.JSON(resp); done {
				return err
			}

			c.ui.Section(fmt.Sprintf("%s: %d units", resp.Filter.Label, resp.Total))
			if len(resp.Applied.Ignored) > 0 {
				c.ui.Warning("not evaluated: %v", resp.Applied.Ignored)
			}
			rows := make([][]string, 0, len(resp.Results))
			for _, r := range resp.Results {
				rows = append(rows, []string{
					r.Unit.ID,
					r.Unit.ProjectID,
					"₹" + pipeline.CroreString(r.Unit.Price) + " Cr",
					strconv.FormatFloat(r.Score, 'f', 2, 64),
					fmt.Sprint(r.MatchedReasons),
				})
			}
			c.ui.Table([]string{"UNIT", "PROJECT", "PRICE", "SCORE", "MATCHED"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "only rank this project's units")
	return cmd
}
