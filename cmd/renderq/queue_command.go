package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"renderq/internal/runner"
)

type queueRow struct {
	Position  int    `json:"position"`
	Shot      string `json:"shot"`
	Slate     int    `json:"slate"`
	Title     string `json:"title,omitempty"`
	Render    string `json:"render"`
	Composite string `json:"composite"`
}

type queueView struct {
	Path    string     `json:"path"`
	Quality string     `json:"quality"`
	Shots   []queueRow `json:"shots"`
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the render queue and each shot's output status",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := ctx.loadQueue()
			if err != nil {
				return err
			}
			db, err := ctx.loadShots()
			if err != nil {
				return err
			}
			r, err := ctx.newRunner(db, nil)
			if err != nil {
				return err
			}

			view := queueView{
				Path:    snapshot.SourcePath,
				Quality: snapshot.Quality.String(),
				Shots:   make([]queueRow, 0, len(snapshot.Shots)),
			}
			for i, ref := range snapshot.Shots {
				row := queueRow{Position: i + 1, Shot: ref.Key().String(), Slate: ref.Slate}
				plan, err := r.Plan(ref)
				if err != nil {
					row.Render = "error: " + err.Error()
					row.Composite = "-"
					view.Shots = append(view.Shots, row)
					continue
				}
				row.Title = plan.Settings.Title
				row.Render = outputStatus(runner.CheckFrames(plan.Render, plan.Settings.Frames))
				row.Composite = "disabled"
				if plan.Settings.CompositingEnabled {
					row.Composite = outputStatus(runner.CheckFrames(plan.Composite, plan.Settings.Frames))
				}
				view.Shots = append(view.Shots, row)
			}

			if asJSON {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Queue:   %s\n", view.Path)
			fmt.Fprintf(out, "Quality: %s\n", view.Quality)
			if len(view.Shots) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			rows := make([][]string, 0, len(view.Shots))
			for _, row := range view.Shots {
				rows = append(rows, []string{fmt.Sprint(row.Position), row.Shot, fmt.Sprint(row.Slate), row.Title, row.Render, row.Composite})
			}
			fmt.Fprintln(out, tableView{
				Headers: []string{"#", "Shot", "Slate", "Title", "Render", "Composite"},
				Rows:    rows,
				Aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				Footer:  fmt.Sprintf("%d queued", len(view.Shots)),
			}.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func outputStatus(done bool, err error) string {
	switch {
	case err != nil:
		return "error: " + err.Error()
	case done:
		return "complete"
	default:
		return "pending"
	}
}
