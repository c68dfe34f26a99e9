package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"renderq/internal/ledger"
)

type historyRow struct {
	ID         string     `json:"id"`
	Pass       string     `json:"pass"`
	Shot       string     `json:"shot"`
	Slate      int        `json:"slate"`
	Quality    string     `json:"quality"`
	Background bool       `json:"background"`
	Status     string     `json:"status"`
	ExitCode   *int       `json:"exit_code,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   string     `json:"duration"`
	LogPath    string     `json:"log_path,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		pass     string
		category string
		shotID   string
		limit    int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded Blender launches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ledger.Filter{
				Category: strings.TrimSpace(category),
				ShotID:   strings.TrimSpace(shotID),
				Limit:    limit,
			}
			switch strings.ToLower(strings.TrimSpace(pass)) {
			case "":
			case string(ledger.PassRender):
				filter.Pass = ledger.PassRender
			case string(ledger.PassComposite):
				filter.Pass = ledger.PassComposite
			default:
				return fmt.Errorf("--pass must be render or composite (got %q)", pass)
			}

			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			launches, err := store.History(cmd.Context(), filter)
			if err != nil {
				return err
			}
			now := time.Now()
			rows := make([]historyRow, 0, len(launches))
			for _, l := range launches {
				rows = append(rows, historyRow{
					ID:         l.ID,
					Pass:       string(l.Pass),
					Shot:       l.Category + "/" + l.ShotID,
					Slate:      l.Slate,
					Quality:    l.Quality,
					Background: l.Background,
					Status:     string(l.Status()),
					ExitCode:   l.ExitCode,
					StartedAt:  l.StartedAt,
					FinishedAt: l.FinishedAt,
					Duration:   l.Duration(now).Round(time.Second).String(),
					LogPath:    l.LogPath,
					Error:      l.Error,
				})
			}
			if asJSON {
				return writeJSON(cmd, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No launches recorded")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				status := row.Status
				if row.ExitCode != nil && *row.ExitCode != 0 {
					status = fmt.Sprintf("%s (%d)", status, *row.ExitCode)
				}
				table = append(table, []string{
					row.StartedAt.Local().Format("2006-01-02 15:04:05"),
					row.Pass,
					row.Shot,
					fmt.Sprint(row.Slate),
					row.Quality,
					status,
					row.Duration,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tableView{
				Headers: []string{"Started", "Pass", "Shot", "Slate", "Quality", "Status", "Duration"},
				Rows:    table,
				Aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
				Footer:  fmt.Sprintf("%d launches", len(rows)),
			}.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&pass, "pass", "", "Only show render or composite launches")
	cmd.Flags().StringVar(&category, "category", "", "Only show launches for this category")
	cmd.Flags().StringVar(&shotID, "shot", "", "Only show launches for this shot id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum launches to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
