package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"renderq/internal/runner"
	"renderq/internal/shotlist"
)

type shotRow struct {
	Category    string `json:"category"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Parent      string `json:"parent,omitempty"`
	FrameStart  int    `json:"frame_start,omitempty"`
	FrameEnd    int    `json:"frame_end,omitempty"`
	BlendFile   string `json:"blend_file,omitempty"`
	Compositing bool   `json:"compositing_enabled"`
	Error       string `json:"error,omitempty"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var category string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shots in the shot list",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.loadShots()
			if err != nil {
				return err
			}
			rows := make([]shotRow, 0, db.Len())
			for _, key := range db.ShotIDs() {
				if category != "" && key.Category != category {
					continue
				}
				rows = append(rows, describeShot(db, key))
			}
			if asJSON {
				return writeJSON(cmd, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shots found")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				frames := ""
				if row.FrameEnd != 0 || row.FrameStart != 0 {
					frames = fmt.Sprintf("%d-%d", row.FrameStart, row.FrameEnd)
				}
				title := row.Title
				if row.Error != "" {
					title = "error: " + row.Error
				}
				table = append(table, []string{row.Category, row.ID, title, row.Parent, frames, yesNo(row.Compositing)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Category", "ID", "Title", "Parent", "Frames", "Composite"},
				table,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list shots in this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func describeShot(db *shotlist.DB, key shotlist.ShotKey) shotRow {
	row := shotRow{Category: key.Category, ID: key.ID}
	if rec, ok := db.Record(key); ok && rec.Parent != nil {
		row.Parent = rec.Parent.String()
	}
	shot, err := db.ResolveShot(key.Category, key.ID)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Title = shot.Title()
	settings, err := shot.Settings()
	if err != nil {
		row.Error = err.Error()
		return row
	}
	if settings.Frames.Set {
		row.FrameStart, row.FrameEnd = settings.Frames.Start, settings.Frames.End
	}
	row.BlendFile = settings.BlendFile
	row.Compositing = settings.CompositingEnabled
	return row
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var slate int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <category> <id>",
		Short: "Show the resolved fields of a shot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.loadShots()
			if err != nil {
				return err
			}
			shot, err := db.ResolveShot(args[0], args[1])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, shot.Fields)
			}
			settings, err := shot.Settings()
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(shot.Fields))
			for k := range shot.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, fmt.Sprint(shot.Fields[k])})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Shot %s (%s)\n", shot.Key, settings.Title)
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
			render := runner.RenderLayout(db.RenderRoot(), shot.Key, settings, slate)
			fmt.Fprintf(out, "Engine:       %s\n", settings.RenderEngine)
			fmt.Fprintf(out, "Output:       %s\n", render.FramePath(firstFrame(settings.Frames)))
			fmt.Fprintf(out, "Compositing:  %s\n", yesNo(settings.CompositingEnabled))
			return nil
		},
	}
	cmd.Flags().IntVar(&slate, "slate", 1, "Slate number used for the output path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the merged fields as JSON")
	return cmd
}

func firstFrame(frames shotlist.FrameRange) int {
	if frames.Set {
		return frames.Start
	}
	return 1
}

type verifyResult struct {
	Shot            string `json:"shot"`
	Slate           int    `json:"slate"`
	RenderDir       string `json:"render_dir"`
	RenderFrames    int    `json:"render_frames"`
	RenderComplete  bool   `json:"render_complete"`
	CompositeDir    string `json:"composite_dir,omitempty"`
	CompositeFrames int    `json:"composite_frames,omitempty"`
	CompositeDone   bool   `json:"composite_complete,omitempty"`
	ExpectedFrames  int    `json:"expected_frames"`
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var slate int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify <category> <id>",
		Short: "Check a shot's rendered and composited frames on disk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.loadShots()
			if err != nil {
				return err
			}
			r, err := ctx.newRunner(db, nil)
			if err != nil {
				return err
			}
			result, err := verifyShot(r, args[0], args[1], slate)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Shot %s slate %d\n", result.Shot, result.Slate)
			fmt.Fprintf(out, "  Render:    %s (%s)\n", frameSummary(result.RenderFrames, result.ExpectedFrames, result.RenderComplete), result.RenderDir)
			if result.CompositeDir != "" {
				fmt.Fprintf(out, "  Composite: %s (%s)\n", frameSummary(result.CompositeFrames, result.ExpectedFrames, result.CompositeDone), result.CompositeDir)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&slate, "slate", 1, "Slate number to verify")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func verifyShot(r *runner.Blender, category, id string, slate int) (verifyResult, error) {
	ref := shotRef(category, id, slate)
	plan, err := r.Plan(ref)
	if err != nil {
		return verifyResult{}, err
	}
	result := verifyResult{
		Shot:           plan.Shot.Key.String(),
		Slate:          slate,
		RenderDir:      plan.Render.Dir,
		RenderFrames:   runner.CountFrames(plan.Render, plan.Settings.Frames),
		ExpectedFrames: plan.Settings.Frames.Count(),
	}
	if result.RenderComplete, err = runner.CheckFrames(plan.Render, plan.Settings.Frames); err != nil {
		return verifyResult{}, err
	}
	if plan.Settings.CompositingEnabled {
		result.CompositeDir = plan.Composite.Dir
		result.CompositeFrames = runner.CountFrames(plan.Composite, plan.Settings.Frames)
		if result.CompositeDone, err = runner.CheckFrames(plan.Composite, plan.Settings.Frames); err != nil {
			return verifyResult{}, err
		}
	}
	return result, nil
}

func frameSummary(found, expected int, complete bool) string {
	state := "incomplete"
	if complete {
		state = "complete"
	}
	if expected == 0 {
		return state + ", no frame range"
	}
	return strconv.Itoa(found) + "/" + strconv.Itoa(expected) + " frames, " + state
}
