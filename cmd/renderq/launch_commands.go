package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"renderq/internal/ledger"
	"renderq/internal/renderqueue"
	"renderq/internal/runner"
)

type launchFlags struct {
	slate   int
	quality string
}

func (f *launchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.slate, "slate", 1, "Slate number for the output directory")
	cmd.Flags().StringVarP(&f.quality, "quality", "q", "", "Quality level (LOW, MEDIUM, HIGH, FINAL); defaults to the render queue's quality")
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var flags launchFlags
	cmd := &cobra.Command{
		Use:   "build <category> <id>",
		Short: "Render a shot in the foreground",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, ctx, ledger.PassRender, args[0], args[1], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func newCompositeCommand(ctx *commandContext) *cobra.Command {
	var flags launchFlags
	cmd := &cobra.Command{
		Use:   "composite <category> <id>",
		Short: "Composite a shot's rendered frames in the foreground",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, ctx, ledger.PassComposite, args[0], args[1], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runLaunch(cmd *cobra.Command, ctx *commandContext, pass ledger.Pass, category, id string, flags launchFlags) error {
	if flags.slate < 1 {
		return fmt.Errorf("--slate must be at least 1 (got %d)", flags.slate)
	}
	quality, err := launchQuality(ctx, flags.quality)
	if err != nil {
		return err
	}
	db, err := ctx.loadShots()
	if err != nil {
		return err
	}
	store, err := ctx.openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := ctx.newRunner(db, store)
	if err != nil {
		return err
	}
	ref := shotRef(category, id, flags.slate)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Starting %s of %s slate %d at %s quality\n", pass, ref.Key(), ref.Slate, quality)

	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	switch pass {
	case ledger.PassComposite:
		err = r.Composite(runCtx, ref, quality, runner.LaunchOptions{})
	default:
		err = r.Build(runCtx, ref, quality, runner.LaunchOptions{})
	}

	if launches, histErr := store.History(runCtx, ledger.Filter{Pass: pass, Category: ref.Category, ShotID: ref.ID, Limit: 1}); histErr == nil && len(launches) == 1 && launches[0].LogPath != "" {
		fmt.Fprintf(out, "Blender log: %s\n", launches[0].LogPath)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s of %s finished\n", capitalize(string(pass)), ref.Key())
	return nil
}

// launchQuality resolves the --quality flag, falling back to the queue file
// and then to the lowest level.
func launchQuality(ctx *commandContext, value string) (renderqueue.Quality, error) {
	if strings.TrimSpace(value) != "" {
		return renderqueue.ParseQuality(value)
	}
	if snapshot, err := ctx.loadQueue(); err == nil {
		return snapshot.Quality, nil
	}
	return renderqueue.QualityLow, nil
}

func shotRef(category, id string, slate int) renderqueue.ShotRef {
	return renderqueue.ShotRef{
		Category: strings.TrimSpace(category),
		ID:       strings.TrimSpace(id),
		Slate:    slate,
	}
}

func capitalize(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
