package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"renderq/internal/daemon"
	"renderq/internal/preflight"
	"renderq/internal/workflow"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the environment the workers need",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
			for _, result := range results {
				fmt.Fprintln(out, renderStatusLine(result.Name, resultKind(result), result.Detail, colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Workers", colorize))
			for _, role := range workflow.Roles {
				kind, message := laneStatus(daemon.ReadPID(cfg, role))
				fmt.Fprintln(out, renderStatusLine(string(role)+" lane", kind, message, colorize))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}
}

func resultKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func laneStatus(pid int) (statusKind, string) {
	if pid <= 0 {
		return statusInfo, "not running"
	}
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return statusWarn, fmt.Sprintf("stale pid file (pid %d)", pid)
	}
	return statusOK, fmt.Sprintf("running (pid %d)", pid)
}
