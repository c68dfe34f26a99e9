package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"renderq/internal/daemon"
	"renderq/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var roleFlag string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the render and composite workers until interrupted",
		Long: `Run walks the render queue and launches Blender for shots whose frames
are missing. With --role all both lanes run in this process; start one
process per role to split them across machines sharing the project.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			roles, err := parseRoles(roleFlag)
			if err != nil {
				return err
			}
			return daemon.Run(cmd.Context(), cfg, daemon.Options{
				Roles:         roles,
				LogLevel:      ctx.logLevel(),
				SkipPreflight: skipPreflight,
			})
		},
	}
	cmd.Flags().StringVar(&roleFlag, "role", "all", "Worker lane to run: render, composite or all")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without running the environment checks")
	return cmd
}

func parseRoles(value string) ([]workflow.Role, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "all") {
		return workflow.Roles, nil
	}
	role, err := workflow.ParseRole(value)
	if err != nil {
		return nil, fmt.Errorf("--role: %w", err)
	}
	return []workflow.Role{role}, nil
}
