package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"marquee/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var level, component, userID string
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the marqueed log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{Component: strings.TrimSpace(component), UserID: strings.TrimSpace(userID)}
			if strings.TrimSpace(level) != "" {
				parsed, ok := logs.ParseLevel(level)
				if !ok {
					return fmt.Errorf("invalid level %q: expected debug, info, warn or error", level)
				}
				filter.MinLevel = parsed
			} else {
				filter.MinLevel = slog.LevelDebug
			}

			out := cmd.OutOrStdout()
			emit := func(line string) {
				if filter.Match(line) {
					fmt.Fprintln(out, line)
				}
			}
			path := cfg.LogPath()
			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				emit(line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 500*time.Millisecond, emit)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVarP(&level, "level", "l", "", "Minimum level: debug, info, warn or error")
	cmd.Flags().StringVar(&component, "component", "", "Only lines from this component")
	cmd.Flags().StringVar(&userID, "for-user", "", "Only lines logged for this user id")
	return cmd
}
