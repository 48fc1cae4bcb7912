package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"marquee/internal/config"
	"marquee/internal/daemonctl"
)

const (
	daemonStartTimeout = 15 * time.Second
	daemonStopGrace    = 15 * time.Second
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the marqueed API server",
	}
	cmd.AddCommand(newDaemonStartCommand(ctx))
	cmd.AddCommand(newDaemonStopCommand(ctx))
	cmd.AddCommand(newDaemonStatusCommand(ctx))
	return cmd
}

func newDaemonStartCommand(ctx *commandContext) *cobra.Command {
	var executable string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start marqueed in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := resolveServerExecutable(executable)
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), cfg, path, ctx.configPath(), daemonStartTimeout)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			if result.AlreadyRunning {
				fmt.Fprintf(cmd.OutOrStdout(), "marqueed already running on %s\n", cfg.Server.Bind)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marqueed started on %s\n", cfg.Server.Bind)
			return nil
		},
	}
	cmd.Flags().StringVar(&executable, "marqueed", "", "Path to the marqueed binary (default: beside marquee, then $PATH)")
	return cmd
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop marqueed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := daemonctl.Stop(cmd.Context(), cfg, daemonStopGrace)
			if errors.Is(err, daemonctl.ErrNotRunning) {
				fmt.Fprintln(cmd.OutOrStdout(), "marqueed is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			if result.ForcedKill {
				fmt.Fprintf(cmd.OutOrStdout(), "marqueed (pid %d) did not exit in %s and was killed\n", result.PID, daemonStopGrace)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marqueed (pid %d) stopped\n", result.PID)
			return nil
		},
	}
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether marqueed is running and healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := daemonctl.Inspect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			renderDaemonStatus(cmd, cfg, status)
			return nil
		},
	}
}

func renderDaemonStatus(cmd *cobra.Command, cfg *config.Config, status daemonctl.Status) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	processKind, processDetail := statusError, "not running"
	switch {
	case status.PID > 0:
		processKind, processDetail = statusOK, "pid "+strconv.Itoa(status.PID)
	case status.StalePID:
		processDetail = "stale pid file " + cfg.PIDPath()
	}
	fmt.Fprintln(out, renderStatusLine("Process", processKind, processDetail, colorize))

	healthKind, healthDetail := statusError, status.HealthError
	if status.Health != nil && status.HealthError == "" {
		healthKind = statusOK
		healthDetail = fmt.Sprintf("%s on %s (actors: %d, sentiment: %s)",
			status.Health.Status, status.Bind, status.Health.Actors, yesNo(status.Health.Sentiment))
	}
	fmt.Fprintln(out, renderStatusLine("API", healthKind, healthDetail, colorize))
	fmt.Fprintln(out, renderStatusLine("Log", statusOK, cfg.LogPath(), colorize))
}

// resolveServerExecutable prefers an explicit path, then a marqueed binary
// installed beside the running marquee, then $PATH.
func resolveServerExecutable(explicit string) (string, error) {
	if path := strings.TrimSpace(explicit); path != "" {
		return path, nil
	}
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), "marqueed")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	path, err := exec.LookPath("marqueed")
	if err != nil {
		return "", fmt.Errorf("marqueed not found beside marquee or on $PATH (use --marqueed)")
	}
	return path, nil
}
