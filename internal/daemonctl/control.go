// Package daemonctl starts, stops and inspects a marqueed process from the
// CLI using its pid file and HTTP health endpoint.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sys/unix"

	"marquee/internal/api"
	"marquee/internal/config"
)

// ErrNotRunning indicates no live marqueed process was found.
var ErrNotRunning = errors.New("marqueed not running")

const (
	healthPath   = "/api/v1/health"
	probeTimeout = 2 * time.Second
	pollInterval = 200 * time.Millisecond
)

// HealthURL returns the health endpoint for a bind address. Wildcard hosts
// are probed on loopback.
func HealthURL(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return "http://" + strings.TrimSpace(bind) + healthPath
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + healthPath
}

// Probe queries the health endpoint of the server bound at bind.
func Probe(ctx context.Context, bind string) (*api.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, HealthURL(bind), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("health check returned %d (%s)", resp.StatusCode, health.Status)
	}
	return &health, nil
}

// ReadPID returns the pid recorded at path, or 0 when the file is absent.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pid file %q: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %q holds %q, not a process id", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// ProcessAlive reports whether pid names a running process.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Status describes the marqueed process for a config.
type Status struct {
	Running     bool                `json:"running"`
	PID         int                 `json:"pid,omitempty"`
	Bind        string              `json:"bind"`
	Health      *api.HealthResponse `json:"health,omitempty"`
	HealthError string              `json:"health_error,omitempty"`
	StalePID    bool                `json:"stale_pid,omitempty"`
}

// Inspect combines the pid file and a health probe. The server counts as
// running when either its process is alive or its health endpoint answers.
func Inspect(ctx context.Context, cfg *config.Config) (Status, error) {
	status := Status{Bind: cfg.Server.Bind}
	pid, err := ReadPID(cfg.PIDPath())
	if err != nil {
		return status, err
	}
	if pid > 0 {
		if ProcessAlive(pid) {
			status.PID = pid
			status.Running = true
		} else {
			status.StalePID = true
		}
	}
	health, err := Probe(ctx, cfg.Server.Bind)
	if health != nil {
		status.Health = health
		status.Running = true
	}
	if err != nil {
		status.HealthError = err.Error()
	}
	return status, nil
}

// Launch starts marqueed detached from the calling terminal. Its output is
// discarded; marqueed writes its own log file.
func Launch(executable, configPath string) error {
	if strings.TrimSpace(executable) == "" {
		return fmt.Errorf("launch marqueed: executable path is empty")
	}
	args := []string{}
	if path := strings.TrimSpace(configPath); path != "" {
		args = append(args, "--config", path)
	}
	proc := exec.Command(executable, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch marqueed: %w", err)
	}
	return proc.Process.Release()
}

// WaitHealthy polls the health endpoint until it answers or timeout elapses.
func WaitHealthy(ctx context.Context, bind string, timeout time.Duration) (*api.HealthResponse, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		health, err := Probe(ctx, bind)
		if err == nil {
			return health, nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("marqueed did not become healthy: %w", lastErr)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// StartResult reports what EnsureStarted did.
type StartResult struct {
	AlreadyRunning bool                `json:"already_running"`
	Health         *api.HealthResponse `json:"health,omitempty"`
}

// EnsureStarted launches marqueed unless a healthy server already answers.
func EnsureStarted(ctx context.Context, cfg *config.Config, executable, configPath string, timeout time.Duration) (StartResult, error) {
	if health, err := Probe(ctx, cfg.Server.Bind); err == nil {
		return StartResult{AlreadyRunning: true, Health: health}, nil
	}
	if err := Launch(executable, configPath); err != nil {
		return StartResult{}, err
	}
	health, err := WaitHealthy(ctx, cfg.Server.Bind, timeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{Health: health}, nil
}

// StopResult reports how the process ended.
type StopResult struct {
	PID        int  `json:"pid"`
	ForcedKill bool `json:"forced_kill"`
}

// Stop sends SIGTERM to the recorded process and escalates to SIGKILL when it
// outlives grace. After a forced kill the pid and lock files are removed.
// A stale pid file is removed and reported as ErrNotRunning.
func Stop(ctx context.Context, cfg *config.Config, grace time.Duration) (StopResult, error) {
	pidPath := cfg.PIDPath()
	pid, err := ReadPID(pidPath)
	if err != nil {
		return StopResult{}, err
	}
	if pid == 0 {
		return StopResult{}, ErrNotRunning
	}
	if !ProcessAlive(pid) {
		_ = os.Remove(pidPath)
		return StopResult{}, ErrNotRunning
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal the current process (pid %d)", pid)
	}

	result := StopResult{PID: pid}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return result, fmt.Errorf("signal marqueed %d: %w", pid, err)
	}
	if waitExit(ctx, pid, grace) {
		return result, nil
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill marqueed %d: %w", pid, err)
	}
	result.ForcedKill = true
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	_ = os.Remove(cfg.LockPath())
	return result, nil
}

func waitExit(ctx context.Context, pid int, grace time.Duration) bool {
	deadline := time.Now().Add(grace)
	for ProcessAlive(pid) {
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return !ProcessAlive(pid)
		case <-time.After(pollInterval):
		}
	}
	return true
}
