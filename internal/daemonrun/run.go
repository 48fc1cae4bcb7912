package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"marquee/internal/config"
	"marquee/internal/daemon"
	"marquee/internal/fileutil"
	"marquee/internal/logging"
	"marquee/internal/preflight"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// SkipPreflight disables the startup readiness checks.
	SkipPreflight bool
}

// Run starts marqueed and blocks until SIGINT, SIGTERM or ctx cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogPath()},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if !opts.SkipPreflight {
		preflight.LogResults(logger, preflight.RunAll(signalCtx, cfg))
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	components, err := Build(cfg, logger)
	if err != nil {
		logger.Error("build services", logging.Error(err))
		return err
	}
	defer components.Close()

	handler, err := components.Handler(cfg, logger)
	if err != nil {
		return fmt.Errorf("build api: %w", err)
	}

	d, err := daemon.New(cfg, components.Store, handler, logger, components.Jobs(cfg)...)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Stop()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check server.bind and that no other marqueed is running"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("marqueed shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return fileutil.WriteFileAtomic(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("tmdb_key_present", strings.TrimSpace(cfg.TMDB.APIKey) != ""),
		logging.Bool("tmdb_cache_enabled", cfg.TMDBCacheEnabled()),
		logging.Bool("sentiment_enabled", cfg.Sentiment.Enabled),
		logging.Bool("sentiment_key_present", strings.TrimSpace(cfg.Sentiment.APIKey) != ""),
		logging.String("embeddings_path", cfg.Faces.EmbeddingsPath),
		logging.Bool("jwt_secret_present", strings.TrimSpace(cfg.Auth.JWTSecret) != ""),
		logging.String("bind", cfg.Server.Bind),
	)
}
