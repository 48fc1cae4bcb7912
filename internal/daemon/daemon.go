package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"marquee/internal/api"
	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/store"
)

const (
	defaultSweepInterval   = 15 * time.Minute
	defaultShutdownTimeout = 10 * time.Second
)

// ErrAlreadyRunning is returned when another process holds the instance lock.
var ErrAlreadyRunning = errors.New("another marqueed instance is already running")

// Daemon owns the API listener, the single-instance lock and background jobs.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	handler http.Handler
	lock    *flock.Flock

	sweepInterval time.Duration
	extraJobs     []Job

	mu  sync.Mutex
	run *running
}

// running holds what exists only between Start and Stop.
type running struct {
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool     `json:"running"`
	Addr         string   `json:"addr,omitempty"`
	DatabasePath string   `json:"database_path"`
	LockFilePath string   `json:"lock_file_path"`
	Jobs         []string `json:"jobs,omitempty"`
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithSweepInterval sets how often expired stories are purged.
func WithSweepInterval(d time.Duration) Option {
	return func(dm *Daemon) {
		if d > 0 {
			dm.sweepInterval = d
		}
	}
}

// WithJob adds a background job. Jobs without a Run func or interval are ignored.
func WithJob(job Job) Option {
	return func(dm *Daemon) {
		if job.Run != nil && job.Interval > 0 {
			dm.extraJobs = append(dm.extraJobs, job)
		}
	}
}

// New constructs a daemon serving handler.
func New(cfg *config.Config, st *store.Store, handler http.Handler, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil || handler == nil {
		return nil, errors.New("daemon requires config, store, and handler")
	}
	d := &Daemon{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(logger, "daemon"),
		store:         st,
		handler:       handler,
		lock:          flock.New(cfg.LockPath()),
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Daemon) jobs() []Job {
	return append([]Job{d.storySweep()}, d.extraJobs...)
}

// Start takes the instance lock, binds server.bind and starts serving and
// background jobs. It returns once the listener is bound.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.run != nil {
		return errors.New("daemon already running")
	}

	locked, err := d.lock.TryLock()
	switch {
	case err != nil:
		return fmt.Errorf("acquire lock %s: %w", d.lock.Path(), err)
	case !locked:
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", d.cfg.Server.Bind)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &running{listener: ln, cancel: cancel}
	r.server = api.HTTPServer(ln.Addr().String(), d.handler)
	r.server.BaseContext = func(net.Listener) context.Context { return runCtx }

	r.wg.Go(func() {
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(d.logger, "api server error", "api_server_failed", logging.Error(err))
		}
	})
	jobs := d.jobs()
	for _, job := range jobs {
		r.wg.Go(func() { job.loop(runCtx, d.logger) })
	}
	d.run = r

	d.logger.Info("marqueed started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("addr", ln.Addr().String()),
		logging.String("lock", d.lock.Path()),
		logging.Int("jobs", len(jobs)),
	)
	return nil
}

// Stop drains in-flight requests for server.shutdown_timeout_seconds, stops
// background jobs and releases the lock. It is a no-op when not running.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.run
	if r == nil {
		return
	}

	timeout := time.Duration(d.cfg.Server.ShutdownTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := r.server.Shutdown(shutdownCtx); err != nil {
		logging.WarnWithContext(d.logger, "graceful shutdown incomplete", "shutdown_timeout",
			logging.Error(err),
			logging.Duration("timeout", timeout),
			logging.String(logging.FieldImpact, "in-flight requests were cut off"),
		)
	}
	r.cancel()
	r.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.run = nil
	d.logger.Info("marqueed stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := Status{
		Running:      d.run != nil,
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lock.Path(),
	}
	if d.run != nil {
		status.Addr = d.run.listener.Addr().String()
		for _, job := range d.jobs() {
			status.Jobs = append(status.Jobs, job.Name)
		}
	}
	return status
}
