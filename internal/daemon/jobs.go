package daemon

import (
	"context"
	"log/slog"
	"time"

	"marquee/internal/logging"
)

// Job is background work the daemon runs once at start and then every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
	// Impact is logged when Run fails.
	Impact string
}

func (j Job) loop(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		j.runOnce(ctx, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (j Job) runOnce(ctx context.Context, logger *slog.Logger) {
	err := j.Run(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}
	impact := j.Impact
	if impact == "" {
		impact = "retried on the next interval"
	}
	logging.WarnWithContext(logger, "background job failed", "background_job_failed",
		logging.String("job", j.Name),
		logging.Duration("interval", j.Interval),
		logging.Error(err),
		logging.String(logging.FieldImpact, impact),
	)
}

func (d *Daemon) storySweep() Job {
	return Job{
		Name:     "story_sweep",
		Interval: d.sweepInterval,
		Impact:   "expired stories stay in the database until the next sweep",
		Run: func(ctx context.Context) error {
			purged, err := d.store.PurgeExpiredStories(ctx)
			if err != nil {
				return err
			}
			if purged > 0 {
				d.logger.Info("expired stories purged",
					logging.String(logging.FieldEventType, "stories_purged"),
					logging.Int64("count", purged),
				)
			}
			return nil
		},
	}
}
