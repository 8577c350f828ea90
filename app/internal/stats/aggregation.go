package stats

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Retention of each rollup table and of raw heartbeats.
const (
	MinutelyRetention           = 24 * time.Hour
	HourlyRetention             = 30 * 24 * time.Hour
	DailyRetention              = 365 * 24 * time.Hour
	HeartbeatRetention          = 24 * time.Hour
	ImportantHeartbeatRetention = 7 * 24 * time.Hour
)

// RollupStore folds finer rollups into coarser ones and prunes expired data.
// Aggregations replace target rows so re-running them never double counts.
type RollupStore interface {
	AggregateHourly(ctx context.Context, now time.Time) (int, error)
	AggregateDaily(ctx context.Context, now time.Time) (int, error)
	CleanupHeartbeats(ctx context.Context, now time.Time) (int64, error)
}

// Job names used for scheduling, logs and metrics.
const (
	JobHourly  = "hourly"
	JobDaily   = "daily"
	JobCleanup = "cleanup"
)

// Scheduler runs the rollup jobs in the background.
type Scheduler struct {
	cron    *cron.Cron
	store   RollupStore
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewScheduler creates a stopped scheduler. Call Start to begin running jobs.
func NewScheduler(store RollupStore, log *zap.Logger, opts ...Option) *Scheduler {
	o := buildOptions(opts)
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		store:   store,
		log:     log,
		metrics: o.metrics,
		now:     o.now,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
	}{
		{"1 * * * *", JobHourly},
		{"5 0 * * *", JobDaily},
		{"30 * * * *", JobCleanup},
	}
	for _, j := range jobs {
		name := j.name
		if _, err := s.cron.AddFunc(j.spec, func() { _ = s.Run(context.Background(), name) }); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.log.Info("rollup_scheduler_started", zap.Int("jobs", len(jobs)))
	return nil
}

// Stop stops scheduling new runs and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Run executes one job immediately. Errors are logged and returned.
func (s *Scheduler) Run(ctx context.Context, job string) error {
	now := s.now().UTC()
	started := time.Now()

	var (
		n   int64
		err error
	)
	switch job {
	case JobHourly:
		var rows int
		rows, err = s.store.AggregateHourly(ctx, now)
		n = int64(rows)
	case JobDaily:
		var rows int
		rows, err = s.store.AggregateDaily(ctx, now)
		n = int64(rows)
	case JobCleanup:
		n, err = s.store.CleanupHeartbeats(ctx, now)
	default:
		s.log.Warn("rollup_unknown_job", zap.String("job", job))
		return nil
	}

	s.metrics.observeRollup(job, err)
	if err != nil {
		s.log.Error("rollup_failed", zap.String("job", job), zap.Error(err))
		return err
	}
	s.log.Info("rollup_done",
		zap.String("job", job),
		zap.Int64("rows", n),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}
