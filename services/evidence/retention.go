package evidence

import (
	"context"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/services/eventlog"
	"go.viam.com/motiondetect/utils"
)

// DefaultSweepInterval is how often retention runs when no interval is configured.
const DefaultSweepInterval = time.Hour

// SweepResult reports what a retention sweep removed.
type SweepResult struct {
	Directories int
	Events      int64
}

// Retention periodically removes evidence day directories and event log entries older than a
// maximum age.
type Retention struct {
	root      string
	events    *eventlog.DB
	maxAge    time.Duration
	interval  time.Duration
	clock     clock.Clock
	logger    logging.Logger
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
	ctx       context.Context
}

// NewRetention returns a retention sweeper. An empty root or a nil events only prunes the other.
// It does nothing until Start is called.
func NewRetention(
	root string,
	events *eventlog.DB,
	maxAge, interval time.Duration,
	clk clock.Clock,
	logger logging.Logger,
) (*Retention, error) {
	if maxAge <= 0 {
		return nil, errors.Errorf("retention must be positive, got %v", maxAge)
	}
	if interval < 0 {
		return nil, errors.Errorf("sweep interval must not be negative, got %v", interval)
	}
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Retention{
		root:      root,
		events:    events,
		maxAge:    maxAge,
		interval:  interval,
		clock:     clk,
		logger:    logger,
		scheduler: scheduler,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start sweeps once before returning and then schedules a sweep every interval. A sweep that
// overruns the interval delays the next one instead of overlapping it.
func (r *Retention) Start() error {
	r.sweepAndLog()
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.sweepAndLog),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.Wrap(err, "cannot schedule retention sweep")
	}
	r.scheduler.Start()
	r.logger.Infow("retention started", "max_age", r.maxAge, "interval", r.interval)
	return nil
}

func (r *Retention) sweepAndLog() {
	res, err := r.Sweep(r.ctx)
	if err != nil {
		r.logger.Warnw("retention sweep failed", "error", err)
	}
	if res.Directories > 0 || res.Events > 0 {
		r.logger.Infow("retention sweep", "directories", res.Directories, "events", res.Events)
	}
}

// Sweep removes everything older than the maximum age. A day directory is only removed once
// its whole day is older than the cutoff.
func (r *Retention) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	cutoff := r.clock.Now().Add(-r.maxAge)

	var entries []os.DirEntry
	if r.root != "" {
		var err error
		entries, err = os.ReadDir(r.root)
		if err != nil && !os.IsNotExist(err) {
			return res, err
		}
	}
	var errs error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		day, err := time.ParseInLocation(DateDirLayout, entry.Name(), cutoff.Location())
		if err != nil {
			continue
		}
		if day.AddDate(0, 0, 1).After(cutoff) {
			continue
		}
		dir, err := utils.SafeJoinDir(r.root, entry.Name())
		if err != nil {
			errs = multierr.Combine(errs, err)
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			errs = multierr.Combine(errs, err)
			continue
		}
		res.Directories++
	}

	if r.events != nil {
		removed, err := r.events.DeleteBefore(ctx, cutoff)
		errs = multierr.Combine(errs, err)
		res.Events = removed
	}
	return res, errs
}

// Close stops the scheduler and waits for a running sweep to finish.
func (r *Retention) Close() error {
	r.cancel()
	return r.scheduler.Shutdown()
}
