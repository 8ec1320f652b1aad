package motiondetection

import (
	"context"
	"image"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/utils"
)

// DefaultMaxConsecutiveReadErrors is the number of back to back frame read failures after which
// a Runner gives up.
const DefaultMaxConsecutiveReadErrors = 30

// FrameSource supplies frames to a Runner. Read returns io.EOF once the stream is over. The
// returned release function is called when the runner no longer needs the image.
type FrameSource interface {
	Read(ctx context.Context) (image.Image, func(), error)
}

// RunnerConfig controls how frames flow from a source into the pipeline.
type RunnerConfig struct {
	// DropFrames keeps only the newest unprocessed frame when the pipeline falls behind.
	// Otherwise the reader waits for the pipeline.
	DropFrames bool `json:"drop_frames,omitempty"`
	// StatsInterval is the number of ticks between two latency reports. Zero disables them.
	StatsInterval int `json:"stats_interval,omitempty"`
	// MaxConsecutiveReadErrors is the number of failed reads in a row that aborts the run.
	MaxConsecutiveReadErrors int `json:"max_consecutive_read_errors,omitempty"`
}

// RunnerStats counts what happened to frames during a run.
type RunnerStats struct {
	Read       uint64
	Processed  uint64
	Skipped    uint64
	Dropped    uint64
	Events     uint64
	ReadErrors uint64
	SinkErrors uint64
}

type queuedFrame struct {
	frame   Frame
	release func()
}

// Runner pulls frames from a source on one goroutine and drives the pipeline, gate and sink on
// another, in arrival order.
type Runner struct {
	src      FrameSource
	pipeline *Pipeline
	gate     *EventGate
	sink     EventSink
	cfg      RunnerConfig
	clock    clock.Clock
	logger   logging.Logger

	inbox chan queuedFrame

	mu        sync.Mutex
	stats     RunnerStats
	durations []float64
	err       error
	cancel    context.CancelFunc
}

// NewRunner builds a Runner. clk stamps frames and measures latency; nil means the wall clock.
func NewRunner(
	src FrameSource,
	pipeline *Pipeline,
	gate *EventGate,
	sink EventSink,
	cfg RunnerConfig,
	clk clock.Clock,
	logger logging.Logger,
) (*Runner, error) {
	if src == nil {
		return nil, errors.New("motion detection runner must include a frame source to pull from")
	}
	if pipeline == nil {
		return nil, errors.New("motion detection runner pipeline cannot be nil")
	}
	if gate == nil {
		return nil, errors.New("motion detection runner event gate cannot be nil")
	}
	if sink == nil {
		sink = NewLogSink(logger)
	}
	if cfg.MaxConsecutiveReadErrors <= 0 {
		cfg.MaxConsecutiveReadErrors = DefaultMaxConsecutiveReadErrors
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Runner{
		src:      src,
		pipeline: pipeline,
		gate:     gate,
		sink:     sink,
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
	}, nil
}

// Run blocks until the source is exhausted, ctx is cancelled, or a fatal error occurs. Only
// fatal errors are returned: a misused background model or too many consecutive read failures.
// A Runner can only be run once.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.inbox != nil {
		r.mu.Unlock()
		return errors.New("runner has already been started")
	}
	r.inbox = make(chan queuedFrame, 1)
	r.cancel = cancel
	r.mu.Unlock()

	workers := utils.NewStoppableWorkersWithContext(ctx, r.produce, r.consume)
	workers.Wait()
	r.logStats()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Stats returns a snapshot of the run counters.
func (r *Runner) Stats() RunnerStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Runner) fail(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	cancel := r.cancel
	r.mu.Unlock()
	r.logger.Errorw("stopping motion detection", "error", err)
	cancel()
}

func (r *Runner) count(f func(s *RunnerStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f(&r.stats)
}

// produce reads frames until the source ends or ctx is done, then closes the inbox.
func (r *Runner) produce(ctx context.Context) {
	defer close(r.inbox)
	failures := 0
	for ctx.Err() == nil {
		img, release, err := r.src.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.logger.Info("frame source exhausted")
				return
			}
			if ctx.Err() != nil {
				return
			}
			failures++
			r.count(func(s *RunnerStats) { s.ReadErrors++ })
			r.logger.Warnw("failed to read frame", "error", err, "consecutive", failures)
			if failures >= r.cfg.MaxConsecutiveReadErrors {
				r.fail(errors.Wrapf(err, "giving up after %d consecutive frame read failures", failures))
				return
			}
			continue
		}
		failures = 0
		if release == nil {
			release = func() {}
		}
		r.count(func(s *RunnerStats) { s.Read++ })
		r.enqueue(ctx, queuedFrame{frame: Frame{Image: img, Timestamp: r.clock.Now()}, release: release})
	}
}

func (r *Runner) enqueue(ctx context.Context, qf queuedFrame) {
	if !r.cfg.DropFrames {
		select {
		case r.inbox <- qf:
		case <-ctx.Done():
			qf.release()
		}
		return
	}
	for {
		select {
		case r.inbox <- qf:
			return
		default:
		}
		select {
		case stale := <-r.inbox:
			stale.release()
			r.count(func(s *RunnerStats) { s.Dropped++ })
		default:
		}
	}
}

// consume drains the inbox in arrival order. Frames still queued after cancellation are released
// without processing.
func (r *Runner) consume(ctx context.Context) {
	for qf := range r.inbox {
		if ctx.Err() != nil {
			qf.release()
			continue
		}
		r.processOne(ctx, qf)
	}
}

func (r *Runner) processOne(ctx context.Context, qf queuedFrame) {
	defer qf.release()

	start := r.clock.Now()
	verdict, err := r.pipeline.Process(ctx, qf.frame)
	if err != nil {
		switch {
		case IsInvalidFrameError(err):
			r.count(func(s *RunnerStats) { s.Skipped++ })
			r.logger.Warnw("skipping frame", "error", err)
		case IsUninitializedModelError(err):
			r.fail(err)
		case ctx.Err() != nil:
		default:
			r.fail(errors.Wrap(err, "unexpected pipeline error"))
		}
		return
	}
	r.recordDuration(r.clock.Since(start))

	event, ok := r.gate.Offer(verdict, qf.frame.Image)
	if !ok {
		return
	}
	r.count(func(s *RunnerStats) { s.Events++ })
	if err := r.sink.Handle(ctx, event); err != nil {
		r.count(func(s *RunnerStats) { s.SinkErrors++ })
		r.logger.Errorw("failed to handle motion event", "counter", event.Counter, "error", err)
	}
}

func (r *Runner) recordDuration(d time.Duration) {
	r.mu.Lock()
	r.stats.Processed++
	if r.cfg.StatsInterval <= 0 {
		r.mu.Unlock()
		return
	}
	r.durations = append(r.durations, float64(d)/float64(time.Millisecond))
	report := len(r.durations) >= r.cfg.StatsInterval
	r.mu.Unlock()
	if report {
		r.logStats()
	}
}

// logStats reports mean and p95 latency over the ticks since the last report.
func (r *Runner) logStats() {
	r.mu.Lock()
	window := stats.Float64Data(r.durations)
	r.durations = nil
	snapshot := r.stats
	r.mu.Unlock()
	if len(window) == 0 {
		return
	}
	mean, err := window.Mean()
	if err != nil {
		return
	}
	p95, err := window.Percentile(95)
	if err != nil {
		return
	}
	r.logger.Infow("pipeline latency",
		"ticks", len(window),
		"mean_ms", mean,
		"p95_ms", p95,
		"processed", snapshot.Processed,
		"skipped", snapshot.Skipped,
		"dropped", snapshot.Dropped,
		"events", snapshot.Events,
	)
}
