package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"go.viam.com/motiondetect/components/camera"
	"go.viam.com/motiondetect/config"
	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/services/eventlog"
	"go.viam.com/motiondetect/services/evidence"
	"go.viam.com/motiondetect/vision/motiondetection"
)

// RunAction runs motion detection as configured until the camera ends or the process is
// interrupted.
func RunAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(generalFlagConfig))
	if err != nil {
		return err
	}
	logger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}
	// syncing stdout fails on some platforms
	defer goutils.UncheckedErrorFunc(logger.Sync)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, cfg, clock.New(), logger)
}

func newLogger(c *cli.Context, cfg *config.Config) (logging.Logger, error) {
	level, err := logging.LevelFromString(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Bool(generalFlagDebug) {
		level = logging.DEBUG
	}
	return logging.NewLoggerWithFile("motiondetect", level, cfg.Log.File), nil
}

// Run wires the camera, pipeline, event gate, sinks and retention described by cfg and blocks
// until the camera is exhausted, ctx is cancelled, or a fatal error occurs.
func Run(ctx context.Context, cfg *config.Config, clk clock.Clock, logger logging.Logger) (err error) {
	src, err := camera.NewFromConfig(ctx, cfg.Camera, logger.Sublogger("camera"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, src.Close(context.Background()))
	}()

	pipeline, err := motiondetection.NewPipeline(cfg.Detector, logger.Sublogger("pipeline"))
	if err != nil {
		return err
	}
	gate, err := motiondetection.NewEventGate(cfg.Events.Gate(), clk)
	if err != nil {
		return err
	}

	var events *eventlog.DB
	if cfg.Storage.EventLogPath != "" {
		events, err = eventlog.Open(cfg.Storage.EventLogPath, logger.Sublogger("eventlog"))
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Combine(err, events.Close())
		}()
	}

	sinks := []motiondetection.EventSink{motiondetection.NewLogSink(logger.Sublogger("events"))}
	switch {
	case cfg.Storage.EvidenceDir != "":
		store, err := evidence.NewStore(cfg.Storage.EvidenceDir, events, clk, logger.Sublogger("evidence"))
		if err != nil {
			return err
		}
		sinks = append(sinks, store)
	case events != nil:
		sinks = append(sinks, eventlog.NewSink(events))
	}
	sink := motiondetection.NewMultiSink(sinks...)
	defer func() {
		err = multierr.Combine(err, sink.Close(context.Background()))
	}()

	runner, err := motiondetection.NewRunner(src, pipeline, gate, sink, cfg.Events.Runner(), clk, logger.Sublogger("runner"))
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Storage.Retention > 0 {
		retention, err := evidence.NewRetention(
			cfg.Storage.EvidenceDir,
			events,
			cfg.Storage.Retention,
			cfg.Storage.SweepInterval,
			clk,
			logger.Sublogger("retention"),
		)
		if err != nil {
			return err
		}
		if err := retention.Start(); err != nil {
			return multierr.Combine(err, retention.Close())
		}
		g.Go(func() error {
			<-gctx.Done()
			return retention.Close()
		})
	}

	g.Go(func() error {
		defer cancel()
		return runner.Run(gctx)
	})

	logger.Infow("motion detection started", "camera", cfg.Camera.Model)
	err = g.Wait()
	stats := runner.Stats()
	logger.Infow("motion detection stopped",
		"read", stats.Read,
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"dropped", stats.Dropped,
		"events", stats.Events,
	)
	return err
}
