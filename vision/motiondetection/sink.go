package motiondetection

import (
	"context"

	"go.uber.org/multierr"

	"go.viam.com/motiondetect/logging"
)

// EventSink consumes events produced by the gate.
type EventSink interface {
	Handle(ctx context.Context, event Event) error
	Close(ctx context.Context) error
}

type logSink struct {
	logger logging.Logger
}

// NewLogSink returns a sink that logs every event at info level.
func NewLogSink(logger logging.Logger) EventSink {
	return &logSink{logger: logger}
}

func (s *logSink) Handle(ctx context.Context, event Event) error {
	s.logger.Infow("motion event",
		"id", event.ID.String(),
		"counter", event.Counter,
		"tick", event.Verdict.Tick,
		"regions", event.Verdict.Regions,
		"timestamp", event.Verdict.Timestamp,
	)
	return nil
}

func (s *logSink) Close(ctx context.Context) error {
	return nil
}

type multiSink []EventSink

// NewMultiSink returns a sink that hands every event to each sink in order. One failing sink
// does not prevent the others from running; all errors are combined.
func NewMultiSink(sinks ...EventSink) EventSink {
	return multiSink(sinks)
}

func (ms multiSink) Handle(ctx context.Context, event Event) error {
	var err error
	for _, s := range ms {
		err = multierr.Combine(err, s.Handle(ctx, event))
	}
	return err
}

func (ms multiSink) Close(ctx context.Context) error {
	var err error
	for _, s := range ms {
		err = multierr.Combine(err, s.Close(ctx))
	}
	return err
}
