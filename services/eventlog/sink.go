package eventlog

import (
	"context"

	"go.viam.com/motiondetect/vision/motiondetection"
)

type sink struct {
	db *DB
}

// NewSink returns an event sink that only records events, without any evidence.
func NewSink(db *DB) motiondetection.EventSink {
	return &sink{db: db}
}

func (s *sink) Handle(ctx context.Context, event motiondetection.Event) error {
	return s.db.Record(ctx, EntryFromEvent(event, ""))
}

// Close leaves the database open; it belongs to whoever opened it.
func (s *sink) Close(ctx context.Context) error {
	return nil
}
