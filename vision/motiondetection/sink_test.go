package motiondetection

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/motiondetect/logging"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
	closed bool
}

func (s *recordingSink) Handle(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.err
}

func (s *recordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestLogSink(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	sink := NewLogSink(logger)
	event := Event{ID: uuid.New(), Verdict: detected(4), Counter: 1}
	test.That(t, sink.Handle(context.Background(), event), test.ShouldBeNil)
	test.That(t, sink.Close(context.Background()), test.ShouldBeNil)

	entries := logs.FilterMessage("motion event").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["id"], test.ShouldEqual, event.ID.String())
	test.That(t, entries[0].ContextMap()["counter"], test.ShouldEqual, uint64(1))
}

func TestMultiSink(t *testing.T) {
	good := &recordingSink{}
	bad := &recordingSink{err: errors.New("disk full")}
	other := &recordingSink{}
	sink := NewMultiSink(good, bad, other)

	err := sink.Handle(context.Background(), Event{Counter: 1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "disk full")
	test.That(t, good.Events(), test.ShouldHaveLength, 1)
	test.That(t, other.Events(), test.ShouldHaveLength, 1)

	err = sink.Close(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, good.closed, test.ShouldBeTrue)
	test.That(t, other.closed, test.ShouldBeTrue)

	test.That(t, NewMultiSink().Handle(context.Background(), Event{}), test.ShouldBeNil)
}
