// Package evidence writes annotated frames for motion events to disk and prunes old ones.
package evidence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/rimage"
	"go.viam.com/motiondetect/services/eventlog"
	"go.viam.com/motiondetect/vision/motiondetection"
)

const (
	// DateDirLayout names the per day directories under the store root.
	DateDirLayout = "2006-01-02"
	// FileTimeLayout prefixes every evidence file name.
	FileTimeLayout = "20060102T150405.000000"
	// CaptionLayout is the timestamp drawn onto evidence frames.
	CaptionLayout = "Monday 02 January 2006 03:04:05PM"
)

// Store is a motiondetection.EventSink that saves each event's frame, with its regions outlined,
// as a JPEG and indexes it in the event log.
type Store struct {
	mu     sync.Mutex
	root   string
	events *eventlog.DB
	clock  clock.Clock
	logger logging.Logger
}

// NewStore returns a store writing under root. events may be nil, in which case nothing is
// indexed.
func NewStore(root string, events *eventlog.DB, clk clock.Clock, logger logging.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New("evidence root directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create evidence directory %q", root)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Store{root: root, events: events, clock: clk, logger: logger}, nil
}

// Root returns the directory evidence is written under.
func (s *Store) Root() string {
	return s.root
}

// PathFor returns where the evidence of the event numbered counter and stamped ts is written.
func (s *Store) PathFor(ts time.Time, counter uint64) string {
	name := fmt.Sprintf("%s_%d.jpg", ts.Format(FileTimeLayout), counter)
	return filepath.Join(s.root, ts.Format(DateDirLayout), name)
}

// Handle writes the annotated frame and records the event. Events without a timestamp are
// stamped with the store's clock.
func (s *Store) Handle(ctx context.Context, event motiondetection.Event) error {
	if event.Verdict.Timestamp.IsZero() {
		event.Verdict.Timestamp = s.clock.Now()
	}
	path := ""
	if event.Frame != nil {
		path = s.PathFor(event.Verdict.Timestamp, event.Counter)
		if err := s.write(path, event); err != nil {
			return err
		}
	} else {
		s.logger.Debugw("event has no frame, only recording it", "id", event.ID.String())
	}
	if s.events == nil {
		return nil
	}
	return s.events.Record(ctx, eventlog.EntryFromEvent(event, path))
}

func (s *Store) write(path string, event motiondetection.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrap(err, "cannot create evidence day directory")
	}
	caption := event.Verdict.Timestamp.Format(CaptionLayout)
	annotated := rimage.Annotate(event.Frame, event.Verdict.Rects(), caption)
	if err := rimage.WriteImageToFile(path, annotated); err != nil {
		return errors.Wrapf(err, "cannot write evidence for event %s", event.ID)
	}
	s.logger.Debugw("wrote evidence", "path", path, "regions", len(event.Verdict.Regions))
	return nil
}

// Close does nothing; the event log is owned by the caller.
func (s *Store) Close(ctx context.Context) error {
	return nil
}
