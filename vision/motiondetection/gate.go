package motiondetection

import (
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// GateConfig debounces verdicts into events.
type GateConfig struct {
	// MinMotionFrames is the number of consecutive detected frames needed before an event is
	// emitted. Zero means 1.
	MinMotionFrames int `json:"min_motion_frames,omitempty"`
	// MinEventInterval is the minimum time between two events.
	MinEventInterval time.Duration `json:"min_event_interval,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg GateConfig) Validate() error {
	if cfg.MinMotionFrames < 0 {
		return NewConfigurationError("min_motion_frames", "must not be negative, got %d", cfg.MinMotionFrames)
	}
	if cfg.MinEventInterval < 0 {
		return NewConfigurationError("min_event_interval", "must not be negative, got %v", cfg.MinEventInterval)
	}
	return nil
}

// Event is a verdict that passed the gate, along with the frame it was computed from.
type Event struct {
	ID      uuid.UUID
	Verdict Verdict
	Frame   image.Image
	// Counter numbers events from 1 in emission order.
	Counter uint64
}

// EventGate decides which detected verdicts become events.
type EventGate struct {
	mu          sync.Mutex
	cfg         GateConfig
	clock       clock.Clock
	consecutive int
	lastEvent   time.Time
	emitted     uint64
}

// NewEventGate returns a gate using clk to measure event intervals.
func NewEventGate(cfg GateConfig, clk clock.Clock) (*EventGate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MinMotionFrames == 0 {
		cfg.MinMotionFrames = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	return &EventGate{cfg: cfg, clock: clk}, nil
}

// Offer feeds a verdict to the gate and returns an event when it should be reported. Warmup
// verdicts are ignored and a verdict without motion resets the consecutive count.
func (g *EventGate) Offer(verdict Verdict, frame image.Image) (Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if verdict.Warmup {
		return Event{}, false
	}
	if !verdict.Detected {
		g.consecutive = 0
		return Event{}, false
	}
	g.consecutive++
	if g.consecutive < g.cfg.MinMotionFrames {
		return Event{}, false
	}
	now := g.clock.Now()
	if g.emitted > 0 && now.Sub(g.lastEvent) < g.cfg.MinEventInterval {
		return Event{}, false
	}
	g.consecutive = 0
	g.lastEvent = now
	g.emitted++
	return Event{
		ID:      uuid.New(),
		Verdict: verdict,
		Frame:   frame,
		Counter: g.emitted,
	}, true
}

// Emitted returns the number of events emitted so far.
func (g *EventGate) Emitted() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.emitted
}
