// Package motiondetection decides, frame by frame, whether a video stream contains motion.
//
// Each frame is converted to a blurred grayscale image, compared against an exponentially
// weighted background estimate, thresholded and dilated into a mask, and split into connected
// regions. Regions smaller than a minimum area are discarded and any survivor means motion.
package motiondetection

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/motiondetect/logging"
)

// State is the lifecycle stage of a Pipeline.
type State int

const (
	// Uninitialized pipelines have not seen a frame yet.
	Uninitialized State = iota
	// Warming pipelines have initialized the background from their first frame but have not
	// produced a real verdict yet.
	Warming
	// Steady pipelines run every stage on every frame.
	Steady
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Warming:
		return "warming"
	case Steady:
		return "steady"
	}
	return "unknown"
}

// Frame is a single image from a frame source.
type Frame struct {
	Image     image.Image
	Timestamp time.Time
}

// Pipeline runs the detection stages over a stream of frames. Process may be called from any
// goroutine and updates the background exactly once per accepted frame. Preprocessing runs before
// the background lock is taken, so concurrent calls are applied in lock order rather than arrival
// order; callers that need frame order must call Process from a single goroutine, as Runner does.
type Pipeline struct {
	mu sync.Mutex

	policy       UpdatePolicy
	preprocessor *Preprocessor
	background   *BackgroundModel
	delta        *DeltaDetector
	extractor    *RegionExtractor
	logger       logging.Logger

	state State
	ticks uint64
}

// NewPipeline validates cfg and builds every stage from it.
func NewPipeline(cfg Config, logger logging.Logger) (*Pipeline, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	preprocessor, err := NewPreprocessor(cfg.BlurPoint())
	if err != nil {
		return nil, err
	}
	background, err := NewBackgroundModel(cfg.BackgroundAlpha)
	if err != nil {
		return nil, err
	}
	delta, err := NewDeltaDetector(cfg.DeltaThresh, cfg.DilateKernel, *cfg.DilateIterations)
	if err != nil {
		return nil, err
	}
	extractor, err := NewRegionExtractor(cfg.MinArea, cfg.Connectivity)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		policy:       cfg.BackgroundUpdate,
		preprocessor: preprocessor,
		background:   background,
		delta:        delta,
		extractor:    extractor,
		logger:       logger,
	}, nil
}

// State returns the current lifecycle stage.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Process runs one frame through the pipeline. The first accepted frame initializes the
// background and yields a Warmup verdict with Detected unset. An InvalidFrameError leaves the
// pipeline exactly as it was, so the caller can skip the frame and continue.
func (p *Pipeline) Process(ctx context.Context, frame Frame) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}
	processed, err := p.preprocessor.Process(frame.Image)
	if err != nil {
		return Verdict{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Uninitialized {
		if err := p.background.Initialize(processed); err != nil {
			return Verdict{}, err
		}
		p.state = Warming
		p.logger.Debugw("background initialized", "width", processed.Rect.Dx(), "height", processed.Rect.Dy())
		verdict := Decide(nil, frame.Timestamp)
		verdict.Warmup = true
		verdict.Tick = p.nextTick()
		return verdict, nil
	}

	if size := processed.Bounds().Size(); size != p.background.Size() {
		return Verdict{}, NewInvalidFrameError("frame size %v does not match background size %v",
			size, p.background.Size())
	}
	estimate, err := p.background.Estimate()
	if err != nil {
		return Verdict{}, err
	}
	mask, err := p.delta.Detect(processed, estimate)
	if err != nil {
		return Verdict{}, err
	}
	verdict := Decide(p.extractor.Extract(mask), frame.Timestamp)

	if p.policy == UpdateAlways || !verdict.Detected {
		if err := p.background.Update(processed); err != nil {
			return Verdict{}, errors.Wrap(err, "failed to update background")
		}
	}
	p.state = Steady
	verdict.Tick = p.nextTick()
	if verdict.Detected {
		p.logger.Debugw("motion detected", "tick", verdict.Tick, "regions", len(verdict.Regions))
	}
	return verdict, nil
}

func (p *Pipeline) nextTick() uint64 {
	tick := p.ticks
	p.ticks++
	return tick
}
