package motiondetection

import (
	"image"
	"time"
)

// Verdict is the per frame motion decision.
type Verdict struct {
	Detected  bool      `json:"detected"`
	Regions   []Region  `json:"regions"`
	Timestamp time.Time `json:"timestamp"`
	// Tick is the zero based index of the frame among the frames the pipeline accepted.
	Tick uint64 `json:"tick"`
	// Warmup is set on the frame that initialized the background. It is never a candidate event.
	Warmup bool `json:"warmup,omitempty"`
}

// Decide reports motion when at least one region survived filtering.
func Decide(regions []Region, ts time.Time) Verdict {
	if regions == nil {
		regions = []Region{}
	}
	return Verdict{
		Detected:  len(regions) > 0,
		Regions:   regions,
		Timestamp: ts,
	}
}

// Rects returns the bounding boxes of the verdict's regions.
func (v Verdict) Rects() []image.Rectangle {
	rects := make([]image.Rectangle, 0, len(v.Regions))
	for _, r := range v.Regions {
		rects = append(rects, r.Rect())
	}
	return rects
}
