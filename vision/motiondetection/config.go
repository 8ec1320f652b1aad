package motiondetection

import (
	"image"
)

// UpdatePolicy controls when the background model absorbs the current frame.
type UpdatePolicy string

const (
	// UpdateAlways blends every frame into the background, including frames with motion.
	// Persistent motion is therefore slowly absorbed and stops being reported.
	UpdateAlways UpdatePolicy = "always"
	// UpdateWhenStill only blends frames in which no motion was detected.
	UpdateWhenStill UpdatePolicy = "when_still"
)

// Default detector values.
const (
	DefaultBlurSize         = 21
	DefaultDeltaThresh      = 5
	DefaultMinArea          = 5000
	DefaultBackgroundAlpha  = 0.5
	DefaultDilateKernel     = 3
	DefaultDilateIterations = 2
)

// Config holds the detector options. The zero value of every optional field selects its default.
type Config struct {
	BlurSize         [2]int       `json:"blur_size"`
	DeltaThresh      int          `json:"delta_thresh"`
	MinArea          int          `json:"min_area"`
	BackgroundAlpha  float64      `json:"background_alpha"`
	BackgroundUpdate UpdatePolicy `json:"background_update,omitempty"`
	DilateKernel     int          `json:"dilate_kernel,omitempty"`
	DilateIterations *int         `json:"dilate_iterations,omitempty"`
	Connectivity     Connectivity `json:"connectivity,omitempty"`
}

// DefaultConfig returns the detector configuration used when nothing is specified.
func DefaultConfig() Config {
	iterations := DefaultDilateIterations
	return Config{
		BlurSize:         [2]int{DefaultBlurSize, DefaultBlurSize},
		DeltaThresh:      DefaultDeltaThresh,
		MinArea:          DefaultMinArea,
		BackgroundAlpha:  DefaultBackgroundAlpha,
		BackgroundUpdate: UpdateAlways,
		DilateKernel:     DefaultDilateKernel,
		DilateIterations: &iterations,
		Connectivity:     Connectivity8,
	}
}

// BlurPoint returns the blur kernel size as an image.Point.
func (cfg Config) BlurPoint() image.Point {
	return image.Point{cfg.BlurSize[0], cfg.BlurSize[1]}
}

// WithDefaults returns a copy of cfg with every unset optional field filled in.
func (cfg Config) WithDefaults() Config {
	if cfg.BackgroundUpdate == "" {
		cfg.BackgroundUpdate = UpdateAlways
	}
	if cfg.DilateKernel == 0 {
		cfg.DilateKernel = DefaultDilateKernel
	}
	if cfg.DilateIterations == nil {
		iterations := DefaultDilateIterations
		cfg.DilateIterations = &iterations
	}
	if cfg.Connectivity == 0 {
		cfg.Connectivity = Connectivity8
	}
	return cfg
}

// Validate ensures all parts of the config are valid. Optional fields are checked after
// defaults are applied.
func (cfg Config) Validate() error {
	cfg = cfg.WithDefaults()
	for i, name := range []string{"blur_size[0]", "blur_size[1]"} {
		if size := cfg.BlurSize[i]; size <= 0 || size%2 == 0 {
			return NewConfigurationError(name, "must be a positive odd number, got %d", size)
		}
	}
	if cfg.DeltaThresh <= 0 || cfg.DeltaThresh > 255 {
		return NewConfigurationError("delta_thresh", "must be in (0, 255], got %d", cfg.DeltaThresh)
	}
	if cfg.MinArea <= 0 {
		return NewConfigurationError("min_area", "must be positive, got %d", cfg.MinArea)
	}
	if cfg.BackgroundAlpha <= 0 || cfg.BackgroundAlpha > 1 {
		return NewConfigurationError("background_alpha", "must be in (0, 1], got %v", cfg.BackgroundAlpha)
	}
	switch cfg.BackgroundUpdate {
	case UpdateAlways, UpdateWhenStill:
	default:
		return NewConfigurationError("background_update", "must be %q or %q, got %q",
			UpdateAlways, UpdateWhenStill, cfg.BackgroundUpdate)
	}
	if cfg.DilateKernel <= 0 || cfg.DilateKernel%2 == 0 {
		return NewConfigurationError("dilate_kernel", "must be a positive odd number, got %d", cfg.DilateKernel)
	}
	if *cfg.DilateIterations < 0 {
		return NewConfigurationError("dilate_iterations", "must not be negative, got %d", *cfg.DilateIterations)
	}
	if cfg.Connectivity != Connectivity4 && cfg.Connectivity != Connectivity8 {
		return NewConfigurationError("connectivity", "must be 4 or 8, got %d", cfg.Connectivity)
	}
	return nil
}
