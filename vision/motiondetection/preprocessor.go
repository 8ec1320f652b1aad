package motiondetection

import (
	"image"
	"image/color"

	"go.viam.com/motiondetect/rimage"
)

// Preprocessor turns a color frame into a smoothed single channel image ready for differencing.
type Preprocessor struct {
	blurSize image.Point
}

// NewPreprocessor returns a Preprocessor that blurs with a blurSize.X by blurSize.Y gaussian.
// Both sizes must be positive and odd.
func NewPreprocessor(blurSize image.Point) (*Preprocessor, error) {
	if blurSize.X <= 0 || blurSize.X%2 == 0 || blurSize.Y <= 0 || blurSize.Y%2 == 0 {
		return nil, NewConfigurationError("blur_size", "must be a pair of positive odd numbers, got %v", blurSize)
	}
	return &Preprocessor{blurSize: blurSize}, nil
}

// Process converts img to luminance and smooths it. The result has the same width and height
// as img, starts at the origin, and never shares memory with img.
func (p *Preprocessor) Process(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, NewInvalidFrameError("frame is nil")
	}
	if img.Bounds().Empty() {
		return nil, NewInvalidFrameError("frame has zero area (%v)", img.Bounds())
	}
	switch img.ColorModel() {
	case color.AlphaModel, color.Alpha16Model:
		return nil, NewInvalidFrameError("unsupported channel layout %T", img)
	}
	return rimage.GaussianBlurGray(rimage.MakeGray(img), p.blurSize)
}
