package motiondetection

import (
	"image"

	"go.viam.com/motiondetect/rimage"
)

// DeltaDetector turns the difference between a frame and the background into a binary mask.
type DeltaDetector struct {
	threshold        uint8
	dilateKernel     int
	dilateIterations int
}

// NewDeltaDetector returns a DeltaDetector marking pixels whose difference exceeds threshold,
// then dilating the mask dilateIterations times with a dilateKernel square.
func NewDeltaDetector(threshold, dilateKernel, dilateIterations int) (*DeltaDetector, error) {
	if threshold <= 0 || threshold > 255 {
		return nil, NewConfigurationError("delta_thresh", "must be in (0, 255], got %d", threshold)
	}
	if dilateKernel <= 0 || dilateKernel%2 == 0 {
		return nil, NewConfigurationError("dilate_kernel", "must be a positive odd number, got %d", dilateKernel)
	}
	if dilateIterations < 0 {
		return nil, NewConfigurationError("dilate_iterations", "must not be negative, got %d", dilateIterations)
	}
	return &DeltaDetector{
		threshold:        uint8(threshold),
		dilateKernel:     dilateKernel,
		dilateIterations: dilateIterations,
	}, nil
}

// Detect returns a mask of the same size as current with foreground pixels set to 255.
func (dd *DeltaDetector) Detect(current, estimate *image.Gray) (*image.Gray, error) {
	if !rimage.SameImgSize(current, estimate) {
		return nil, NewInvalidFrameError("frame size %v does not match background size %v",
			current.Bounds().Size(), estimate.Bounds().Size())
	}
	diff, err := rimage.AbsDiffGray(current, estimate)
	if err != nil {
		return nil, err
	}
	mask := rimage.ThresholdGray(diff, dd.threshold)
	return rimage.DilateSquareGray(mask, dd.dilateKernel, dd.dilateIterations)
}
