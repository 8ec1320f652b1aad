package motiondetection

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/motiondetect/utils"
)

// BackgroundModel is an exponentially weighted running average of the static scene. It is not
// safe for concurrent use; the Pipeline serializes access to it.
type BackgroundModel struct {
	alpha    float64
	estimate *mat.Dense
}

// NewBackgroundModel returns an uninitialized model that blends new frames with weight alpha.
func NewBackgroundModel(alpha float64) (*BackgroundModel, error) {
	if alpha <= 0 || alpha > 1 || math.IsNaN(alpha) {
		return nil, NewConfigurationError("background_alpha", "must be in (0, 1], got %v", alpha)
	}
	return &BackgroundModel{alpha: alpha}, nil
}

// Initialized returns whether Initialize has been called.
func (bm *BackgroundModel) Initialized() bool {
	return bm.estimate != nil
}

// Size returns the width and height of the model, or the zero point before initialization.
func (bm *BackgroundModel) Size() image.Point {
	if bm.estimate == nil {
		return image.Point{}
	}
	rows, cols := bm.estimate.Dims()
	return image.Point{cols, rows}
}

// Initialize sets the estimate to a floating point copy of frame. It may only be called once.
func (bm *BackgroundModel) Initialize(frame *image.Gray) error {
	if bm.Initialized() {
		return errors.New("background model is already initialized")
	}
	size := frame.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return NewInvalidFrameError("cannot initialize background from an empty frame")
	}
	data := make([]float64, size.X*size.Y)
	for y := 0; y < size.Y; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+size.X]
		for x, v := range row {
			data[y*size.X+x] = float64(v)
		}
	}
	bm.estimate = mat.NewDense(size.Y, size.X, data)
	return nil
}

// Update blends frame into the estimate in place: estimate = (1-alpha)*estimate + alpha*frame.
func (bm *BackgroundModel) Update(frame *image.Gray) error {
	if !bm.Initialized() {
		return &UninitializedModelError{Op: "update"}
	}
	if err := bm.checkSize(frame); err != nil {
		return err
	}
	raw := bm.estimate.RawMatrix()
	keep := 1 - bm.alpha
	utils.ParallelForEachRow(raw.Rows, func(y int) {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+raw.Cols]
		est := raw.Data[y*raw.Stride : y*raw.Stride+raw.Cols]
		for x, v := range row {
			est[x] = keep*est[x] + bm.alpha*float64(v)
		}
	})
	return nil
}

// Estimate returns the current background as an 8 bit image. Values are rounded half to even
// and saturated to [0, 255].
func (bm *BackgroundModel) Estimate() (*image.Gray, error) {
	if !bm.Initialized() {
		return nil, &UninitializedModelError{Op: "estimate"}
	}
	raw := bm.estimate.RawMatrix()
	result := image.NewGray(image.Rect(0, 0, raw.Cols, raw.Rows))
	utils.ParallelForEachRow(raw.Rows, func(y int) {
		est := raw.Data[y*raw.Stride : y*raw.Stride+raw.Cols]
		out := result.Pix[y*result.Stride : y*result.Stride+raw.Cols]
		for x, v := range est {
			out[x] = uint8(utils.ClampF64(math.RoundToEven(v), 0, 255))
		}
	})
	return result, nil
}

// At returns the unrounded estimate at (x, y).
func (bm *BackgroundModel) At(x, y int) (float64, error) {
	if !bm.Initialized() {
		return 0, &UninitializedModelError{Op: "at"}
	}
	return bm.estimate.At(y, x), nil
}

func (bm *BackgroundModel) checkSize(frame *image.Gray) error {
	if size := frame.Bounds().Size(); size != bm.Size() {
		return NewInvalidFrameError("frame size %v does not match background size %v", size, bm.Size())
	}
	return nil
}
