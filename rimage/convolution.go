package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/motiondetect/utils"
)

// BorderPad describes how pixels outside of the image are synthesized during a convolution.
type BorderPad int

const (
	// BorderReflect101 mirrors around the edge pixel without repeating it: dcb|abcd|cba.
	BorderReflect101 BorderPad = iota
	// BorderReplicate repeats the edge pixel: aaa|abcd|ddd.
	BorderReplicate
)

// borderIndex maps a possibly out of range index into [0, n).
func borderIndex(i, n int, border BorderPad) int {
	if i >= 0 && i < n {
		return i
	}
	if n == 1 {
		return 0
	}
	if border == BorderReplicate {
		return utils.MaxInt(0, utils.MinInt(i, n-1))
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}

// ConvolveGraySeparable convolves a gray image with the outer product of kernelX and kernelY.
// Both kernels must have odd length; their center is the anchor. Intermediate sums are kept in
// float64 and the result is rounded and clamped to [0, 255].
func ConvolveGraySeparable(img *image.Gray, kernelX, kernelY []float64, border BorderPad) (*image.Gray, error) {
	if len(kernelX)%2 == 0 || len(kernelY)%2 == 0 {
		return nil, errors.Errorf("separable kernels must have odd length, got %d and %d", len(kernelX), len(kernelY))
	}
	size := img.Bounds().Size()
	radiusX, radiusY := len(kernelX)/2, len(kernelY)/2

	// horizontal pass
	horizontal := make([]float64, size.X*size.Y)
	utils.ParallelForEachRow(size.Y, func(y int) {
		row := img.Pix[y*img.Stride : y*img.Stride+size.X]
		out := horizontal[y*size.X : (y+1)*size.X]
		for x := range out {
			sum := 0.
			for k, weight := range kernelX {
				sum += weight * float64(row[borderIndex(x+k-radiusX, size.X, border)])
			}
			out[x] = sum
		}
	})

	// vertical pass
	result := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	utils.ParallelForEachRow(size.Y, func(y int) {
		out := result.Pix[y*result.Stride : y*result.Stride+size.X]
		for x := range out {
			sum := 0.
			for k, weight := range kernelY {
				sum += weight * horizontal[borderIndex(y+k-radiusY, size.Y, border)*size.X+x]
			}
			out[x] = uint8(utils.ClampF64(math.Round(sum), 0, 255))
		}
	})
	return result, nil
}
