package rimage

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/motiondetect/utils"
)

// DilateSquareGray applies a kernelSize x kernelSize max filter to a gray image iterations
// times. Pixels outside of the image do not take part in the maximum.
func DilateSquareGray(img *image.Gray, kernelSize, iterations int) (*image.Gray, error) {
	if kernelSize <= 0 || kernelSize%2 == 0 {
		return nil, errors.Errorf("kernel size must be a positive odd number, got %d", kernelSize)
	}
	if iterations < 0 {
		return nil, errors.Errorf("iterations must not be negative, got %d", iterations)
	}
	size := img.Bounds().Size()
	current := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		copy(current.Pix[y*current.Stride:y*current.Stride+size.X], img.Pix[y*img.Stride:y*img.Stride+size.X])
	}
	for i := 0; i < iterations; i++ {
		current = dilateOnce(current, kernelSize/2)
	}
	return current, nil
}

// dilateOnce runs the max filter as a row pass followed by a column pass; a square structuring
// element is separable.
func dilateOnce(img *image.Gray, radius int) *image.Gray {
	size := img.Bounds().Size()
	rows := image.NewGray(img.Bounds())
	utils.ParallelForEachRow(size.Y, func(y int) {
		in := img.Pix[y*img.Stride : y*img.Stride+size.X]
		out := rows.Pix[y*rows.Stride : y*rows.Stride+size.X]
		for x := range out {
			lo, hi := utils.MaxInt(0, x-radius), utils.MinInt(size.X-1, x+radius)
			var best uint8
			for _, v := range in[lo : hi+1] {
				if v > best {
					best = v
				}
			}
			out[x] = best
		}
	})

	result := image.NewGray(img.Bounds())
	utils.ParallelForEachRow(size.Y, func(y int) {
		lo, hi := utils.MaxInt(0, y-radius), utils.MinInt(size.Y-1, y+radius)
		out := result.Pix[y*result.Stride : y*result.Stride+size.X]
		for x := range out {
			var best uint8
			for yy := lo; yy <= hi; yy++ {
				if v := rows.Pix[yy*rows.Stride+x]; v > best {
					best = v
				}
			}
			out[x] = best
		}
	})
	return result
}
