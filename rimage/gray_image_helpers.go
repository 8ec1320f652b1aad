package rimage

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"

	"go.viam.com/motiondetect/utils"
)

// SameImgSize compares images to see if they're the same size.
func SameImgSize(g1, g2 image.Image) bool {
	return g1.Bounds().Size() == g2.Bounds().Size()
}

// MakeGray takes any image and makes it gray (image.Gray) using the standard luminance weights.
// The result always starts at the origin and never aliases the input.
func MakeGray(pic image.Image) *image.Gray {
	result := image.NewGray(image.Rect(0, 0, pic.Bounds().Dx(), pic.Bounds().Dy()))
	draw.Draw(result, result.Bounds(), pic, pic.Bounds().Min, draw.Src)
	return result
}

// AbsDiffGray computes |g1 - g2| for every pixel.
func AbsDiffGray(g1, g2 *image.Gray) (*image.Gray, error) {
	if !SameImgSize(g1, g2) {
		return nil, errors.Errorf("these images aren't the same size (%d %d) != (%d %d)",
			g1.Bounds().Dx(), g1.Bounds().Dy(), g2.Bounds().Dx(), g2.Bounds().Dy())
	}
	size := g1.Bounds().Size()
	result := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	utils.ParallelForEachRow(size.Y, func(y int) {
		row1 := g1.Pix[y*g1.Stride : y*g1.Stride+size.X]
		row2 := g2.Pix[y*g2.Stride : y*g2.Stride+size.X]
		out := result.Pix[y*result.Stride : y*result.Stride+size.X]
		for x := range out {
			out[x] = uint8(utils.AbsInt(int(row1[x]) - int(row2[x])))
		}
	})
	return result, nil
}

// ThresholdGray binarizes a gray image: pixels strictly greater than threshold become 255 and
// every other pixel becomes 0.
func ThresholdGray(pic *image.Gray, threshold uint8) *image.Gray {
	size := pic.Bounds().Size()
	result := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	utils.ParallelForEachPixel(size, func(x, y int) {
		if pic.Pix[y*pic.Stride+x] > threshold {
			result.Pix[y*result.Stride+x] = 255
		}
	})
	return result
}

// CountNonZero returns the number of pixels that are not black.
func CountNonZero(pic *image.Gray) int {
	size := pic.Bounds().Size()
	count := 0
	for y := 0; y < size.Y; y++ {
		for _, v := range pic.Pix[y*pic.Stride : y*pic.Stride+size.X] {
			if v != 0 {
				count++
			}
		}
	}
	return count
}
