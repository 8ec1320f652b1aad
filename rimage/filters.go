package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Helper function for convolving matrices together, When used with i, dx := range makeRangeArray(n)
// i is the position within the kernel and dx gives the offset from the anchor.
// if length is even, then the origin is to the right of middle i.e. 4 -> {-2, -1, 0, 1}
func makeRangeArray(length int) []int {
	if length <= 0 {
		return make([]int, 0)
	}
	rangeArray := make([]int, length)
	var span int
	if length%2 == 0 {
		oddArr := makeRangeArray(length - 1)
		span = length / 2
		rangeArray = append([]int{-span}, oddArr...)
	} else {
		span = (length - 1) / 2
		for i := 0; i < span; i++ {
			rangeArray[length-1-i] = span - i
			rangeArray[i] = -span + i
		}
	}
	return rangeArray
}

// GaussianFunction1D takes in a sigma and returns a gaussian function useful for weighing averages or blurring.
func GaussianFunction1D(sigma float64) func(p float64) float64 {
	if sigma <= 0. {
		return func(p float64) float64 {
			return 1.
		}
	}
	return func(p float64) float64 {
		return math.Exp(-0.5*math.Pow(p, 2)/math.Pow(sigma, 2)) / (sigma * math.Sqrt(2.*math.Pi))
	}
}

// GaussianSigmaForSize returns the sigma conventionally paired with an odd kernel size when
// no sigma is given: 0.3*((k-1)*0.5-1)+0.8.
func GaussianSigmaForSize(size int) float64 {
	return 0.3*((float64(size)-1)*0.5-1) + 0.8
}

// GaussianKernel1D returns a normalized gaussian kernel of the given odd size.
func GaussianKernel1D(size int, sigma float64) ([]float64, error) {
	if size <= 0 || size%2 == 0 {
		return nil, errors.Errorf("gaussian kernel size must be a positive odd number, got %d", size)
	}
	gaus := GaussianFunction1D(sigma)
	kernel := make([]float64, size)
	sum := 0.
	for i, dx := range makeRangeArray(size) {
		kernel[i] = gaus(float64(dx))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel, nil
}

// GaussianBlurGray smooths a gray image with a ksize.X by ksize.Y gaussian whose sigmas are
// derived from the kernel sizes. Borders are reflected without repeating the edge pixel.
func GaussianBlurGray(img *image.Gray, ksize image.Point) (*image.Gray, error) {
	kernelX, err := GaussianKernel1D(ksize.X, GaussianSigmaForSize(ksize.X))
	if err != nil {
		return nil, err
	}
	kernelY, err := GaussianKernel1D(ksize.Y, GaussianSigmaForSize(ksize.Y))
	if err != nil {
		return nil, err
	}
	return ConvolveGraySeparable(img, kernelX, kernelY, BorderReflect101)
}
