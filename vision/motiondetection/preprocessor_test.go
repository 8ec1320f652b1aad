package motiondetection

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestPreprocessorKeepsSize(t *testing.T) {
	pre, err := NewPreprocessor(image.Point{21, 21})
	test.That(t, err, test.ShouldBeNil)

	for _, img := range []image.Image{
		solidFrame(100, 100, 30),
		image.NewNRGBA(image.Rect(0, 0, 7, 3)),
		image.NewGray16(image.Rect(0, 0, 1, 1)),
		image.NewYCbCr(image.Rect(0, 0, 64, 48), image.YCbCrSubsampleRatio420),
		solidFrame(40, 40, 0).SubImage(image.Rect(10, 5, 30, 35)),
	} {
		out, err := pre.Process(img)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out.Bounds().Size(), test.ShouldResemble, img.Bounds().Size())
		test.That(t, out.ColorModel(), test.ShouldEqual, color.GrayModel)
	}
}

func TestPreprocessorSmooths(t *testing.T) {
	pre, err := NewPreprocessor(image.Point{5, 5})
	test.That(t, err, test.ShouldBeNil)

	img := solidFrame(21, 21, 0)
	img.Set(10, 10, color.RGBA{255, 255, 255, 255})
	out, err := pre.Process(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.GrayAt(10, 10).Y, test.ShouldBeLessThan, uint8(255))
	test.That(t, out.GrayAt(11, 10).Y, test.ShouldBeGreaterThan, uint8(0))

	// pure: input unchanged and repeatable
	again, err := pre.Process(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.Pix, test.ShouldResemble, out.Pix)
	test.That(t, img.RGBAAt(10, 10).R, test.ShouldEqual, uint8(255))
}

func TestPreprocessorInvalidFrames(t *testing.T) {
	pre, err := NewPreprocessor(image.Point{21, 21})
	test.That(t, err, test.ShouldBeNil)

	for _, img := range []image.Image{
		nil,
		image.NewRGBA(image.Rect(0, 0, 0, 10)),
		image.NewAlpha(image.Rect(0, 0, 10, 10)),
		image.NewAlpha16(image.Rect(0, 0, 10, 10)),
	} {
		_, err := pre.Process(img)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, IsInvalidFrameError(err), test.ShouldBeTrue)
	}
}

func TestNewPreprocessorErrors(t *testing.T) {
	for _, size := range []image.Point{{0, 21}, {20, 21}, {21, -1}, {21, 4}} {
		_, err := NewPreprocessor(size)
		test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
	}
}
