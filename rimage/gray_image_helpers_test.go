package rimage

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestMakeGray(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 9, 8))
	img.Set(5, 5, color.RGBA{R: 255, A: 255})
	img.Set(6, 5, color.RGBA{G: 255, A: 255})
	img.Set(7, 5, color.RGBA{B: 255, A: 255})
	img.Set(8, 7, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	gray := MakeGray(img)
	test.That(t, gray.Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 3))
	test.That(t, gray.GrayAt(0, 0).Y, test.ShouldEqual, uint8(76))
	test.That(t, gray.GrayAt(1, 0).Y, test.ShouldEqual, uint8(150))
	test.That(t, gray.GrayAt(2, 0).Y, test.ShouldEqual, uint8(29))
	test.That(t, gray.GrayAt(3, 2).Y, test.ShouldEqual, uint8(255))
	test.That(t, gray.GrayAt(1, 1).Y, test.ShouldEqual, uint8(0))

	// gray input is copied, not aliased
	again := MakeGray(gray)
	again.SetGray(0, 0, color.Gray{Y: 1})
	test.That(t, gray.GrayAt(0, 0).Y, test.ShouldEqual, uint8(76))
}

func TestAbsDiffGray(t *testing.T) {
	g1 := image.NewGray(image.Rect(0, 0, 3, 2))
	g2 := image.NewGray(image.Rect(0, 0, 3, 2))
	g1.SetGray(0, 0, color.Gray{Y: 10})
	g2.SetGray(0, 0, color.Gray{Y: 250})
	g1.SetGray(2, 1, color.Gray{Y: 200})
	g2.SetGray(2, 1, color.Gray{Y: 20})

	diff, err := AbsDiffGray(g1, g2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, diff.GrayAt(0, 0).Y, test.ShouldEqual, uint8(240))
	test.That(t, diff.GrayAt(2, 1).Y, test.ShouldEqual, uint8(180))
	test.That(t, CountNonZero(diff), test.ShouldEqual, 2)

	_, err = AbsDiffGray(g1, image.NewGray(image.Rect(0, 0, 2, 2)))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "aren't the same size")
}

func TestAbsDiffGraySubImage(t *testing.T) {
	big := image.NewGray(image.Rect(0, 0, 10, 10))
	big.SetGray(4, 4, color.Gray{Y: 99})
	sub := big.SubImage(image.Rect(3, 3, 6, 6)).(*image.Gray)
	zero := image.NewGray(image.Rect(0, 0, 3, 3))

	diff, err := AbsDiffGray(sub, zero)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, diff.GrayAt(1, 1).Y, test.ShouldEqual, uint8(99))
	test.That(t, CountNonZero(diff), test.ShouldEqual, 1)
}

func TestThresholdGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{Y: 5})
	img.SetGray(1, 0, color.Gray{Y: 6})
	img.SetGray(2, 0, color.Gray{Y: 255})

	mask := ThresholdGray(img, 5)
	test.That(t, mask.GrayAt(0, 0).Y, test.ShouldEqual, uint8(0))
	test.That(t, mask.GrayAt(1, 0).Y, test.ShouldEqual, uint8(255))
	test.That(t, mask.GrayAt(2, 0).Y, test.ShouldEqual, uint8(255))
}
