package rimage

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestAnnotate(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 80))
	annotated := Annotate(img, []image.Rectangle{image.Rect(20, 20, 60, 50)}, "Monday 01 January 2024 10:00:00AM")
	test.That(t, annotated.Bounds(), test.ShouldResemble, img.Bounds())

	edge := color.NRGBAModel.Convert(annotated.At(40, 20)).(color.NRGBA)
	test.That(t, edge.G, test.ShouldBeGreaterThan, uint8(100))
	test.That(t, edge.R, test.ShouldEqual, uint8(0))

	inside := color.NRGBAModel.Convert(annotated.At(40, 35)).(color.NRGBA)
	test.That(t, inside.G, test.ShouldEqual, uint8(0))

	redPixels := 0
	for y := 60; y < 80; y++ {
		for x := 0; x < 100; x++ {
			c := color.NRGBAModel.Convert(annotated.At(x, y)).(color.NRGBA)
			if c.R > 100 && c.G < 50 {
				redPixels++
			}
		}
	}
	test.That(t, redPixels, test.ShouldBeGreaterThan, 0)

	// source untouched
	test.That(t, CountNonZero(img), test.ShouldEqual, 0)
}
