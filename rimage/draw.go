package rimage

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// Green is the color used to outline regions.
var Green = color.NRGBA{G: 255, A: 255}

// Red is the color used for captions.
var Red = color.NRGBA{R: 255, A: 255}

// DrawString writes a string to the given context with its baseline starting at p.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawString(text, float64(p.X), float64(p.Y))
}

// DrawRectangleEmpty draws the outline of the given rectangle into the context.
func DrawRectangleEmpty(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
}

// Annotate returns a copy of img with every rectangle outlined in Green and, when caption is
// not empty, the caption written in Red near the bottom left corner.
func Annotate(img image.Image, rects []image.Rectangle, caption string) image.Image {
	dc := gg.NewContextForImage(img)
	for _, r := range rects {
		DrawRectangleEmpty(dc, r, Green, 2)
	}
	if caption != "" {
		DrawString(dc, caption, image.Point{10, dc.Height() - 10}, Red, 14)
	}
	return dc.Image()
}
