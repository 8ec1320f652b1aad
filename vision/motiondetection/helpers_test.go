package motiondetection

import (
	"image"
	"image/color"
	"image/draw"
)

// solidFrame returns a w x h color frame filled with a single gray level.
func solidFrame(w, h int, level uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{level, level, level, 255}}, image.Point{}, draw.Src)
	return img
}

// frameWithSquare returns a copy of a solid frame with r filled by a bright square.
func frameWithSquare(w, h int, level uint8, r image.Rectangle, squareLevel uint8) *image.RGBA {
	img := solidFrame(w, h, level)
	draw.Draw(img, r, &image.Uniform{color.RGBA{squareLevel, squareLevel, squareLevel, 255}}, image.Point{}, draw.Src)
	return img
}

// grayWithRects returns a binary mask with every rectangle set to 255.
func grayWithRects(w, h int, rects ...image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for _, r := range rects {
		draw.Draw(img, r, &image.Uniform{color.Gray{255}}, image.Point{}, draw.Src)
	}
	return img
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
