package camera

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
)

type resizeSource struct {
	src   VideoSource
	width int
}

// NewResizeSource wraps src so that frames wider than width are downscaled to width, keeping
// their aspect ratio. Narrower frames pass through untouched.
func NewResizeSource(src VideoSource, width int) VideoSource {
	return &resizeSource{src: src, width: width}
}

func (rs *resizeSource) Read(ctx context.Context) (image.Image, func(), error) {
	img, release, err := rs.src.Read(ctx)
	if err != nil {
		return nil, nil, err
	}
	if img.Bounds().Dx() <= rs.width {
		return img, release, nil
	}
	resized := imaging.Resize(img, rs.width, 0, imaging.Box)
	if release != nil {
		release()
	}
	return resized, func() {}, nil
}

func (rs *resizeSource) Close(ctx context.Context) error {
	return rs.src.Close(ctx)
}
