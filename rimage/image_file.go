package rimage

import (
	"bufio"
	"image"
	// register gif for image.Decode.
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"go.uber.org/multierr"
	"golang.org/x/image/bmp"

	"go.viam.com/motiondetect/utils"
)

// DefaultJPEGQuality is the quality used when writing jpegs without explicit options.
const DefaultJPEGQuality = 90

// NewImageFromFile reads and decodes the image stored at path. The format is sniffed from the
// file header so the extension does not have to match.
func NewImageFromFile(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		// read only, nothing to flush
		_ = f.Close()
	}()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode image file %q", path)
	}
	return img, nil
}

// WriteImageToFile writes the image to path, encoded according to the file extension. Nothing
// is left behind at path if encoding fails.
func WriteImageToFile(path string, img image.Image) (err error) {
	mimeType, ok := utils.MimeTypeFromPath(path)
	if !ok {
		return errors.Errorf("unsupported image file extension for %q", path)
	}
	encode, ok := encoders[mimeType]
	if !ok {
		return errors.Errorf("writing %s is not supported", mimeType)
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
		if err != nil {
			utils.RemoveFileNoError(path)
		}
	}()
	return encode(f, img)
}

var encoders = map[string]func(w io.Writer, img image.Image) error{
	utils.MimeTypeJPEG: func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: DefaultJPEGQuality})
	},
	utils.MimeTypePNG: png.Encode,
	utils.MimeTypeBMP: bmp.Encode,
	utils.MimeTypePPM: ppm.Encode,
	utils.MimeTypeQOI: qoi.Encode,
}
