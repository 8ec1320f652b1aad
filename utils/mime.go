package utils

import (
	"path/filepath"
	"strings"
)

const (
	// MimeTypeJPEG is regular jpgs.
	MimeTypeJPEG = "image/jpeg"

	// MimeTypePNG is regular pngs.
	MimeTypePNG = "image/png"

	// MimeTypeGIF is for gifs; only the first frame is used.
	MimeTypeGIF = "image/gif"

	// MimeTypeBMP is for uncompressed windows bitmaps.
	MimeTypeBMP = "image/bmp"

	// MimeTypePPM is for netpbm portable pixmaps, the format most frame grabbers can dump.
	MimeTypePPM = "image/x-portable-pixmap"

	// MimeTypeQOI is for .qoi "Quite OK Image" for lossless, fast encoding/decoding.
	MimeTypeQOI = "image/qoi"
)

var mimeTypesByExtension = map[string]string{
	".jpg":  MimeTypeJPEG,
	".jpeg": MimeTypeJPEG,
	".png":  MimeTypePNG,
	".gif":  MimeTypeGIF,
	".bmp":  MimeTypeBMP,
	".ppm":  MimeTypePPM,
	".qoi":  MimeTypeQOI,
}

// MimeTypeFromPath returns the image mime type implied by the extension of path, and false if
// the extension is not an image format we can decode.
func MimeTypeFromPath(path string) (string, bool) {
	mimeType, ok := mimeTypesByExtension[strings.ToLower(filepath.Ext(path))]
	return mimeType, ok
}
