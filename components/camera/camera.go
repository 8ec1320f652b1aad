// Package camera defines the frame sources motion detection reads from.
package camera

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/utils"
)

// VideoSource produces a stream of images. Read returns io.EOF once the stream has ended; the
// returned release function must be called once the caller is done with the image.
type VideoSource interface {
	Read(ctx context.Context) (image.Image, func(), error)
	Close(ctx context.Context) error
}

// Config selects a camera model and its attributes.
type Config struct {
	Model      string             `json:"model"`
	Attributes utils.AttributeMap `json:"attributes,omitempty"`
	// ResizeWidth downscales every frame to this width, keeping the aspect ratio. Zero disables it.
	ResizeWidth int `json:"resize_width,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf Config) Validate() error {
	if conf.Model == "" {
		return errors.New("camera model is required")
	}
	if !IsRegistered(conf.Model) {
		return errors.Errorf("unknown camera model %q, registered models are %v", conf.Model, RegisteredModels())
	}
	if conf.ResizeWidth < 0 {
		return errors.Errorf("resize_width must not be negative, got %d", conf.ResizeWidth)
	}
	return nil
}

// NewFromConfig builds the VideoSource described by conf.
func NewFromConfig(ctx context.Context, conf Config, logger logging.Logger) (VideoSource, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	registryMu.RLock()
	reg := registry[conf.Model]
	registryMu.RUnlock()

	src, err := reg.construct(ctx, conf.Attributes, logger.Sublogger(conf.Model))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create %s camera", conf.Model)
	}
	if conf.ResizeWidth > 0 {
		src = NewResizeSource(src, conf.ResizeWidth)
	}
	return src, nil
}

// ReadImage reads a single image and immediately releases it. Only use it when the source
// does not reuse image buffers.
func ReadImage(ctx context.Context, src VideoSource) (image.Image, error) {
	img, release, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	if release != nil {
		release()
	}
	return img, nil
}
