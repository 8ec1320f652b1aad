// Package fake implements cameras that need no hardware: a synthetic scene and a directory of
// image files.
package fake

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/motiondetect/components/camera"
	"go.viam.com/motiondetect/logging"
)

const model = "fake"

const (
	initialWidth  = 640
	initialHeight = 480
)

func init() {
	camera.RegisterModel(model, camera.Registration[*Config]{
		Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (camera.VideoSource, error) {
			return NewCamera(conf, logger)
		},
	})
}

// SquareConfig describes a bright square moving horizontally across the scene.
type SquareConfig struct {
	Size int `json:"size"`
	// Speed is the number of pixels the square moves per frame. It bounces off the edges.
	Speed int `json:"speed,omitempty"`
	// Level is the gray level of the square. Zero means white.
	Level int `json:"level,omitempty"`
	// StartFrame is the first frame the square appears in.
	StartFrame int `json:"start_frame,omitempty"`
}

// Config are the attributes of the fake camera config.
type Config struct {
	Width      int           `json:"width,omitempty"`
	Height     int           `json:"height,omitempty"`
	Background int           `json:"background,omitempty"`
	Square     *SquareConfig `json:"square,omitempty"`
	// Frames ends the stream after this many frames. Zero streams forever.
	Frames int     `json:"frames,omitempty"`
	FPS    float64 `json:"fps,omitempty"`
}

// Validate checks that the config attributes are valid for a fake camera.
func (conf *Config) Validate() error {
	if conf.Width < 0 || conf.Height < 0 {
		return errors.Errorf("got illegal negative dimensions for width and height (%d, %d)", conf.Width, conf.Height)
	}
	if conf.Background < 0 || conf.Background > 255 {
		return errors.Errorf("background must be a gray level in [0, 255], got %d", conf.Background)
	}
	if conf.Frames < 0 {
		return errors.Errorf("frames must not be negative, got %d", conf.Frames)
	}
	if conf.FPS < 0 {
		return errors.Errorf("fps must not be negative, got %v", conf.FPS)
	}
	if sq := conf.Square; sq != nil {
		if sq.Size <= 0 {
			return errors.Errorf("square size must be positive, got %d", sq.Size)
		}
		if sq.Speed < 0 {
			return errors.Errorf("square speed must not be negative, got %d", sq.Speed)
		}
		if sq.Level < 0 || sq.Level > 255 {
			return errors.Errorf("square level must be a gray level in [0, 255], got %d", sq.Level)
		}
		if sq.StartFrame < 0 {
			return errors.Errorf("square start_frame must not be negative, got %d", sq.StartFrame)
		}
	}
	return nil
}

// Camera renders a deterministic synthetic scene.
type Camera struct {
	mu     sync.Mutex
	conf   Config
	width  int
	height int
	frame  int
	last   time.Time
	logger logging.Logger
}

// NewCamera returns a new fake camera.
func NewCamera(conf *Config, logger logging.Logger) (*Camera, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	width, height := conf.Width, conf.Height
	if width == 0 {
		width = initialWidth
	}
	if height == 0 {
		height = initialHeight
	}
	if sq := conf.Square; sq != nil && (sq.Size > width || sq.Size > height) {
		return nil, errors.Errorf("square of size %d does not fit in a %dx%d frame", sq.Size, width, height)
	}
	cam := &Camera{conf: *conf, width: width, height: height, logger: logger}
	if conf.Square != nil {
		square := *conf.Square
		if square.Level == 0 {
			square.Level = 255
		}
		cam.conf.Square = &square
	}
	logger.Debugw("fake camera ready", "width", width, "height", height, "square", conf.Square != nil)
	return cam, nil
}

// Read renders the next frame.
func (c *Camera) Read(ctx context.Context) (image.Image, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conf.Frames > 0 && c.frame >= c.conf.Frames {
		return nil, nil, io.EOF
	}
	if c.conf.FPS > 0 && !c.last.IsZero() {
		wait := time.Duration(float64(time.Second)/c.conf.FPS) - time.Since(c.last)
		if wait > 0 && !goutils.SelectContextOrWait(ctx, wait) {
			return nil, nil, ctx.Err()
		}
	}
	c.last = time.Now()

	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	bg := uint8(c.conf.Background)
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{bg, bg, bg, 255}}, image.Point{}, draw.Src)
	if r, ok := c.squareAt(c.frame); ok {
		level := uint8(c.conf.Square.Level)
		draw.Draw(img, r, &image.Uniform{color.RGBA{level, level, level, 255}}, image.Point{}, draw.Src)
	}
	c.frame++
	return img, func() {}, nil
}

// squareAt returns where the square is drawn in the given frame. The square is vertically
// centered and bounces between the left and right edges.
func (c *Camera) squareAt(frame int) (image.Rectangle, bool) {
	sq := c.conf.Square
	if sq == nil || frame < sq.StartFrame {
		return image.Rectangle{}, false
	}
	travel := c.width - sq.Size
	x := 0
	if travel > 0 {
		offset := ((frame - sq.StartFrame) * sq.Speed) % (2 * travel)
		if offset > travel {
			offset = 2*travel - offset
		}
		x = offset
	}
	y := (c.height - sq.Size) / 2
	return image.Rect(x, y, x+sq.Size, y+sq.Size), true
}

// Close does nothing.
func (c *Camera) Close(ctx context.Context) error {
	return nil
}
