// Package ffmpeg provides an implementation for ffmpeg based cameras
package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	viamutils "go.viam.com/utils"

	"go.viam.com/motiondetect/components/camera"
	"go.viam.com/motiondetect/logging"
)

const model = "ffmpeg"

func init() {
	camera.RegisterModel(model, camera.Registration[*Config]{
		Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (camera.VideoSource, error) {
			return NewFFmpegCamera(conf, logger)
		},
	})
}

// Config is the attribute struct for ffmpeg cameras. Frames are scaled to Width x Height and
// piped out of ffmpeg as raw RGBA.
type Config struct {
	Source       string                 `json:"source"`
	Width        int                    `json:"width"`
	Height       int                    `json:"height"`
	FPS          float64                `json:"fps,omitempty"`
	InputKWArgs  map[string]interface{} `json:"input_kw_args,omitempty"`
	OutputKWArgs map[string]interface{} `json:"output_kw_args,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate() error {
	if conf.Source == "" {
		return errors.New("ffmpeg camera needs a source")
	}
	if conf.Width <= 0 || conf.Height <= 0 {
		return errors.Errorf("ffmpeg camera needs a positive width and height, got (%d, %d)", conf.Width, conf.Height)
	}
	if conf.FPS < 0 {
		return errors.Errorf("fps must not be negative, got %v", conf.FPS)
	}
	return nil
}

type ffmpegCamera struct {
	frames                  chan image.Image
	ffmpegErr               atomic.Value
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
	logger                  logging.Logger
}

// NewFFmpegCamera starts ffmpeg on the configured source.
func NewFFmpegCamera(conf *Config, logger logging.Logger) (camera.VideoSource, error) {
	// make sure ffmpeg is in the path before doing anything else
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	// parse attributes into ffmpeg keyword maps
	outArgs := make(ffmpeg.KwArgs, len(conf.OutputKWArgs)+4)
	for key, value := range conf.OutputKWArgs {
		outArgs[key] = value
	}
	outArgs["format"] = "rawvideo"
	outArgs["pix_fmt"] = "rgba"
	outArgs["s"] = fmt.Sprintf("%dx%d", conf.Width, conf.Height)
	if conf.FPS > 0 {
		outArgs["r"] = conf.FPS
	}

	// instantiate camera with cancellable context that will be applied to all spawned processes
	cancelableCtx, cancel := context.WithCancel(context.Background())
	ffCam := &ffmpegCamera{
		frames:     make(chan image.Image),
		cancelFunc: cancel,
		logger:     logger,
	}

	// launch thread to run ffmpeg and write frames into the pipe
	in, out := io.Pipe()
	ffCam.activeBackgroundWorkers.Add(1)
	viamutils.ManagedGo(func() {
		stream := ffmpeg.Input(conf.Source, ffmpeg.KwArgs(conf.InputKWArgs))
		stream = stream.Output("pipe:", outArgs)
		stream.Context = cancelableCtx
		err := stream.WithOutput(out).Run()
		if err != nil && cancelableCtx.Err() == nil {
			ffCam.ffmpegErr.Store(err)
		}
		viamutils.UncheckedError(out.CloseWithError(io.EOF))
	}, func() {
		ffCam.activeBackgroundWorkers.Done()
	})

	// launch thread to cut the pipe into frames and hand them to Read in order
	ffCam.activeBackgroundWorkers.Add(1)
	viamutils.ManagedGo(func() {
		defer close(ffCam.frames)
		reader := bufio.NewReaderSize(in, 4*conf.Width*conf.Height)
		for {
			img := image.NewRGBA(image.Rect(0, 0, conf.Width, conf.Height))
			if _, err := io.ReadFull(reader, img.Pix); err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
					ffCam.logger.Warnw("failed to read frame from ffmpeg", "error", err)
				}
				return
			}
			select {
			case ffCam.frames <- img:
			case <-cancelableCtx.Done():
				return
			}
		}
	}, func() {
		viamutils.UncheckedError(in.Close())
		ffCam.activeBackgroundWorkers.Done()
	})

	logger.Debugw("ffmpeg camera started", "source", conf.Source, "width", conf.Width, "height", conf.Height)
	return ffCam, nil
}

// Read returns the next decoded frame, or io.EOF once ffmpeg has finished.
func (fc *ffmpegCamera) Read(ctx context.Context) (image.Image, func(), error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case img, ok := <-fc.frames:
		if !ok {
			if err, has := fc.ffmpegErr.Load().(error); has {
				return nil, nil, err
			}
			return nil, nil, io.EOF
		}
		return img, func() {}, nil
	}
}

// Close stops ffmpeg and waits for the background workers.
func (fc *ffmpegCamera) Close(ctx context.Context) error {
	fc.cancelFunc()
	fc.activeBackgroundWorkers.Wait()
	return nil
}
