package cli

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/motiondetect/config"
	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/rimage"
	"go.viam.com/motiondetect/services/evidence"
	"go.viam.com/motiondetect/vision/motiondetection"
)

// DetectAction warms a fresh pipeline up with the background image, runs the frame image
// through it and prints the verdict as JSON.
func DetectAction(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String(generalFlagConfig); path != "" {
		read, err := config.Read(path)
		if err != nil {
			return err
		}
		cfg = *read
	}
	logger := logging.NewBlankLogger("detect")
	if c.Bool(generalFlagDebug) {
		logger = logging.NewDebugLogger("detect")
	}

	pipeline, err := motiondetection.NewPipeline(cfg.Detector, logger)
	if err != nil {
		return err
	}
	for _, flag := range []string{detectFlagBackground, detectFlagFrame} {
		frame, err := readFrame(c.Path(flag))
		if err != nil {
			return err
		}
		verdict, err := pipeline.Process(c.Context, frame)
		if err != nil {
			return errors.Wrapf(err, "cannot process %s image", flag)
		}
		if flag == detectFlagBackground {
			continue
		}
		if out := c.Path(detectFlagOut); out != "" {
			caption := verdict.Timestamp.Format(evidence.CaptionLayout)
			if err := rimage.WriteImageToFile(out, rimage.Annotate(frame.Image, verdict.Rects(), caption)); err != nil {
				return err
			}
		}
		return printJSON(c, verdict)
	}
	return nil
}

// readFrame loads an image file as a frame stamped with the file's modification time.
func readFrame(path string) (motiondetection.Frame, error) {
	info, err := os.Stat(path)
	if err != nil {
		return motiondetection.Frame{}, err
	}
	img, err := rimage.NewImageFromFile(path)
	if err != nil {
		return motiondetection.Frame{}, errors.Wrapf(err, "cannot decode %q", path)
	}
	return motiondetection.Frame{Image: img, Timestamp: info.ModTime()}, nil
}

func printJSON(c *cli.Context, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write([]byte(strings.TrimSpace(string(out)) + "\n"))
	return err
}
