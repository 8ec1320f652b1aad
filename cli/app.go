// Package cli contains the motiondetect command line actions.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	// registers all cameras.
	_ "go.viam.com/motiondetect/components/camera/register"
)

const (
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	detectFlagBackground = "background"
	detectFlagFrame      = "frame"
	detectFlagOut        = "out"

	eventsFlagLimit = "limit"
	eventsFlagTable = "table"
)

var app = &cli.App{
	Name:            "motiondetect",
	Usage:           "detect motion in a stream of frames",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "run",
			Usage: "read frames from the configured camera and report motion until interrupted",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     generalFlagConfig,
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "load configuration from `FILE`",
				},
			},
			Action: RunAction,
		},
		{
			Name:  "detect",
			Usage: "compare a single frame against a background frame",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    generalFlagConfig,
					Aliases: []string{"c"},
					Usage:   "load detector options from `FILE`; defaults are used otherwise",
				},
				&cli.PathFlag{
					Name:     detectFlagBackground,
					Required: true,
					Usage:    "image of the still scene",
				},
				&cli.PathFlag{
					Name:     detectFlagFrame,
					Required: true,
					Usage:    "image to look for motion in",
				},
				&cli.PathFlag{
					Name:  detectFlagOut,
					Usage: "write the frame with motion regions outlined to `FILE`",
				},
			},
			Action: DetectAction,
		},
		{
			Name:  "events",
			Usage: "list the most recent events in the event log",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     generalFlagConfig,
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "load configuration from `FILE`",
				},
				&cli.IntFlag{
					Name:  eventsFlagLimit,
					Value: 20,
					Usage: "number of events to print; 0 prints all of them",
				},
				&cli.BoolFlag{
					Name:  eventsFlagTable,
					Usage: "print a table instead of JSON",
				},
			},
			Action: EventsAction,
		},
		{
			Name:      "schema",
			Usage:     "print the JSON schema of a camera model's attributes, or list the models",
			ArgsUsage: "[model]",
			Action:    SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
