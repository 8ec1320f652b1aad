package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/motiondetect/config"
	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/services/eventlog"
)

// EventsAction prints the most recent events of the configured event log, newest first.
func EventsAction(c *cli.Context) (err error) {
	cfg, err := config.Read(c.String(generalFlagConfig))
	if err != nil {
		return err
	}
	if cfg.Storage.EventLogPath == "" {
		return errors.New("the configuration has no storage.event_log_path")
	}
	db, err := eventlog.Open(cfg.Storage.EventLogPath, logging.NewBlankLogger("eventlog"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); err == nil {
			err = closeErr
		}
	}()

	entries, err := db.Recent(c.Context, c.Int(eventsFlagLimit))
	if err != nil {
		return err
	}
	if c.Bool(eventsFlagTable) {
		_, err = fmt.Fprintln(c.App.Writer, eventsTable(entries))
		return err
	}
	return printJSON(c, entries)
}

// eventsTable renders one row per entry with the bounding boxes of its regions.
func eventsTable(entries []eventlog.Entry) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Time", "Tick", "Regions", "Boxes", "Evidence"})
	for _, entry := range entries {
		boxes := make([]string, 0, len(entry.Regions))
		for _, region := range entry.Regions {
			boxes = append(boxes, fmt.Sprintf("%dx%d@(%d,%d)", region.Width, region.Height, region.X, region.Y))
		}
		t.AppendRow(table.Row{
			entry.Counter,
			entry.Timestamp.Local().Format(time.RFC3339),
			entry.Tick,
			len(entry.Regions),
			strings.Join(boxes, " "),
			entry.EvidencePath,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d events", len(entries))})
	return t.Render()
}
