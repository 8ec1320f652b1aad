// Package config defines the structures to configure a motion detection run.
package config

import (
	"time"

	"github.com/pkg/errors"

	"go.viam.com/motiondetect/components/camera"
	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/vision/motiondetection"
)

// Config describes one motion detection run: where frames come from, how they are judged, and
// where events go.
type Config struct {
	ConfigFilePath string `json:"-"`

	Camera   camera.Config          `json:"camera"`
	Detector motiondetection.Config `json:"detector"`
	Events   EventsConfig           `json:"events"`
	Storage  StorageConfig          `json:"storage"`
	Log      LogConfig              `json:"log"`
}

// EventsConfig controls how verdicts turn into events and how frames are scheduled.
type EventsConfig struct {
	MinMotionFrames          int           `json:"min_motion_frames,omitempty"`
	MinEventInterval         time.Duration `json:"min_event_interval,omitempty"`
	DropFrames               bool          `json:"drop_frames,omitempty"`
	StatsInterval            int           `json:"stats_interval,omitempty"`
	MaxConsecutiveReadErrors int           `json:"max_consecutive_read_errors,omitempty"`
}

// Gate returns the event gate part of the config.
func (ec EventsConfig) Gate() motiondetection.GateConfig {
	return motiondetection.GateConfig{
		MinMotionFrames:  ec.MinMotionFrames,
		MinEventInterval: ec.MinEventInterval,
	}
}

// Runner returns the frame scheduling part of the config.
func (ec EventsConfig) Runner() motiondetection.RunnerConfig {
	return motiondetection.RunnerConfig{
		DropFrames:               ec.DropFrames,
		StatsInterval:            ec.StatsInterval,
		MaxConsecutiveReadErrors: ec.MaxConsecutiveReadErrors,
	}
}

// StorageConfig says where evidence and the event log are kept. Empty paths disable them.
type StorageConfig struct {
	EvidenceDir  string `json:"evidence_dir,omitempty"`
	EventLogPath string `json:"event_log_path,omitempty"`
	// Retention is how long evidence and events are kept. Zero keeps them forever.
	Retention     time.Duration `json:"retention,omitempty"`
	SweepInterval time.Duration `json:"sweep_interval,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string             `json:"level,omitempty"`
	File  logging.FileConfig `json:"file,omitempty"`
}

// Default returns the configuration every file is layered over: the fake camera and the
// detector defaults, logging at info.
func Default() Config {
	return Config{
		Camera:   camera.Config{Model: "fake"},
		Detector: motiondetection.DefaultConfig(),
		Events:   EventsConfig{MinMotionFrames: 1},
		Log:      LogConfig{Level: "info"},
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	if err := c.Camera.Validate(); err != nil {
		return errors.Wrap(err, "camera")
	}
	if err := c.Detector.Validate(); err != nil {
		return errors.Wrap(err, "detector")
	}
	if err := c.Events.Gate().Validate(); err != nil {
		return errors.Wrap(err, "events")
	}
	if c.Events.StatsInterval < 0 {
		return errors.Errorf("events: stats_interval must not be negative, got %d", c.Events.StatsInterval)
	}
	if c.Events.MaxConsecutiveReadErrors < 0 {
		return errors.Errorf("events: max_consecutive_read_errors must not be negative, got %d",
			c.Events.MaxConsecutiveReadErrors)
	}
	if err := c.Storage.Validate(); err != nil {
		return errors.Wrap(err, "storage")
	}
	if _, err := logging.LevelFromString(c.Log.Level); err != nil {
		return errors.Wrap(err, "log")
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (sc StorageConfig) Validate() error {
	if sc.Retention < 0 {
		return errors.Errorf("retention must not be negative, got %v", sc.Retention)
	}
	if sc.SweepInterval < 0 {
		return errors.Errorf("sweep_interval must not be negative, got %v", sc.SweepInterval)
	}
	if sc.Retention > 0 && sc.EvidenceDir == "" && sc.EventLogPath == "" {
		return errors.New("retention is set but there is neither an evidence_dir nor an event_log_path to prune")
	}
	return nil
}
