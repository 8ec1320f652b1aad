package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	_ "go.viam.com/motiondetect/components/camera/register"
	"go.viam.com/motiondetect/config"
	"go.viam.com/motiondetect/vision/motiondetection"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motiondetect.json")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestReadDefaults(t *testing.T) {
	cfg, err := config.Read(writeConfig(t, `{}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Camera.Model, test.ShouldEqual, "fake")
	test.That(t, cfg.Detector, test.ShouldResemble, motiondetection.DefaultConfig())
	test.That(t, cfg.Events.MinMotionFrames, test.ShouldEqual, 1)
	test.That(t, cfg.Log.Level, test.ShouldEqual, "info")
	test.That(t, cfg.Storage, test.ShouldResemble, config.StorageConfig{})
}

func TestReadFull(t *testing.T) {
	t.Setenv("MOTIONDETECT_TEST_DIR", "/data/frames")
	path := writeConfig(t, `{
		"camera": {
			"model": "image_file",
			"attributes": {"directory": "${MOTIONDETECT_TEST_DIR}", "watch": true},
			"resize_width": 500
		},
		"detector": {
			"blur_size": [11, 11],
			"delta_thresh": 25,
			"min_area": 500,
			"background_alpha": 0.1,
			"background_update": "when_still",
			"dilate_iterations": 0,
			"connectivity": 4
		},
		"events": {
			"min_motion_frames": 8,
			"min_event_interval": "500ms",
			"drop_frames": true,
			"stats_interval": 100
		},
		"storage": {
			"evidence_dir": "evidence",
			"event_log_path": "/var/lib/motiondetect/events.db",
			"retention": "72h",
			"sweep_interval": "15m"
		},
		"log": {"level": "debug", "file": {"path": "logs/motiondetect.log", "max_size_mb": 10}}
	}`)
	cfg, err := config.Read(path)
	test.That(t, err, test.ShouldBeNil)
	dir := filepath.Dir(path)

	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.Camera.Model, test.ShouldEqual, "image_file")
	test.That(t, cfg.Camera.Attributes["directory"], test.ShouldEqual, "/data/frames")
	test.That(t, cfg.Camera.Attributes["watch"], test.ShouldBeTrue)
	test.That(t, cfg.Camera.ResizeWidth, test.ShouldEqual, 500)

	test.That(t, cfg.Detector.BlurSize, test.ShouldResemble, [2]int{11, 11})
	test.That(t, cfg.Detector.DeltaThresh, test.ShouldEqual, 25)
	test.That(t, cfg.Detector.MinArea, test.ShouldEqual, 500)
	test.That(t, cfg.Detector.BackgroundAlpha, test.ShouldEqual, 0.1)
	test.That(t, cfg.Detector.BackgroundUpdate, test.ShouldEqual, motiondetection.UpdateWhenStill)
	test.That(t, *cfg.Detector.DilateIterations, test.ShouldEqual, 0)
	test.That(t, cfg.Detector.Connectivity, test.ShouldEqual, motiondetection.Connectivity4)
	test.That(t, cfg.Detector.DilateKernel, test.ShouldEqual, motiondetection.DefaultDilateKernel)

	test.That(t, cfg.Events.Gate(), test.ShouldResemble, motiondetection.GateConfig{
		MinMotionFrames:  8,
		MinEventInterval: 500 * time.Millisecond,
	})
	test.That(t, cfg.Events.Runner(), test.ShouldResemble, motiondetection.RunnerConfig{
		DropFrames:    true,
		StatsInterval: 100,
	})

	test.That(t, cfg.Storage.EvidenceDir, test.ShouldEqual, filepath.Join(dir, "evidence"))
	test.That(t, cfg.Storage.EventLogPath, test.ShouldEqual, "/var/lib/motiondetect/events.db")
	test.That(t, cfg.Storage.Retention, test.ShouldEqual, 72*time.Hour)
	test.That(t, cfg.Storage.SweepInterval, test.ShouldEqual, 15*time.Minute)
	test.That(t, cfg.Log.Level, test.ShouldEqual, "debug")
	test.That(t, cfg.Log.File.Path, test.ShouldEqual, filepath.Join(dir, "logs", "motiondetect.log"))
	test.That(t, cfg.Log.File.MaxSizeMB, test.ShouldEqual, 10)
}

func TestReadErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		contents string
		expected string
	}{
		{"bad json", `{`, "failed to decode"},
		{"unknown key", `{"detector": {"delta": 3}}`, "delta"},
		{"wrong type", `{"detector": {"min_area": "big"}}`, "min_area"},
		{"unknown model", `{"camera": {"model": "webcam"}}`, "unknown camera model"},
		{"bad duration", `{"events": {"min_event_interval": "soon"}}`, "min_event_interval"},
		{"negative gate", `{"events": {"min_motion_frames": -1}}`, "min_motion_frames"},
		{"negative stats", `{"events": {"stats_interval": -1}}`, "stats_interval"},
		{"retention without storage", `{"storage": {"retention": "1h"}}`, "retention"},
		{"bad level", `{"log": {"level": "chatty"}}`, "unknown log level"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Read(writeConfig(t, tc.contents))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.expected)
		})
	}

	_, err := config.Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadConfigurationError(t *testing.T) {
	_, err := config.FromReader("", strings.NewReader(`{"detector": {"delta_thresh": 300}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, motiondetection.IsConfigurationError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "delta_thresh")

	_, err = config.FromReader("", strings.NewReader(`{"detector": {"blur_size": [20, 21]}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "blur_size[0]")
}
