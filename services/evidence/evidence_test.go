package evidence

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.viam.com/test"

	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/rimage"
	"go.viam.com/motiondetect/services/eventlog"
	"go.viam.com/motiondetect/vision/motiondetection"
)

func openEvents(t *testing.T) *eventlog.DB {
	t.Helper()
	db, err := eventlog.Open(filepath.Join(t.TempDir(), "events.db"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, db.Close(), test.ShouldBeNil)
	})
	return db
}

func grayFrame(w, h int, level uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{level, level, level, 255}}, image.Point{}, draw.Src)
	return img
}

func TestStoreHandle(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "evidence")
	events := openEvents(t)
	store, err := NewStore(root, events, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, store.Root(), test.ShouldEqual, root)

	ts := time.Date(2024, 3, 9, 14, 30, 5, 123456000, time.UTC)
	region := motiondetection.Region{X: 40, Y: 30, Width: 80, Height: 60, Area: 4800}
	event := motiondetection.Event{
		ID:      uuid.New(),
		Counter: 7,
		Verdict: motiondetection.Decide([]motiondetection.Region{region}, ts),
		Frame:   grayFrame(200, 150, 0),
	}
	test.That(t, store.Handle(ctx, event), test.ShouldBeNil)

	expected := filepath.Join(root, "2024-03-09", "20240309T143005.123456_7.jpg")
	test.That(t, store.PathFor(ts, 7), test.ShouldEqual, expected)
	img, err := rimage.NewImageFromFile(expected)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Size(), test.ShouldResemble, image.Point{200, 150})

	// the region outline is green and the inside stays dark
	r, g, b, _ := img.At(80, 30).RGBA()
	test.That(t, g>>8, test.ShouldBeGreaterThan, (r>>8)+50)
	test.That(t, g>>8, test.ShouldBeGreaterThan, (b>>8)+50)
	_, g, _, _ = img.At(80, 60).RGBA()
	test.That(t, g>>8, test.ShouldBeLessThan, 50)

	entries, err := events.Recent(ctx, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ID, test.ShouldEqual, event.ID.String())
	test.That(t, entries[0].EvidencePath, test.ShouldEqual, expected)
	test.That(t, entries[0].Regions, test.ShouldResemble, []motiondetection.Region{region})
	test.That(t, store.Close(ctx), test.ShouldBeNil)
}

func TestStoreWithoutFrameOrTimestamp(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	events := openEvents(t)
	clk := clock.NewMock()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	clk.Set(now)
	store, err := NewStore(root, events, clk, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, store.Handle(ctx, motiondetection.Event{ID: uuid.New(), Counter: 1}), test.ShouldBeNil)
	entries, err := events.Recent(ctx, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].EvidencePath, test.ShouldEqual, "")
	test.That(t, entries[0].Timestamp.Equal(now), test.ShouldBeTrue)

	dirs, err := os.ReadDir(root)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dirs, test.ShouldHaveLength, 0)

	// without an event log only the file is written
	bare, err := NewStore(root, nil, clk, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bare.Handle(ctx, motiondetection.Event{ID: uuid.New(), Counter: 2, Frame: grayFrame(32, 32, 90)}), test.ShouldBeNil)
	_, err = os.Stat(bare.PathFor(now, 2))
	test.That(t, err, test.ShouldBeNil)
}

func TestNewStoreErrors(t *testing.T) {
	_, err := NewStore("", nil, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)

	file := filepath.Join(t.TempDir(), "file")
	test.That(t, os.WriteFile(file, []byte("x"), 0o600), test.ShouldBeNil)
	_, err = NewStore(filepath.Join(file, "sub"), nil, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
