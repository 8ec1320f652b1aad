package eventlog

import (
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.viam.com/test"

	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/vision/motiondetection"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "events.db")
	db, err := Open(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, db.Close(), test.ShouldBeNil)
	})
	return db, path
}

func testEvent(counter uint64, ts time.Time, regions ...motiondetection.Region) motiondetection.Event {
	return motiondetection.Event{
		ID:      uuid.New(),
		Counter: counter,
		Verdict: motiondetection.Verdict{
			Detected:  len(regions) > 0,
			Regions:   regions,
			Timestamp: ts,
			Tick:      counter + 1,
		},
		Frame: image.NewGray(image.Rect(0, 0, 1, 1)),
	}
}

func TestOpenMigrates(t *testing.T) {
	db, path := openTestDB(t)
	version, dirty, err := db.Version()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, version, test.ShouldEqual, uint(1))
	test.That(t, dirty, test.ShouldBeFalse)

	// reopening an up to date database is not an error
	again, err := Open(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.Close(), test.ShouldBeNil)
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)

	base := time.Date(2024, 3, 9, 14, 30, 0, 123456000, time.UTC)
	region := motiondetection.Region{X: 100, Y: 100, Width: 200, Height: 200, Area: 40000}
	first := EntryFromEvent(testEvent(1, base, region), "/evidence/2024-03-09/a.jpg")
	second := EntryFromEvent(testEvent(2, base.Add(time.Second)), "")
	test.That(t, db.Record(ctx, first), test.ShouldBeNil)
	test.That(t, db.Record(ctx, second), test.ShouldBeNil)

	err := db.Record(ctx, first)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, first.ID)

	entries, err := db.Recent(ctx, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].ID, test.ShouldEqual, second.ID)
	test.That(t, entries[0].Regions, test.ShouldHaveLength, 0)
	test.That(t, entries[1].ID, test.ShouldEqual, first.ID)
	test.That(t, entries[1].Counter, test.ShouldEqual, uint64(1))
	test.That(t, entries[1].Tick, test.ShouldEqual, uint64(2))
	test.That(t, entries[1].Timestamp.Equal(base), test.ShouldBeTrue)
	test.That(t, entries[1].Regions, test.ShouldResemble, []motiondetection.Region{region})
	test.That(t, entries[1].EvidencePath, test.ShouldEqual, "/evidence/2024-03-09/a.jpg")

	limited, err := db.Recent(ctx, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, limited, test.ShouldHaveLength, 1)
	test.That(t, limited[0].ID, test.ShouldEqual, second.ID)

	all, err := db.Recent(ctx, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, all, test.ShouldHaveLength, 2)
}

func TestDeleteBefore(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)

	base := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := EntryFromEvent(testEvent(uint64(i+1), base.Add(time.Duration(i)*24*time.Hour)), "")
		test.That(t, db.Record(ctx, entry), test.ShouldBeNil)
	}

	removed, err := db.DeleteBefore(ctx, base.Add(3*24*time.Hour))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, removed, test.ShouldEqual, int64(3))

	entries, err := db.Recent(ctx, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[1].Counter, test.ShouldEqual, uint64(4))

	removed, err = db.DeleteBefore(ctx, base)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, removed, test.ShouldEqual, int64(0))
}

func TestEmptyRecent(t *testing.T) {
	db, _ := openTestDB(t)
	entries, err := db.Recent(context.Background(), 5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldNotBeNil)
	test.That(t, entries, test.ShouldHaveLength, 0)
}

func TestSink(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	s := NewSink(db)
	event := testEvent(1, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), motiondetection.Region{Width: 100, Height: 100, Area: 10000})
	test.That(t, s.Handle(ctx, event), test.ShouldBeNil)
	test.That(t, s.Close(ctx), test.ShouldBeNil)

	entries, err := db.Recent(ctx, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ID, test.ShouldEqual, event.ID.String())
	test.That(t, entries[0].EvidencePath, test.ShouldEqual, "")
}
