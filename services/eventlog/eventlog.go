// Package eventlog indexes motion events in a sqlite database.
package eventlog

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	// registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"go.viam.com/motiondetect/logging"
	"go.viam.com/motiondetect/vision/motiondetection"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Entry is one recorded event.
type Entry struct {
	ID        string                   `json:"id"`
	Counter   uint64                   `json:"counter"`
	Tick      uint64                   `json:"tick"`
	Timestamp time.Time                `json:"timestamp"`
	Regions   []motiondetection.Region `json:"regions"`
	// EvidencePath is the annotated frame written for the event, if any.
	EvidencePath string `json:"evidence_path,omitempty"`
}

// EntryFromEvent builds the entry describing event.
func EntryFromEvent(event motiondetection.Event, evidencePath string) Entry {
	return Entry{
		ID:           event.ID.String(),
		Counter:      event.Counter,
		Tick:         event.Verdict.Tick,
		Timestamp:    event.Verdict.Timestamp,
		Regions:      event.Verdict.Regions,
		EvidencePath: evidencePath,
	}
}

// DB is the event log.
type DB struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens or creates the event log at path and migrates it to the latest schema.
func Open(path string, logger logging.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.Wrapf(err, "cannot create event log directory %q", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; serializing through one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "cannot configure event log"), db.Close())
	}

	el := &DB{db: db, logger: logger}
	if err := el.migrateUp(); err != nil {
		return nil, multierr.Combine(err, db.Close())
	}
	return el, nil
}

func (el *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open embedded migrations")
	}
	driver, err := sqlite.WithInstance(el.db, &sqlite.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sqlite driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create migrate instance")
	}
	m.Log = &migrateLogger{logger: el.logger}
	return m, nil
}

// migrateUp runs all pending migrations. The migrate instance is not closed since that would
// close the shared connection.
func (el *DB) migrateUp() error {
	m, err := el.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migration up failed")
	}
	return nil
}

// Version returns the schema version and whether the last migration failed halfway.
func (el *DB) Version() (uint, bool, error) {
	m, err := el.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Record stores entry. Recording the same ID twice is an error.
func (el *DB) Record(ctx context.Context, entry Entry) error {
	regions := entry.Regions
	if regions == nil {
		regions = []motiondetection.Region{}
	}
	encoded, err := json.Marshal(regions)
	if err != nil {
		return err
	}
	_, err = el.db.ExecContext(ctx, `
		INSERT INTO events (id, counter, tick, timestamp_ns, region_count, regions, evidence_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, int64(entry.Counter), int64(entry.Tick), entry.Timestamp.UnixNano(),
		len(regions), string(encoded), entry.EvidencePath,
	)
	return errors.Wrapf(err, "cannot record event %s", entry.ID)
}

// Recent returns up to limit entries, newest first. A non-positive limit returns every entry.
func (el *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := el.db.QueryContext(ctx, `
		SELECT id, counter, tick, timestamp_ns, regions, evidence_path
		FROM events
		ORDER BY timestamp_ns DESC, counter DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		el.closeRows(rows)
	}()

	entries := []Entry{}
	for rows.Next() {
		var (
			entry          Entry
			counter, tick  int64
			timestampNanos int64
			regions        string
		)
		if err := rows.Scan(&entry.ID, &counter, &tick, &timestampNanos, &regions, &entry.EvidencePath); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(regions), &entry.Regions); err != nil {
			return nil, errors.Wrapf(err, "corrupt regions for event %s", entry.ID)
		}
		entry.Counter = uint64(counter)
		entry.Tick = uint64(tick)
		entry.Timestamp = time.Unix(0, timestampNanos).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteBefore removes every entry older than cutoff and returns how many were removed.
func (el *DB) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := el.db.ExecContext(ctx, `DELETE FROM events WHERE timestamp_ns < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database.
func (el *DB) Close() error {
	return el.db.Close()
}

func (el *DB) closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		el.logger.Warnw("failed to close rows", "error", err)
	}
}

type migrateLogger struct {
	logger logging.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debugf(format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
