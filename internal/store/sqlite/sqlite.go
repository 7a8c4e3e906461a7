// Package sqlite is the relational store adapter, backed by
// modernc.org/sqlite via database/sql. Timestamps are stored as integer
// unix microseconds so that range predicates and bin bucketing are plain
// integer arithmetic.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/florasense/podserver/internal/store"
)

// Store implements store.Querier and store.Writer over a SQLite database.
// Thread-safety: all methods are safe for concurrent use via an internal
// read-write mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at the given path, creating tables as needed.
// ":memory:" opens a shared-cache in-memory database (used by tests).
// File-backed databases run in WAL mode for concurrent reads.
func Open(path string) (*Store, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS frame_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		pod_id TEXT NOT NULL,
		swarm_name TEXT NOT NULL DEFAULT '',
		run_name TEXT NOT NULL DEFAULT '',
		loc_name TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_frame_log_ts ON frame_log(timestamp);
	CREATE INDEX IF NOT EXISTS idx_frame_log_pod ON frame_log(pod_id);

	CREATE TABLE IF NOT EXISTS specimen_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		pod_id TEXT NOT NULL,
		swarm_name TEXT NOT NULL DEFAULT '',
		run_name TEXT NOT NULL DEFAULT '',
		loc_name TEXT NOT NULL DEFAULT '',
		latitude REAL,
		longitude REAL,
		detection_class TEXT NOT NULL DEFAULT '',
		detection_score REAL NOT NULL DEFAULT 0,
		taxon_id TEXT NOT NULL DEFAULT '',
		taxon_name TEXT NOT NULL DEFAULT '',
		taxon_score REAL NOT NULL DEFAULT 0,
		taxon_rank TEXT NOT NULL DEFAULT '',
		plausibility_score REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_specimen_ts ON specimen_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_specimen_pod ON specimen_records(pod_id);
	CREATE INDEX IF NOT EXISTS idx_specimen_taxon ON specimen_records(taxon_id);

	CREATE TABLE IF NOT EXISTS weather_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		swarm_name TEXT NOT NULL DEFAULT '',
		run_name TEXT NOT NULL DEFAULT '',
		loc_name TEXT NOT NULL DEFAULT '',
		latitude REAL,
		longitude REAL,
		temperature REAL,
		humidity REAL,
		pressure REAL,
		wind_speed REAL,
		wind_degree REAL,
		cloud_coverage REAL,
		rain_last_3h REAL,
		snow_last_3h REAL,
		status TEXT,
		detailed_status TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_weather_ts ON weather_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_weather_swarm ON weather_records(swarm_name);

	CREATE TABLE IF NOT EXISTS pod_records (
		pod_id TEXT PRIMARY KEY,
		connection_status TEXT,
		rssi INTEGER,
		stream_type TEXT,
		loc_name TEXT,
		latitude REAL,
		longitude REAL,
		queue_length INTEGER,
		total_frames INTEGER,
		last_detection_class TEXT,
		last_taxon_class TEXT,
		total_specimens INTEGER,
		last_specimen_at INTEGER,
		last_seen INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_pod_last_seen ON pod_records(last_seen);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return store.Unavailable("ping", s.db.PingContext(ctx))
}

func micros(t time.Time) int64 { return t.UnixMicro() }

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }

func microsOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMicro()
}

var (
	_ store.Querier = (*Store)(nil)
	_ store.Writer  = (*Store)(nil)
)
