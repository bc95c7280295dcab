// Package sqlite persists frame session indexes to SQLite, so large
// traces can be reopened and queried without replaying the capture.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nfclab/nfctrace/pkg/model"
)

// Schema version for migrations.
const schemaVersion = 1

// Config holds configuration for the index store.
type Config struct {
	// Path to the SQLite database file.
	// If empty, defaults to <tracefile>.idx.db
	DBPath string

	// ReadOnly opens the database in read-only mode.
	ReadOnly bool

	// WAL enables WAL mode for better concurrency.
	WAL bool
}

// SessionMeta describes an indexed capture session.
type SessionMeta struct {
	SchemaVersion int
	TracePath     string
	TraceSize     int64
	IndexedAt     time.Time
	TotalFrames   int64
	DurationSec   float64
	IndexComplete bool
}

// IndexStore is a SQLite-backed frame index.
type IndexStore struct {
	db   *sql.DB
	path string
	cfg  Config

	// Write transaction state
	mu   sync.Mutex
	tx   *sql.Tx
	stmt *sql.Stmt // prepared frame insert within tx
}

// New creates a new index store.
func New(cfg Config) (*IndexStore, error) {
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := cfg.DBPath + "?_foreign_keys=on"
	if cfg.ReadOnly {
		dsn += "&mode=ro"
	}
	if cfg.WAL {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &IndexStore{
		db:   db,
		path: cfg.DBPath,
		cfg:  cfg,
	}

	if !cfg.ReadOnly {
		if err := s.initSchema(); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	return s, nil
}

// NewFromTrace creates a store with the standard naming convention.
func NewFromTrace(tracePath string, readOnly bool) (*IndexStore, error) {
	return New(Config{
		DBPath:   tracePath + ".idx.db",
		ReadOnly: readOnly,
		WAL:      !readOnly,
	})
}

// Close closes the database.
func (s *IndexStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *IndexStore) Path() string {
	return s.path
}

func (s *IndexStore) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS frames (
	number     INTEGER PRIMARY KEY,
	time_start REAL NOT NULL,
	time_end   REAL NOT NULL,
	date_ns    INTEGER NOT NULL,
	tech       INTEGER NOT NULL,
	frame_type INTEGER NOT NULL,
	flags      INTEGER NOT NULL,
	rate       INTEGER NOT NULL,
	event      TEXT,
	payload    BLOB
);

CREATE INDEX IF NOT EXISTS idx_frames_time ON frames(time_start, time_end);
CREATE INDEX IF NOT EXISTS idx_frames_tech ON frames(tech);
CREATE INDEX IF NOT EXISTS idx_frames_event ON frames(event);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`,
		"schema_version", fmt.Sprintf("%d", schemaVersion))
	return err
}

// GetMeta retrieves the session metadata.
func (s *IndexStore) GetMeta() (*SessionMeta, error) {
	meta := &SessionMeta{}

	rows, err := s.db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		switch key {
		case "schema_version":
			fmt.Sscanf(value, "%d", &meta.SchemaVersion)
		case "trace_path":
			meta.TracePath = value
		case "trace_size":
			fmt.Sscanf(value, "%d", &meta.TraceSize)
		case "indexed_at":
			t, _ := time.Parse(time.RFC3339Nano, value)
			meta.IndexedAt = t
		case "total_frames":
			fmt.Sscanf(value, "%d", &meta.TotalFrames)
		case "duration_sec":
			fmt.Sscanf(value, "%g", &meta.DurationSec)
		case "index_complete":
			meta.IndexComplete = value == "true"
		}
	}

	return meta, rows.Err()
}

// SetMeta stores the session metadata.
func (s *IndexStore) SetMeta(meta *SessionMeta) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	pairs := []struct{ k, v string }{
		{"schema_version", fmt.Sprintf("%d", meta.SchemaVersion)},
		{"trace_path", meta.TracePath},
		{"trace_size", fmt.Sprintf("%d", meta.TraceSize)},
		{"indexed_at", meta.IndexedAt.Format(time.RFC3339Nano)},
		{"total_frames", fmt.Sprintf("%d", meta.TotalFrames)},
		{"duration_sec", fmt.Sprintf("%g", meta.DurationSec)},
		{"index_complete", fmt.Sprintf("%t", meta.IndexComplete)},
	}

	for _, p := range pairs {
		if _, err := stmt.Exec(p.k, p.v); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// BeginBatch starts a batch write transaction.
func (s *IndexStore) BeginBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		return fmt.Errorf("batch already in progress")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// CommitBatch commits the current batch.
func (s *IndexStore) CommitBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return fmt.Errorf("no batch in progress")
	}

	if s.stmt != nil {
		s.stmt.Close()
		s.stmt = nil
	}

	err := s.tx.Commit()
	s.tx = nil
	return err
}

// RollbackBatch rolls back the current batch.
func (s *IndexStore) RollbackBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}

	if s.stmt != nil {
		s.stmt.Close()
		s.stmt = nil
	}

	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// InsertFrame inserts a single frame with its classified event label.
func (s *IndexStore) InsertFrame(f *model.Frame, event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return fmt.Errorf("no batch in progress")
	}

	if s.stmt == nil {
		stmt, err := s.tx.Prepare(`INSERT INTO frames (
			number, time_start, time_end, date_ns,
			tech, frame_type, flags, rate, event, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		s.stmt = stmt
	}

	_, err := s.stmt.Exec(
		f.Number, f.TimeStart, f.TimeEnd, f.DateTime.UnixNano(),
		int(f.Tech), int(f.Type), f.Flags, f.Rate, event, f.Payload,
	)
	return err
}

// LoadFrames reads all indexed frames back in row order.
func (s *IndexStore) LoadFrames() ([]*model.Frame, error) {
	rows, err := s.db.Query(`SELECT number, time_start, time_end, date_ns,
		tech, frame_type, flags, rate, payload
		FROM frames ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []*model.Frame
	for rows.Next() {
		var (
			f      model.Frame
			dateNS int64
			tech   int
			ftype  int
		)
		if err := rows.Scan(&f.Number, &f.TimeStart, &f.TimeEnd, &dateNS,
			&tech, &ftype, &f.Flags, &f.Rate, &f.Payload); err != nil {
			return nil, err
		}
		f.Tech = model.Tech(tech)
		f.Type = model.Type(ftype)
		f.DateTime = time.Unix(0, dateNS)
		frames = append(frames, &f)
	}

	return frames, rows.Err()
}

// QueryRange returns the numbers of frames fully contained in the
// inclusive time window.
func (s *IndexStore) QueryRange(from, to float64) ([]int, error) {
	rows, err := s.db.Query(`SELECT number FROM frames
		WHERE time_start >= ? AND time_end <= ? ORDER BY number`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}

	return numbers, rows.Err()
}

// CountFrames returns the number of indexed frames.
func (s *IndexStore) CountFrames() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM frames`).Scan(&n)
	return n, err
}
