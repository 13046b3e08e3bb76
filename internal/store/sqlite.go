package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/i474232898/sunnyweather/internal/weather"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    location TEXT NOT NULL,
    lng TEXT NOT NULL,
    lat TEXT NOT NULL,
    provider TEXT NOT NULL,
    fetched_at INTEGER NOT NULL,
    payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_location_time ON snapshots(location, fetched_at);`

// SQLiteStore persists snapshot history with the pure Go modernc.org/sqlite
// driver. The snapshot itself is stored as a JSON payload.
type SQLiteStore struct {
	db         *sql.DB
	maxHistory int
	maxAge     time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
// Retention limits follow MemoryStore: values <= 0 mean unlimited.
func NewSQLiteStore(path string, maxHistory int, maxAge time.Duration, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sqlite-store")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn("could not set WAL mode", zap.Error(err))
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{
		db:         db,
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// SaveSnapshot inserts a record and enforces retention for its location.
func (s *SQLiteStore) SaveSnapshot(rec weather.Record) error {
	payload, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	key := rec.Location.Key()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO snapshots(location, lng, lat, provider, fetched_at, payload) VALUES(?,?,?,?,?,?)`,
		key, rec.Location.Lng, rec.Location.Lat, rec.Provider, rec.FetchedAt.UTC().UnixNano(), string(payload)); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if s.maxHistory > 0 {
		if _, err := tx.Exec(`DELETE FROM snapshots WHERE location = ? AND id NOT IN (
            SELECT id FROM snapshots WHERE location = ? ORDER BY fetched_at DESC, id DESC LIMIT ?)`,
			key, key, s.maxHistory); err != nil {
			return fmt.Errorf("enforce history limit: %w", err)
		}
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge).UTC().UnixNano()
		if _, err := tx.Exec(`DELETE FROM snapshots WHERE location = ? AND fetched_at < ?`, key, cutoff); err != nil {
			return fmt.Errorf("enforce max age: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatest returns the most recent record for a location.
func (s *SQLiteStore) GetLatest(loc weather.Location) (weather.Record, error) {
	recs, err := s.query(`SELECT lng, lat, provider, fetched_at, payload FROM snapshots
        WHERE location = ? ORDER BY fetched_at DESC, id DESC LIMIT 1`, loc.Key())
	if err != nil {
		return weather.Record{}, err
	}
	if len(recs) == 0 {
		return weather.Record{}, ErrNotFound
	}
	return recs[0], nil
}

// GetRange returns all records for a location fetched between from and to (inclusive).
func (s *SQLiteStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Record, error) {
	recs, err := s.query(`SELECT lng, lat, provider, fetched_at, payload FROM snapshots
        WHERE location = ? AND fetched_at >= ? AND fetched_at <= ? ORDER BY fetched_at, id`,
		loc.Key(), from.UTC().UnixNano(), to.UTC().UnixNano())
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs, nil
}

func (s *SQLiteStore) query(q string, args ...any) ([]weather.Record, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []weather.Record
	for rows.Next() {
		var (
			rec       weather.Record
			fetchedAt int64
			payload   string
		)
		if err := rows.Scan(&rec.Location.Lng, &rec.Location.Lat, &rec.Provider, &fetchedAt, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &rec.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		rec.FetchedAt = time.Unix(0, fetchedAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
