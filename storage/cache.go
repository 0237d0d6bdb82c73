package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
)

// OpenCacheDB opens the snapshot cache. It keeps the last successful
// response of each list so views can still show something offline.
func OpenCacheDB() (*sql.DB, error) {
	if _, err := ensureConfigDir(); err != nil {
		return nil, err
	}
	path, err := CachePath()
	if err != nil {
		return nil, err
	}
	return OpenCacheDBAt(path)
}

func OpenCacheDBAt(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := ensureCacheSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func ensureCacheSchema(db *sql.DB) error {
	createTable := `
CREATE TABLE IF NOT EXISTS snapshots (
  kind TEXT NOT NULL,
  scope TEXT NOT NULL,
  payload TEXT,
  fetched_at TEXT,
  PRIMARY KEY (kind, scope)
);`

	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("create snapshots table: %w", err)
	}

	if err := ensureSnapshotColumns(db, []string{"item_count"}); err != nil {
		return err
	}

	return nil
}

func ensureSnapshotColumns(db *sql.DB, columns []string) error {
	rows, err := db.Query("PRAGMA table_info(snapshots);")
	if err != nil {
		return fmt.Errorf("inspect snapshots table: %w", err)
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name string
		var ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("inspect snapshots columns: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect snapshots columns: %w", err)
	}

	for _, column := range columns {
		if _, ok := existing[column]; ok {
			continue
		}
		_, err := db.Exec(fmt.Sprintf("ALTER TABLE snapshots ADD COLUMN %s INTEGER;", column))
		if err != nil {
			return fmt.Errorf("add snapshots column %s: %w", column, err)
		}
	}
	return nil
}

// SaveSnapshot stores items as JSON under (kind, scope), replacing any
// earlier snapshot.
func SaveSnapshot[T any](db *sql.DB, kind, scope string, items []T, fetchedAt time.Time) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", kind, err)
	}

	query := `
INSERT OR REPLACE INTO snapshots (kind, scope, payload, fetched_at, item_count)
VALUES (?, ?, ?, ?, ?);`

	_, err = db.Exec(query, kind, scope, string(payload), fetchedAt.UTC().Format(time.RFC3339), len(items))
	return err
}

// LoadSnapshot returns the cached items and when they were fetched.
// found is false when nothing was cached yet.
func LoadSnapshot[T any](db *sql.DB, kind, scope string) (items []T, fetchedAt time.Time, found bool, err error) {
	var payload sql.NullString
	var fetched sql.NullString
	row := db.QueryRow("SELECT payload, fetched_at FROM snapshots WHERE kind = ? AND scope = ?", kind, scope)
	if err := row.Scan(&payload, &fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, err
	}

	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), &items); err != nil {
			return nil, time.Time{}, false, fmt.Errorf("decode %s snapshot: %w", kind, err)
		}
	}
	if fetched.Valid {
		if parsed, perr := time.Parse(time.RFC3339, fetched.String); perr == nil {
			fetchedAt = parsed
		}
	}
	return items, fetchedAt, true, nil
}

func ClearSnapshots(db *sql.DB) (int64, error) {
	res, err := db.Exec("DELETE FROM snapshots")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
