package repository

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"linkdrop/internal/model"
)

// SQLiteRepository implements Repository on an embedded SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath and
// ensures the schema exists. Use ":memory:" for tests.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Single connection serializes writers; SQLite handles the rest.
	db.SetMaxOpenConns(1)
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS entries (
            code       TEXT PRIMARY KEY,
            target     TEXT NOT NULL,
            created_at INTEGER NOT NULL,
            hits       INTEGER NOT NULL DEFAULT 0
        )
    `)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Upsert(code, target string, now time.Time) error {
	// Explicit two-branch upsert: insert, or overwrite the existing row.
	// The conflict branch resets hits to zero — a replaced code starts
	// its life over.
	_, err := r.db.Exec(`
        INSERT INTO entries (code, target, created_at, hits)
        VALUES (?, ?, ?, 0)
        ON CONFLICT(code) DO UPDATE SET
            target     = excluded.target,
            created_at = excluded.created_at,
            hits       = 0
    `, code, target, now.Unix())
	return err
}

func (r *SQLiteRepository) Get(code string) (*model.Entry, error) {
	entry := &model.Entry{}
	err := r.db.QueryRow(
		"SELECT code, target, created_at, hits FROM entries WHERE code = ?",
		code,
	).Scan(&entry.Code, &entry.Target, &entry.CreatedAt, &entry.Hits)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *SQLiteRepository) IncrementHits(code string) error {
	result, err := r.db.Exec(
		"UPDATE entries SET hits = hits + 1 WHERE code = ?",
		code,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) FindExpired(now time.Time, ttl time.Duration) ([]model.Entry, error) {
	rows, err := r.db.Query(
		"SELECT code, target, created_at, hits FROM entries WHERE ? - created_at > ?",
		now.Unix(), int64(ttl.Seconds()),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *SQLiteRepository) Delete(code string) error {
	// Idempotent: deleting an absent code affects zero rows and that
	// is fine (the reaper may race another delete).
	_, err := r.db.Exec("DELETE FROM entries WHERE code = ?", code)
	return err
}

func (r *SQLiteRepository) List(filter string) ([]model.Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if filter != "" {
		pattern := "%" + filter + "%"
		rows, err = r.db.Query(
			"SELECT code, target, created_at, hits FROM entries WHERE code LIKE ? OR target LIKE ? ORDER BY created_at DESC",
			pattern, pattern,
		)
	} else {
		rows, err = r.db.Query(
			"SELECT code, target, created_at, hits FROM entries ORDER BY created_at DESC",
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanEntries(rows *sql.Rows) ([]model.Entry, error) {
	var entries []model.Entry
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.Code, &e.Target, &e.CreatedAt, &e.Hits); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ Repository = (*SQLiteRepository)(nil)
