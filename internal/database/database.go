package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"jadwalpoli/internal/model"
)

// ErrNotFound is returned when no snapshot exists for a doctor.
var ErrNotFound = errors.New("snapshot not found")

// DB wraps sql.DB for doctor schedule snapshots.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{DB: db, path: path}, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS doctor_snapshots (
			doctor_code TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			fetched_at DATETIME NOT NULL
		)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveDoctor stores the latest known schedule of a doctor.
func (db *DB) SaveDoctor(ctx context.Context, doc *model.Doctor, fetchedAt time.Time) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doctor: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO doctor_snapshots (doctor_code, payload, fetched_at)
		VALUES (?, ?, ?)`,
		doc.Code, string(payload), fetchedAt.UTC(),
	)
	return err
}

// GetDoctor returns the stored snapshot and the time it was fetched.
func (db *DB) GetDoctor(ctx context.Context, code string) (*model.Doctor, time.Time, error) {
	var (
		payload   string
		fetchedAt time.Time
	)
	err := db.QueryRowContext(ctx,
		"SELECT payload, fetched_at FROM doctor_snapshots WHERE doctor_code = ?",
		code,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	var doc model.Doctor
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot %s: %w", code, err)
	}
	return &doc, fetchedAt, nil
}

// ListDoctors returns every stored snapshot ordered by doctor code.
func (db *DB) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := db.QueryContext(ctx, "SELECT payload FROM doctor_snapshots ORDER BY doctor_code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Doctor
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var doc model.Doctor
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
