package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/demoscope/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists recordings in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite recording library and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// Put stores a new recording. Names are unique; storing a name twice fails
// with storage.ErrAlreadyExists.
func (s *Store) Put(ctx context.Context, rec storage.Recording) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return fmt.Errorf("recording name is required")
	}
	if len(rec.Data) == 0 {
		return fmt.Errorf("recording data is required")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO recordings (name, data, size, created_at) VALUES (?, ?, ?, ?)`,
		name, rec.Data, int64(len(rec.Data)), toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put recording: %w", err)
	}
	return nil
}

// Get returns one recording with its bytes.
func (s *Store) Get(ctx context.Context, name string) (storage.Recording, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Recording{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Recording{}, fmt.Errorf("recording name is required")
	}

	var rec storage.Recording
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT name, data, size, created_at FROM recordings WHERE name = ?`, name,
	).Scan(&rec.Name, &rec.Data, &rec.Size, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Recording{}, storage.ErrNotFound
		}
		return storage.Recording{}, fmt.Errorf("get recording: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// List returns one page of recordings ordered by name, without their bytes.
// The page token is the last name of the previous page.
func (s *Store) List(ctx context.Context, pageSize int, pageToken string) (storage.RecordingPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.RecordingPage{}, err
	}
	if pageSize <= 0 {
		return storage.RecordingPage{}, fmt.Errorf("page size must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, size, created_at
		   FROM recordings
		  WHERE name > ?
		  ORDER BY name
		  LIMIT ?`,
		strings.TrimSpace(pageToken), pageSize+1,
	)
	if err != nil {
		return storage.RecordingPage{}, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	page := storage.RecordingPage{Recordings: make([]storage.Recording, 0, pageSize)}
	for rows.Next() {
		var rec storage.Recording
		var createdAt int64
		if err := rows.Scan(&rec.Name, &rec.Size, &createdAt); err != nil {
			return storage.RecordingPage{}, fmt.Errorf("scan recording: %w", err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		page.Recordings = append(page.Recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return storage.RecordingPage{}, fmt.Errorf("iterate recordings: %w", err)
	}
	if len(page.Recordings) > pageSize {
		page.Recordings = page.Recordings[:pageSize]
		page.NextPageToken = page.Recordings[pageSize-1].Name
	}
	return page, nil
}

// Delete removes one recording.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM recordings WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "recordings.name")
}

var _ storage.RecordingStore = (*Store)(nil)
