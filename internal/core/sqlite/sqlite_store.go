// Package sqlite is a single-file metadata and user store for deployments
// without a database server.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/markdave123-py/docvault/internal/config"
	"github.com/markdave123-py/docvault/internal/core"
	"github.com/markdave123-py/docvault/internal/models"
)

//go:embed scripts/schema.sql
var schema string

var _ core.Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, cfg *config.Config) (*SQLiteStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sqlite store configuration is nil")
	}
	return Open(ctx, cfg.SQLitePath)
}

// Open opens or creates the database file at path and applies the schema.
// Pragmas go through the DSN so every pooled connection gets them.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLITE_PATH is empty")
	}

	q := url.Values{}
	q.Add("_pragma", "busy_timeout(10000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "foreign_keys(ON)")

	db, err := sql.Open("sqlite", path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(8)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	slog.Info("sqlite store ready", "path", path)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *SQLiteStore) InsertFile(ctx context.Context, f *models.StoredFile) error {
	if f == nil {
		return errors.New("nil stored file")
	}
	id, now := uuid.NewString(), time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stored_files (id, owner_id, storage_name, original_name, content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, f.OwnerID, f.StorageName, f.OriginalName, f.ContentType, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return err
	}
	f.ID = id
	f.CreatedAt, f.UpdatedAt = now.Truncate(time.Millisecond), now.Truncate(time.Millisecond)
	return nil
}

func (s *SQLiteStore) GetFileByID(ctx context.Context, id string) (*models.StoredFile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, storage_name, original_name, content_type, created_at, updated_at
		FROM stored_files WHERE id = ?`, id)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

func (s *SQLiteStore) ListFilesByOwner(ctx context.Context, ownerID string) ([]models.StoredFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, storage_name, original_name, content_type, created_at, updated_at
		FROM stored_files WHERE owner_id = ?
		ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.StoredFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	id, now := uuid.NewString(), time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, u.Username, u.Email, u.PasswordHash, now.UnixMilli(), now.UnixMilli())
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", u.Email, core.ErrDuplicateUser)
	}
	if err != nil {
		return err
	}
	u.ID = id
	u.CreatedAt, u.UpdatedAt = now.Truncate(time.Millisecond), now.Truncate(time.Millisecond)
	return nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email = ?`, email)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id = ?`, id)
}

func (s *SQLiteStore) getUser(ctx context.Context, q string, arg string) (*models.User, error) {
	var (
		u                models.User
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt, u.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(sc scanner) (*models.StoredFile, error) {
	var (
		f                models.StoredFile
		created, updated int64
	)
	if err := sc.Scan(&f.ID, &f.OwnerID, &f.StorageName, &f.OriginalName, &f.ContentType, &created, &updated); err != nil {
		return nil, err
	}
	f.CreatedAt, f.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &f, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
