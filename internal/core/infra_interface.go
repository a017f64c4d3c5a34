package core

import (
	"context"
	"io"

	"github.com/markdave123-py/docvault/internal/models"
)

// MetadataStore persists StoredFile records. It abstracts Postgres/MongoDB so
// the services never depend on a specific database.
//
// GetFileByID returns (nil, nil) when no record exists.
type MetadataStore interface {
	// ValidID reports whether id is well formed for this store. Callers use it
	// to reject malformed identifiers without a round-trip.
	ValidID(id string) bool

	// InsertFile assigns ID, CreatedAt and UpdatedAt on f.
	InsertFile(ctx context.Context, f *models.StoredFile) error
	GetFileByID(ctx context.Context, id string) (*models.StoredFile, error)
	ListFilesByOwner(ctx context.Context, ownerID string) ([]models.StoredFile, error)
}

// UserStore persists accounts. Lookups return (nil, nil) when absent and
// CreateUser returns ErrDuplicateUser when the email is taken.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store is what a metadata backend provides to the app.
type Store interface {
	MetadataStore
	UserStore
	Close(ctx context.Context) error
}

// BlobStore defines interactions with S3 or any byte storage addressed by name.
// Open and Exists report a missing blob through ErrNotFound / false, never as a
// generic failure.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader, contentType string) error
	Exists(ctx context.Context, name string) (bool, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
