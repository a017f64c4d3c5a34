package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markdave123-py/docvault/internal/models"
)

type fileDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	OwnerID      string             `bson:"owner_id"`
	StorageName  string             `bson:"storage_name"`
	OriginalName string             `bson:"original_name"`
	ContentType  string             `bson:"content_type"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// newFileDocument assigns a fresh ObjectID and timestamps. Times are cut to
// milliseconds, the precision BSON dates keep.
func newFileDocument(f *models.StoredFile, now time.Time) fileDocument {
	now = now.UTC().Truncate(time.Millisecond)
	return fileDocument{
		ID:           primitive.NewObjectID(),
		OwnerID:      f.OwnerID,
		StorageName:  f.StorageName,
		OriginalName: f.OriginalName,
		ContentType:  f.ContentType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (d fileDocument) toModel() models.StoredFile {
	return models.StoredFile{
		ID:           d.ID.Hex(),
		OwnerID:      d.OwnerID,
		StorageName:  d.StorageName,
		OriginalName: d.OriginalName,
		ContentType:  d.ContentType,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func newUserDocument(u *models.User, now time.Time) userDocument {
	now = now.UTC().Truncate(time.Millisecond)
	return userDocument{
		ID:           primitive.NewObjectID(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
