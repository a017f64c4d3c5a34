package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markdave123-py/docvault/internal/config"
	"github.com/markdave123-py/docvault/internal/core"
	"github.com/markdave123-py/docvault/internal/models"
)

func TestValidID(t *testing.T) {
	ms := &MongoStore{}
	assert.True(t, ms.ValidID("6637f86773f266242d58a746"))
	assert.True(t, ms.ValidID(primitive.NewObjectID().Hex()))
	assert.False(t, ms.ValidID("6637f86773f266242d58a74"))
	assert.False(t, ms.ValidID("zz37f86773f266242d58a746"))
	assert.False(t, ms.ValidID(""))
}

func TestFileDocumentRoundTrip(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 123456789, time.UTC)
	in := &models.StoredFile{OwnerID: "u1", StorageName: "a-u1-1-00000000.txt", OriginalName: "a.txt", ContentType: core.MediaTypeText}

	doc := newFileDocument(in, now)
	out := doc.toModel()

	assert.True(t, primitive.IsValidObjectID(out.ID))
	assert.Equal(t, in.OwnerID, out.OwnerID)
	assert.Equal(t, in.StorageName, out.StorageName)
	assert.Equal(t, now.Truncate(time.Millisecond), out.CreatedAt)
	assert.Equal(t, out.CreatedAt, out.UpdatedAt)
	assert.NotEqual(t, doc.ID, newFileDocument(in, now).ID)
}

// TestMongoStoreIntegration runs against a live MongoDB when
// DOCVAULT_TEST_MONGO_URI is set.
func TestMongoStoreIntegration(t *testing.T) {
	uri := os.Getenv("DOCVAULT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DOCVAULT_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	dbName := "docvault_test_" + primitive.NewObjectID().Hex()

	ms, err := NewMongoStore(ctx, &config.Config{MongoURI: uri, MongoDatabase: dbName})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ms.client.Database(dbName).Drop(ctx)
		_ = ms.Close(ctx)
	})

	f := &models.StoredFile{OwnerID: "owner-a", StorageName: "a.txt", ContentType: core.MediaTypeText}
	require.NoError(t, ms.InsertFile(ctx, f))
	require.True(t, ms.ValidID(f.ID))
	require.NoError(t, ms.InsertFile(ctx, &models.StoredFile{OwnerID: "owner-b", StorageName: "b.txt", ContentType: core.MediaTypeText}))
	require.Error(t, ms.InsertFile(ctx, &models.StoredFile{OwnerID: "owner-a", StorageName: "a.txt", ContentType: core.MediaTypeText}))

	got, err := ms.GetFileByID(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a.txt", got.StorageName)

	missing, err := ms.GetFileByID(ctx, primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := ms.ListFilesByOwner(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "owner-a", list[0].OwnerID)

	u := &models.User{Email: "a@example.test", PasswordHash: "x"}
	require.NoError(t, ms.CreateUser(ctx, u))
	require.ErrorIs(t, ms.CreateUser(ctx, &models.User{Email: "a@example.test"}), core.ErrDuplicateUser)

	byID, err := ms.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "a@example.test", byID.Email)
}
