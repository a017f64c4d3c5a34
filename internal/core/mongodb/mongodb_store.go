package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markdave123-py/docvault/internal/config"
	"github.com/markdave123-py/docvault/internal/core"
	"github.com/markdave123-py/docvault/internal/models"
)

const (
	filesCollection = "files"
	usersCollection = "users"
	connectTimeout  = 30 * time.Second
)

var _ core.Store = (*MongoStore)(nil)

// MongoStore keeps files and users in two collections keyed by ObjectID.
type MongoStore struct {
	client *mongo.Client
	files  *mongo.Collection
	users  *mongo.Collection
}

func NewMongoStore(ctx context.Context, cfg *config.Config) (*MongoStore, error) {
	if cfg.MongoURI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.MongoDatabase == "" {
		return nil, errors.New("mongo database name is required")
	}

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	ms := &MongoStore{
		client: client,
		files:  db.Collection(filesCollection),
		users:  db.Collection(usersCollection),
	}
	if err := ms.ensureIndexes(connCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	slog.Info("mongo metadata store ready", "database", cfg.MongoDatabase)
	return ms, nil
}

func (ms *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := ms.files.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "storage_name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create file indexes: %w", err)
	}
	_, err = ms.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (ms *MongoStore) Close(ctx context.Context) error {
	if ms.client == nil {
		return nil
	}
	return ms.client.Disconnect(ctx)
}

// ValidID reports whether id is a 24-character hex ObjectID.
func (ms *MongoStore) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (ms *MongoStore) InsertFile(ctx context.Context, f *models.StoredFile) error {
	if f == nil {
		return errors.New("nil stored file")
	}
	doc := newFileDocument(f, time.Now())
	if _, err := ms.files.InsertOne(ctx, doc); err != nil {
		return err
	}
	*f = doc.toModel()
	return nil
}

func (ms *MongoStore) GetFileByID(ctx context.Context, id string) (*models.StoredFile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc fileDocument
	err = ms.files.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f := doc.toModel()
	return &f, nil
}

func (ms *MongoStore) ListFilesByOwner(ctx context.Context, ownerID string) ([]models.StoredFile, error) {
	cursor, err := ms.files.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.StoredFile{}
	for cursor.Next(ctx) {
		var doc fileDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toModel())
	}
	return out, cursor.Err()
}

func (ms *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	doc := newUserDocument(user, time.Now())
	if _, err := ms.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", user.Email, core.ErrDuplicateUser)
		}
		return err
	}
	*user = doc.toModel()
	return nil
}

func (ms *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return ms.findUser(ctx, bson.M{"email": email})
}

func (ms *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return ms.findUser(ctx, bson.M{"_id": oid})
}

func (ms *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	err := ms.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := doc.toModel()
	return &u, nil
}
