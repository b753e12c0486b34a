package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentsCollection holds one document per artifact, unique on path.
const DocumentsCollection = "documents"

type mongoDocument struct {
	Path      string    `bson:"path"`
	Kind      string    `bson:"kind"`
	Period    string    `bson:"period"`
	Area      string    `bson:"area,omitempty"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(DocumentsCollection)}
}

func (s *MongoStore) Read(ctx context.Context, addr Address) ([]byte, bool, error) {
	if err := addr.Validate(); err != nil {
		return nil, false, err
	}
	var doc mongoDocument
	err := s.col.FindOne(ctx, bson.M{"path": addr.Key()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", addr, err)
	}
	return []byte(doc.Content), true, nil
}

// Write upserts the artifact uniquely identified by its logical path.
func (s *MongoStore) Write(ctx context.Context, addr Address, content []byte) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	now := time.Now()
	filter := bson.M{"path": addr.Key()}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": now,
		},
		"$set": bson.M{
			"kind":       string(addr.Kind),
			"period":     addr.Period(),
			"area":       string(addr.Area),
			"content":    string(content),
			"updated_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.col.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("upsert %s: %w", addr, err)
	}
	return nil
}
