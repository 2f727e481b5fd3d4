// Package docstore implements the DocumentStore port.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rescam/phish-triage/internal/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// NewMongoClient creates a new MongoDB client and verifies connectivity.
func NewMongoClient(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// MongoStore implements core.DocumentStore over a MongoDB database, one
// MongoDB collection per document collection, keyed by _id.
type MongoStore struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoStore creates a new MongoDB document store.
func NewMongoStore(db *mongo.Database, logger *zap.Logger) *MongoStore {
	return &MongoStore{db: db, logger: logger}
}

// Get returns the field mapping of a document, or core.ErrDocumentNotFound.
func (s *MongoStore) Get(ctx context.Context, collection, documentID string) (map[string]any, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": documentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("mongo lookup %s/%s: %w", collection, documentID, err)
	}
	delete(doc, "_id")
	return normalize(doc), nil
}

// normalize converts bson container types into plain Go maps and slices so
// callers see the same shapes regardless of store backend.
func normalize(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return normalize(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.A:
		arr := make([]any, len(t))
		for i, e := range t {
			arr[i] = normalizeValue(e)
		}
		return arr
	default:
		return v
	}
}
