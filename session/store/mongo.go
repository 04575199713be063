package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sweetpotato0/reagent/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements session storage using MongoDB.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "reagent",
		Collection: "agent_runs",
	}
}

// NewMongoStore creates a new MongoDB-based session store.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}, nil
}

// Save persists a run record.
func (s *MongoStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil")
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts)
	if err != nil {
		return fmt.Errorf("failed to save session to MongoDB: %w", err)
	}
	return nil
}

// Load loads a run record.
func (s *MongoStore) Load(ctx context.Context, id string) (*session.Record, error) {
	var record session.Record
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session from MongoDB: %w", err)
	}
	return &record, nil
}

// Delete removes a run record.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session from MongoDB: %w", err)
	}
	return nil
}

// List returns all record IDs.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"created_at": -1})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

// Close disconnects the MongoDB client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
