package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/infrastructure/repository/entity"
	"shopify-oauth-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStateStore implements StateStore using MongoDB. The TTL monitor only
// runs periodically, so Get also rejects documents past expiresAt.
type MongoStateStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoStateStore creates a new MongoDB state store
func NewMongoStateStore(db *mongo.Database) *MongoStateStore {
	return &MongoStateStore{
		collection: db.Collection("oauth_states"),
		now:        time.Now,
	}
}

var _ ports.StateStore = (*MongoStateStore)(nil)

// EnsureIndexes creates the TTL index on expiresAt
func (s *MongoStateStore) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := s.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create state ttl index: %w", err)
	}
	return nil
}

func (s *MongoStateStore) Get(ctx context.Context, key string) (string, error) {
	var doc entity.MongoStateDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ports.ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get state: %w", err)
	}

	if doc.ToDomain().Expired(s.now()) {
		return "", ports.ErrStateNotFound
	}
	return doc.Nonce, nil
}

func (s *MongoStateStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	now := s.now()
	doc := entity.MongoStateDocFromDomain(&domain.AuthorizationState{
		Key:       key,
		Nonce:     value,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Delete removes the state; a missing key is not an error.
func (s *MongoStateStore) Delete(ctx context.Context, key string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Consume removes the state with FindOneAndDelete and returns its nonce.
func (s *MongoStateStore) Consume(ctx context.Context, key string) (string, error) {
	var doc entity.MongoStateDoc
	err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ports.ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume state: %w", err)
	}

	if doc.ToDomain().Expired(s.now()) {
		return "", ports.ErrStateNotFound
	}
	return doc.Nonce, nil
}
