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

// MongoInstallationRepository implements InstallationRepository using MongoDB
type MongoInstallationRepository struct {
	collection *mongo.Collection
}

// NewMongoInstallationRepository creates a new MongoDB installation repository
func NewMongoInstallationRepository(db *mongo.Database) *MongoInstallationRepository {
	return &MongoInstallationRepository{
		collection: db.Collection("installations"),
	}
}

var _ ports.InstallationRepository = (*MongoInstallationRepository)(nil)

// EnsureIndexes creates the unique index on shop
func (r *MongoInstallationRepository) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "shop", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create installation index: %w", err)
	}
	return nil
}

// Upsert creates or refreshes the record for a shop. installedAt is only set on insert.
func (r *MongoInstallationRepository) Upsert(ctx context.Context, installation *domain.Installation) error {
	doc := entity.MongoInstallationDocFromDomain(installation)
	now := time.Now()
	if doc.InstalledAt.IsZero() {
		doc.InstalledAt = now
	}

	set := bson.M{
		"scope":     doc.Scope,
		"updatedAt": now,
	}
	if doc.ShopName != "" {
		set["shopName"] = doc.ShopName
	}
	if doc.Email != "" {
		set["email"] = doc.Email
	}
	if doc.PlanName != "" {
		set["planName"] = doc.PlanName
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": doc.Shop}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"installedAt": doc.InstalledAt},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save installation: %w", err)
	}
	return nil
}

// GetByShop retrieves an installation by canonical shop host
func (r *MongoInstallationRepository) GetByShop(ctx context.Context, shop string) (*domain.Installation, error) {
	var doc entity.MongoInstallationDoc
	filter := bson.M{"shop": shop}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}

	return doc.ToDomain(), nil
}

// Delete removes the installation for a shop
func (r *MongoInstallationRepository) Delete(ctx context.Context, shop string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"shop": shop})
	if err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
	}
	if result.DeletedCount == 0 {
		return ports.ErrInstallationNotFound
	}
	return nil
}
