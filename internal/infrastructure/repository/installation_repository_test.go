package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"
)

func TestMongoInstallationRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewMongoInstallationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, repo.EnsureIndexes(ctx))
	})

	mt.Run("upsert", func(mt *mtest.T) {
		repo := NewMongoInstallationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: primitive.NewObjectID()}}}},
		))

		err := repo.Upsert(ctx, &domain.Installation{Shop: "test-shop.myshopify.com", Scope: "read_products"})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
	})

	mt.Run("upsert failure", func(mt *mtest.T) {
		repo := NewMongoInstallationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value", Name: "BadValue"}))

		err := repo.Upsert(ctx, &domain.Installation{Shop: "test-shop.myshopify.com"})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to save installation")
	})

	mt.Run("get by shop", func(mt *mtest.T) {
		repo := NewMongoInstallationRepository(mt.DB)
		id := primitive.NewObjectID()
		installedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.installations", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "shop", Value: "test-shop.myshopify.com"},
			{Key: "scope", Value: "read_products"},
			{Key: "shopName", Value: "Test Shop"},
			{Key: "installedAt", Value: installedAt},
			{Key: "updatedAt", Value: installedAt},
		}))

		got, err := repo.GetByShop(ctx, "test-shop.myshopify.com")
		require.NoError(mt, err)
		require.NotNil(mt, got)
		assert.Equal(mt, id.Hex(), got.ID)
		assert.Equal(mt, "test-shop.myshopify.com", got.Shop)
		assert.Equal(mt, "Test Shop", got.ShopName)
		assert.True(mt, installedAt.Equal(got.InstalledAt))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoInstallationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.installations", mtest.FirstBatch))

		got, err := repo.GetByShop(ctx, "nope.myshopify.com")
		require.NoError(mt, err)
		assert.Nil(mt, got)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoInstallationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(mt, repo.Delete(ctx, "test-shop.myshopify.com"))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(mt, repo.Delete(ctx, "test-shop.myshopify.com"), ports.ErrInstallationNotFound)
	})
}
