package entity

import (
	"time"

	"shopify-oauth-layer/internal/domain"
)

// MongoStateDoc is a pending authorization nonce. expiresAt carries the TTL index.
type MongoStateDoc struct {
	Key       string    `bson:"_id"`
	Nonce     string    `bson:"nonce"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoStateDoc) ToDomain() *domain.AuthorizationState {
	return &domain.AuthorizationState{
		Key:       d.Key,
		Nonce:     d.Nonce,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
	}
}

// MongoStateDocFromDomain converts a domain entity to a MongoDB document
func MongoStateDocFromDomain(state *domain.AuthorizationState) *MongoStateDoc {
	return &MongoStateDoc{
		Key:       state.Key,
		Nonce:     state.Nonce,
		ExpiresAt: state.ExpiresAt,
		CreatedAt: state.CreatedAt,
	}
}
