package ports

import (
	"context"

	"shopify-oauth-layer/internal/domain"
)

// CredentialStore receives the access token of a completed handshake.
// Where and how it is kept belongs to the application.
type CredentialStore interface {
	SaveCredential(ctx context.Context, credential *domain.ShopCredential) error
}
