package ports

import (
	"context"
	"errors"

	"shopify-oauth-layer/internal/domain"
)

// ErrInstallationNotFound is returned when a shop has no installation record.
var ErrInstallationNotFound = errors.New("installation not found")

// InstallationRepository defines the interface for installation record persistence
type InstallationRepository interface {
	// Upsert creates or refreshes the record for installation.Shop
	Upsert(ctx context.Context, installation *domain.Installation) error

	// GetByShop retrieves the record for a canonical shop host, nil when absent
	GetByShop(ctx context.Context, shop string) (*domain.Installation, error)

	// Delete removes the record for a shop, ErrInstallationNotFound when absent
	Delete(ctx context.Context, shop string) error
}
