package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/rs/zerolog"
)

// InstallationService keeps a record of shops that completed the handshake.
type InstallationService struct {
	installationRepo ports.InstallationRepository
	shopInfo         ports.ShopInfoFetcher
	timeout          time.Duration
	logger           zerolog.Logger
}

// NewInstallationService creates a new installation service. shopInfo may be nil.
func NewInstallationService(
	installationRepo ports.InstallationRepository,
	shopInfo ports.ShopInfoFetcher,
	logger zerolog.Logger,
) *InstallationService {
	return &InstallationService{
		installationRepo: installationRepo,
		shopInfo:         shopInfo,
		timeout:          10 * time.Second,
		logger:           logger,
	}
}

var _ InstallationRecorder = (*InstallationService)(nil)

// RecordInstallation upserts the installation, enriched with shop details when
// they can be fetched. Errors are logged and swallowed.
func (s *InstallationService) RecordInstallation(ctx context.Context, shop domain.ShopDomain, token *domain.AccessTokenResult) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	installation := &domain.Installation{
		Shop:  shop.String(),
		Scope: token.Scope,
	}

	if s.shopInfo != nil {
		info, err := s.shopInfo.GetShopInfo(ctx, shop, token.AccessToken)
		if err != nil {
			s.logger.Warn().Err(err).Str("shop", shop.String()).Msg("Failed to fetch shop details")
		} else {
			installation.ShopName = info.Name
			installation.Email = info.Email
			installation.PlanName = info.PlanName
		}
	}

	if err := s.installationRepo.Upsert(ctx, installation); err != nil {
		s.logger.Error().Err(err).Str("shop", shop.String()).Msg("Failed to record installation")
		return
	}

	s.logger.Info().
		Str("shop", shop.String()).
		Str("scope", installation.Scope).
		Msg("Recorded installation")
}

// GetInstallation returns the record for a shop in any accepted input form.
func (s *InstallationService) GetInstallation(ctx context.Context, rawShop string) (*domain.Installation, error) {
	shop, err := domain.NormalizeShopDomain(rawShop)
	if err != nil {
		return nil, err
	}

	installation, err := s.installationRepo.GetByShop(ctx, shop.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}
	if installation == nil {
		return nil, ports.ErrInstallationNotFound
	}
	return installation, nil
}

// RemoveInstallation deletes the record for a shop. A missing record is not an error.
func (s *InstallationService) RemoveInstallation(ctx context.Context, rawShop string) error {
	shop, err := domain.NormalizeShopDomain(rawShop)
	if err != nil {
		return err
	}
	err = s.installationRepo.Delete(ctx, shop.String())
	if errors.Is(err, ports.ErrInstallationNotFound) {
		s.logger.Debug().Str("shop", shop.String()).Msg("No installation to remove")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
	}

	s.logger.Info().Str("shop", shop.String()).Msg("Removed installation")
	return nil
}
