package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"shopify-oauth-layer/internal/domain"

	"github.com/rs/zerolog"
)

// InstallationRemover deletes the installation record of a shop.
type InstallationRemover interface {
	RemoveInstallation(ctx context.Context, rawShop string) error
}

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger        zerolog.Logger
	installations InstallationRemover
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, installations InstallationRemover) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:        logger,
		installations: installations,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle removes the installation record of the shop that uninstalled the app
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shop := event.Shop
	if shop == "" {
		var payload struct {
			Domain          string `json:"domain"`
			MyshopifyDomain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
		}
		shop = payload.MyshopifyDomain
		if shop == "" {
			shop = payload.Domain
		}
	}
	if shop == "" {
		return fmt.Errorf("app uninstalled webhook without shop domain")
	}

	if err := h.installations.RemoveInstallation(ctx, shop); err != nil {
		h.logger.Warn().Err(err).Str("shop", shop).Msg("Failed to remove installation")
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shop).
		Msg("App uninstalled - installation removed")
	return nil
}
