package application

import (
	"context"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/rs/zerolog"
)

// AuthInitiator starts the OAuth handshake for a shop.
type AuthInitiator struct {
	nonces   ports.NonceGenerator
	urls     ports.AuthorizationURLBuilder
	clientID string
	scopes   []string
	stateTTL time.Duration
	logger   zerolog.Logger
}

// NewAuthInitiator creates an initiator. stateTTL is clamped to domain.MaxStateTTL.
func NewAuthInitiator(
	nonces ports.NonceGenerator,
	urls ports.AuthorizationURLBuilder,
	clientID string,
	scopes []string,
	stateTTL time.Duration,
	logger zerolog.Logger,
) *AuthInitiator {
	if stateTTL <= 0 || stateTTL > domain.MaxStateTTL {
		stateTTL = domain.MaxStateTTL
	}
	return &AuthInitiator{
		nonces:   nonces,
		urls:     urls,
		clientID: clientID,
		scopes:   scopes,
		stateTTL: stateTTL,
		logger:   logger,
	}
}

// InitiateRequest carries one initiation attempt.
type InitiateRequest struct {
	Shop        string
	RedirectURI string

	// Store and FlowKey say where the nonce is kept until the callback.
	Store   ports.StateStore
	FlowKey string
}

// InitiateResult is the outcome of a successful initiation.
type InitiateResult struct {
	Shop             domain.ShopDomain
	AuthorizationURL string
	State            string
	StateTTL         time.Duration
}

// StateTTL returns the lifetime given to persisted nonces.
func (a *AuthInitiator) StateTTL() time.Duration {
	return a.stateTTL
}

// Initiate validates the shop, persists a fresh nonce and builds the
// authorization URL. Nothing is persisted when validation fails.
func (a *AuthInitiator) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if req.Shop == "" {
		return nil, domain.NewMissingParameterError(domain.ParamShop)
	}

	shop, err := domain.NormalizeShopDomain(req.Shop)
	if err != nil {
		return nil, err
	}

	if a.clientID == "" {
		return nil, domain.NewMissingConfigurationError("SHOPIFY_API_KEY")
	}
	if req.RedirectURI == "" {
		return nil, domain.NewMissingConfigurationError("APP_URL")
	}

	nonce, err := a.nonces.Generate()
	if err != nil {
		a.logger.Error().Err(err).Str("shop", shop.String()).Msg("Failed to generate state")
		return nil, domain.NewInternalError(err)
	}

	if err := req.Store.Set(ctx, req.FlowKey, nonce, a.stateTTL); err != nil {
		a.logger.Error().Err(err).Str("shop", shop.String()).Msg("Failed to persist state")
		return nil, domain.NewInternalError(err)
	}

	authURL := a.urls.BuildAuthURL(ports.AuthURLParams{
		Shop:        shop,
		ClientID:    a.clientID,
		RedirectURI: req.RedirectURI,
		Scopes:      a.scopes,
		State:       nonce,
	})

	a.logger.Info().
		Str("shop", shop.String()).
		Strs("scopes", a.scopes).
		Msg("Starting OAuth authorization")

	return &InitiateResult{
		Shop:             shop,
		AuthorizationURL: authURL,
		State:            nonce,
		StateTTL:         a.stateTTL,
	}, nil
}
