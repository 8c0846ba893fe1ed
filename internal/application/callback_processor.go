package application

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/rs/zerolog"
)

// InstallationRecorder is told about every completed handshake. It must not fail the callback.
type InstallationRecorder interface {
	RecordInstallation(ctx context.Context, shop domain.ShopDomain, token *domain.AccessTokenResult)
}

// CallbackProcessor completes the handshake when Shopify redirects back.
type CallbackProcessor struct {
	verifier      ports.CallbackVerifier
	exchanger     ports.TokenExchanger
	installations InstallationRecorder
	landingPath   string
	logger        zerolog.Logger
}

// NewCallbackProcessor creates a processor. installations may be nil.
func NewCallbackProcessor(
	verifier ports.CallbackVerifier,
	exchanger ports.TokenExchanger,
	installations InstallationRecorder,
	landingPath string,
	logger zerolog.Logger,
) *CallbackProcessor {
	if landingPath == "" {
		landingPath = "/"
	}
	return &CallbackProcessor{
		verifier:      verifier,
		exchanger:     exchanger,
		installations: installations,
		landingPath:   landingPath,
		logger:        logger,
	}
}

// CallbackRequest carries one callback.
type CallbackRequest struct {
	Params domain.CallbackParameters

	// Store and FlowKey locate the nonce saved at initiation.
	Store   ports.StateStore
	FlowKey string

	// Credentials receives the access token. May be nil.
	Credentials ports.CredentialStore
}

// CallbackResult is the outcome of a completed handshake.
type CallbackResult struct {
	Shop        domain.ShopDomain
	Scope       string
	RedirectURL string
}

// Process runs the callback checks in order: parameters, state, signature,
// shop domain. Only then is the code exchanged. The stored nonce is consumed
// as soon as it has been read, whatever the outcome.
func (p *CallbackProcessor) Process(ctx context.Context, req CallbackRequest) (result *CallbackResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("Callback processing panicked")
			result = nil
			err = domain.NewInternalError(fmt.Errorf("panic: %v", r))
		}
	}()

	if missing := req.Params.Missing(); len(missing) > 0 {
		return nil, domain.NewMissingParameterError(missing...)
	}

	if err := p.consumeState(ctx, req); err != nil {
		return nil, err
	}

	ok, err := p.verifier.Verify(req.Params)
	if err != nil {
		return nil, domain.AsOAuthError(err)
	}
	if !ok {
		p.logger.Warn().Str("shop", req.Params.Shop()).Msg("Callback signature mismatch")
		return nil, domain.NewInvalidSignatureError()
	}

	shop, err := domain.NormalizeShopDomain(req.Params.Shop())
	if err != nil {
		return nil, err
	}

	token, err := p.exchanger.ExchangeToken(ctx, shop, req.Params.Code())
	if err != nil {
		oe := domain.AsOAuthError(err)
		p.logger.Error().
			Err(err).
			Str("shop", shop.String()).
			Int("upstream_status", oe.UpstreamStatus).
			Msg("Failed to exchange authorization code")
		return nil, oe
	}

	if req.Credentials != nil {
		if err := req.Credentials.SaveCredential(ctx, &domain.ShopCredential{
			Shop:        shop,
			AccessToken: token.AccessToken,
			Scope:       token.Scope,
		}); err != nil {
			p.logger.Error().Err(err).Str("shop", shop.String()).Msg("Failed to save credential")
			return nil, domain.NewInternalError(err)
		}
	}

	if p.installations != nil {
		p.installations.RecordInstallation(ctx, shop, token)
	}

	p.logger.Info().
		Str("shop", shop.String()).
		Str("scope", token.Scope).
		Msg("OAuth handshake completed")

	return &CallbackResult{
		Shop:        shop,
		Scope:       token.Scope,
		RedirectURL: LandingURL(p.landingPath, shop),
	}, nil
}

// consumeState takes the stored nonce out of the store, then compares it with
// the state echoed by Shopify. A nonce that cannot be removed is never accepted.
func (p *CallbackProcessor) consumeState(ctx context.Context, req CallbackRequest) error {
	if req.Store == nil || req.FlowKey == "" {
		return domain.NewInvalidStateError("no authorization in progress for this browser")
	}

	stored, err := req.Store.Consume(ctx, req.FlowKey)
	if errors.Is(err, ports.ErrStateNotFound) {
		return domain.NewInvalidStateError("authorization state not found or expired")
	}
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to consume state")
		return domain.NewInternalError(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.Params.State())) != 1 {
		p.logger.Warn().Str("shop", req.Params.Shop()).Msg("Callback state mismatch")
		return domain.NewInvalidStateError("state mismatch")
	}
	return nil
}

// LandingURL builds <path>?shop=<shop>&host=<base64(shop/admin)>, the form
// embedded apps expect after install.
func LandingURL(path string, shop domain.ShopDomain) string {
	host := base64.StdEncoding.EncodeToString([]byte(shop.String() + "/admin"))
	return fmt.Sprintf("%s?shop=%s&host=%s", path, url.QueryEscape(shop.String()), url.QueryEscape(host))
}
