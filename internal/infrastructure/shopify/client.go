package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/infrastructure/metrics"
	"shopify-oauth-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultExchangeTimeout bounds the code-for-token call.
	DefaultExchangeTimeout = 10 * time.Second

	// maxErrorBody caps how much of an upstream error body is kept for diagnostics.
	maxErrorBody = 4 << 10
)

// ClientConfig configures a Client.
type ClientConfig struct {
	ClientID     string
	ClientSecret string

	// HTTPClient is used for the token exchange and Admin API calls.
	// Defaults to a client with DefaultExchangeTimeout.
	HTTPClient *http.Client

	// TokenURL overrides the access token endpoint, mainly for tests.
	TokenURL func(shop domain.ShopDomain) string

	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Client talks to a shop's OAuth endpoints and Admin API.
type Client struct {
	clientID     string
	clientSecret string
	app          goshopify.App
	httpClient   *http.Client
	tokenURL     func(shop domain.ShopDomain) string
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

var (
	_ ports.AuthorizationURLBuilder = (*Client)(nil)
	_ ports.TokenExchanger          = (*Client)(nil)
	_ ports.ShopInfoFetcher         = (*Client)(nil)
)

// NewClient creates a new Shopify OAuth client
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultExchangeTimeout}
	}
	tokenURL := cfg.TokenURL
	if tokenURL == nil {
		tokenURL = AccessTokenURL
	}
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		app: goshopify.App{
			ApiKey:    cfg.ClientID,
			ApiSecret: cfg.ClientSecret,
		},
		httpClient: httpClient,
		tokenURL:   tokenURL,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// AccessTokenURL returns https://<shop>/admin/oauth/access_token.
func AccessTokenURL(shop domain.ShopDomain) string {
	return fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
}

// BuildAuthURL composes https://<shop>/admin/oauth/authorize. Parameters keep the
// order client_id, scope, redirect_uri, state, response_type; scopes are comma-joined.
func (c *Client) BuildAuthURL(params ports.AuthURLParams) string {
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s&response_type=code",
		params.Shop,
		url.QueryEscape(params.ClientID),
		url.QueryEscape(strings.Join(params.Scopes, ",")),
		url.QueryEscape(params.RedirectURI),
		url.QueryEscape(params.State),
	)
}

type accessTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
}

// ExchangeToken posts the authorization code to the shop's token endpoint.
// It never retries: Shopify consumes a code on first use.
func (c *Client) ExchangeToken(ctx context.Context, shop domain.ShopDomain, code string) (*domain.AccessTokenResult, error) {
	if c.clientID == "" {
		return nil, domain.NewMissingConfigurationError("SHOPIFY_API_KEY")
	}
	if c.clientSecret == "" {
		return nil, domain.NewMissingConfigurationError("SHOPIFY_API_SECRET")
	}

	payload, err := json.Marshal(accessTokenRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Code:         code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(shop), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveTokenExchange(metrics.ExchangeNetworkError, time.Since(start))
		c.logger.Warn().Err(err).Str("shop", shop.String()).Msg("Token exchange request failed")
		return nil, domain.NewTokenExchangeError(0, "", fmt.Errorf("failed to exchange token: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		c.metrics.ObserveTokenExchange(metrics.ExchangeNetworkError, time.Since(start))
		return nil, domain.NewTokenExchangeError(resp.StatusCode, "", fmt.Errorf("failed to read token response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveTokenExchange(metrics.ExchangeRejected, time.Since(start))
		c.logger.Warn().
			Str("shop", shop.String()).
			Int("status", resp.StatusCode).
			Msg("Token exchange rejected by Shopify")
		return nil, domain.NewTokenExchangeError(resp.StatusCode, string(body), nil)
	}

	var token domain.AccessTokenResult
	if err := json.Unmarshal(body, &token); err != nil {
		c.metrics.ObserveTokenExchange(metrics.ExchangeInvalidResponse, time.Since(start))
		return nil, domain.NewTokenExchangeError(resp.StatusCode, "", fmt.Errorf("failed to decode token response: %w", err))
	}
	if token.AccessToken == "" {
		c.metrics.ObserveTokenExchange(metrics.ExchangeInvalidResponse, time.Since(start))
		return nil, domain.NewTokenExchangeError(resp.StatusCode, string(body), fmt.Errorf("no access token received from Shopify"))
	}

	c.metrics.ObserveTokenExchange(metrics.ExchangeSuccess, time.Since(start))
	c.logger.Info().
		Str("shop", shop.String()).
		Str("scope", token.Scope).
		Msg("Token exchange completed")

	return &token, nil
}

// GetShopInfo loads the shop resource through the Admin API with a fresh token.
func (c *Client) GetShopInfo(ctx context.Context, shop domain.ShopDomain, accessToken string) (*domain.ShopInfo, error) {
	client, err := goshopify.NewClient(c.app, shop.String(), accessToken, goshopify.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	info, err := client.Shop.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return &domain.ShopInfo{
		Name:     info.Name,
		Email:    info.Email,
		PlanName: info.PlanName,
	}, nil
}
