package ports

import (
	"context"

	"shopify-oauth-layer/internal/domain"
)

// NonceGenerator produces single-use anti-forgery tokens.
type NonceGenerator interface {
	Generate() (string, error)
}

// AuthURLParams are the validated inputs of an authorization redirect.
type AuthURLParams struct {
	Shop        domain.ShopDomain
	ClientID    string
	RedirectURI string
	Scopes      []string
	State       string
}

// AuthorizationURLBuilder composes the provider's authorize URL.
type AuthorizationURLBuilder interface {
	BuildAuthURL(params AuthURLParams) string
}

// CallbackVerifier checks the provider signature over callback parameters.
// A mismatch is (false, nil); an error means verification could not run.
type CallbackVerifier interface {
	Verify(params domain.CallbackParameters) (bool, error)
}

// TokenExchanger trades an authorization code for an access token.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, shop domain.ShopDomain, code string) (*domain.AccessTokenResult, error)
}

// ShopInfoFetcher reads shop details with a freshly issued token.
type ShopInfoFetcher interface {
	GetShopInfo(ctx context.Context, shop domain.ShopDomain, accessToken string) (*domain.ShopInfo, error)
}
