package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/dmitrymomot/saaskit/pkg/cookie"
)

// cookieCredentialStore hands the access token to the browser session:
// the token is encrypted into one cookie, the shop goes in another.
type cookieCredentialStore struct {
	w       http.ResponseWriter
	cookies *cookie.Manager
	maxAge  time.Duration
}

var _ ports.CredentialStore = (*cookieCredentialStore)(nil)

func (s *cookieCredentialStore) SaveCredential(_ context.Context, c *domain.ShopCredential) error {
	maxAge := cookie.WithMaxAge(int(s.maxAge / time.Second))
	if err := s.cookies.SetEncrypted(s.w, TokenCookieName, c.AccessToken, maxAge); err != nil {
		return fmt.Errorf("failed to set token cookie: %w", err)
	}
	if err := s.cookies.Set(s.w, ShopCookieName, c.Shop.String(), maxAge); err != nil {
		return fmt.Errorf("failed to set shop cookie: %w", err)
	}
	return nil
}
