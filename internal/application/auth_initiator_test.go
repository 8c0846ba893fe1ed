package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-oauth-layer/internal/domain"
)

const redirectURI = "https://app.example/auth/callback"

func newInitiator(nonces *fakeNonces, urls *fakeURLBuilder, clientID string, ttl time.Duration) *AuthInitiator {
	return NewAuthInitiator(nonces, urls, clientID, []string{"read_products", "write_products"}, ttl, zerolog.Nop())
}

func TestAuthInitiator_Success(t *testing.T) {
	t.Parallel()

	nonces := &fakeNonces{values: []string{"abc"}}
	urls := &fakeURLBuilder{}
	store := newFakeStore()

	res, err := newInitiator(nonces, urls, "key", 10*time.Minute).Initiate(context.Background(), InitiateRequest{
		Shop:        "test-shop",
		RedirectURI: redirectURI,
		Store:       store,
		FlowKey:     "flow",
	})
	require.NoError(t, err)

	assert.Equal(t, "test-shop.myshopify.com", res.Shop.String())
	assert.Equal(t, "abc", res.State)
	assert.Equal(t, "https://test-shop.myshopify.com/admin/oauth/authorize?state=abc", res.AuthorizationURL)

	assert.Equal(t, storeEntry{value: "abc", ttl: 10 * time.Minute}, store.entries["flow"])
	assert.Equal(t, "key", urls.got.ClientID)
	assert.Equal(t, redirectURI, urls.got.RedirectURI)
	assert.Equal(t, []string{"read_products", "write_products"}, urls.got.Scopes)
}

func TestAuthInitiator_StateTTLClamped(t *testing.T) {
	t.Parallel()

	for _, ttl := range []time.Duration{0, -time.Second, time.Hour} {
		a := newInitiator(&fakeNonces{}, &fakeURLBuilder{}, "key", ttl)
		assert.Equal(t, domain.MaxStateTTL, a.StateTTL())
	}
	assert.Equal(t, time.Minute, newInitiator(&fakeNonces{}, &fakeURLBuilder{}, "key", time.Minute).StateTTL())
}

func TestAuthInitiator_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		shop     string
		clientID string
		redirect string
		nonceErr error
		setErr   error
		want     *domain.OAuthError
	}{
		{name: "missing shop", shop: "", clientID: "key", redirect: redirectURI, want: domain.ErrMissingParameter},
		{name: "invalid shop", shop: "evil.com", clientID: "key", redirect: redirectURI, want: domain.ErrInvalidShopDomain},
		{name: "invalid shop beats missing key", shop: "bad_shop!", clientID: "", redirect: redirectURI, want: domain.ErrInvalidShopDomain},
		{name: "missing client id", shop: "test-shop", clientID: "", redirect: redirectURI, want: domain.ErrMissingConfiguration},
		{name: "missing redirect", shop: "test-shop", clientID: "key", redirect: "", want: domain.ErrMissingConfiguration},
		{name: "nonce failure", shop: "test-shop", clientID: "key", redirect: redirectURI, nonceErr: errBoom, want: domain.ErrInternal},
		{name: "store failure", shop: "test-shop", clientID: "key", redirect: redirectURI, setErr: errBoom, want: domain.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			store.setErr = tt.setErr
			nonces := &fakeNonces{err: tt.nonceErr}

			res, err := newInitiator(nonces, &fakeURLBuilder{}, tt.clientID, 0).Initiate(context.Background(), InitiateRequest{
				Shop:        tt.shop,
				RedirectURI: tt.redirect,
				Store:       store,
				FlowKey:     "flow",
			})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, store.entries)
		})
	}
}

func TestAuthInitiator_ValidationRunsBeforeNonce(t *testing.T) {
	t.Parallel()

	nonces := &fakeNonces{}
	store := newFakeStore()
	_, err := newInitiator(nonces, &fakeURLBuilder{}, "key", 0).Initiate(context.Background(), InitiateRequest{
		Shop:        "https://evil.com",
		RedirectURI: redirectURI,
		Store:       store,
		FlowKey:     "flow",
	})
	require.Error(t, err)
	assert.Zero(t, nonces.calls)
	assert.Zero(t, store.setCalls)
}
