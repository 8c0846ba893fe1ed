package application

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-oauth-layer/internal/domain"
)

type callbackFixture struct {
	verifier    *fakeVerifier
	exchanger   *fakeExchanger
	recorder    *fakeRecorder
	store       *fakeStore
	credentials *fakeCredentials
	processor   *CallbackProcessor
}

func newCallbackFixture() *callbackFixture {
	f := &callbackFixture{
		verifier:    &fakeVerifier{ok: true},
		exchanger:   &fakeExchanger{token: &domain.AccessTokenResult{AccessToken: "shpat_x", Scope: "read_products"}},
		recorder:    &fakeRecorder{},
		store:       newFakeStore(),
		credentials: &fakeCredentials{},
	}
	f.store.entries["flow"] = storeEntry{value: "abc"}
	f.processor = NewCallbackProcessor(f.verifier, f.exchanger, f.recorder, "/dashboard", zerolog.Nop())
	return f
}

func (f *callbackFixture) request(params domain.CallbackParameters) CallbackRequest {
	return CallbackRequest{Params: params, Store: f.store, FlowKey: "flow", Credentials: f.credentials}
}

func validParams() domain.CallbackParameters {
	return domain.CallbackParameters{
		"shop":      "test-shop.myshopify.com",
		"code":      "the-code",
		"state":     "abc",
		"hmac":      "sig",
		"timestamp": "1700000000",
	}
}

func TestCallbackProcessor_Success(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	res, err := f.processor.Process(context.Background(), f.request(validParams()))
	require.NoError(t, err)

	assert.Equal(t, "test-shop.myshopify.com", res.Shop.String())
	assert.Equal(t, "read_products", res.Scope)
	assert.Equal(t, "/dashboard?shop=test-shop.myshopify.com&host=dGVzdC1zaG9wLm15c2hvcGlmeS5jb20vYWRtaW4%3D", res.RedirectURL)

	assert.Equal(t, "the-code", f.exchanger.code)
	require.Len(t, f.credentials.saved, 1)
	assert.Equal(t, "shpat_x", f.credentials.saved[0].AccessToken)
	assert.Len(t, f.recorder.shops, 1)
	assert.Equal(t, []string{"flow"}, f.store.consumed)
	assert.Empty(t, f.store.entries)
}

func TestCallbackProcessor_NonceIsSingleUse(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	_, err := f.processor.Process(context.Background(), f.request(validParams()))
	require.NoError(t, err)

	_, err = f.processor.Process(context.Background(), f.request(validParams()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Equal(t, 1, f.exchanger.calls)
}

func TestCallbackProcessor_MissingParameters(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"shop", "code", "state", "hmac"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newCallbackFixture()
			params := validParams()
			delete(params, name)

			_, err := f.processor.Process(context.Background(), f.request(params))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMissingParameter))
			assert.Contains(t, err.Error(), name)
			assert.Zero(t, f.verifier.calls)
			assert.Zero(t, f.exchanger.calls)
		})
	}
}

func TestCallbackProcessor_StateMismatch(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	params := validParams()
	params["state"] = "xyz"

	_, err := f.processor.Process(context.Background(), f.request(params))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Equal(t, 400, domain.AsOAuthError(err).Status())

	assert.Zero(t, f.verifier.calls)
	assert.Zero(t, f.exchanger.calls)
	assert.Equal(t, []string{"flow"}, f.store.consumed, "the stored nonce is consumed even on mismatch")
	assert.Empty(t, f.store.entries)
}

func TestCallbackProcessor_NoStoredState(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	delete(f.store.entries, "flow")

	_, err := f.processor.Process(context.Background(), f.request(validParams()))
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	req := f.request(validParams())
	req.FlowKey = ""
	_, err = f.processor.Process(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestCallbackProcessor_StoreFailure(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	f.store.consumeErr = errBoom

	for i := 0; i < 2; i++ {
		_, err := f.processor.Process(context.Background(), f.request(validParams()))
		assert.True(t, errors.Is(err, domain.ErrInternal), "attempt %d", i)
	}
	assert.Zero(t, f.verifier.calls)
	assert.Zero(t, f.exchanger.calls, "a nonce that could not be removed is never accepted")
	assert.Contains(t, f.store.entries, "flow")
}

func TestCallbackProcessor_InvalidSignature(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	f.verifier.ok = false

	_, err := f.processor.Process(context.Background(), f.request(validParams()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
	assert.Zero(t, f.exchanger.calls)
	assert.Empty(t, f.credentials.saved)
}

func TestCallbackProcessor_MissingSecret(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	f.verifier.err = domain.NewMissingConfigurationError("SHOPIFY_API_SECRET")

	_, err := f.processor.Process(context.Background(), f.request(validParams()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingConfiguration))
	assert.Equal(t, 500, domain.AsOAuthError(err).Status())
	assert.Zero(t, f.exchanger.calls)
}

func TestCallbackProcessor_InvalidShopAfterSignature(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	params := validParams()
	params["shop"] = "evil.com"

	_, err := f.processor.Process(context.Background(), f.request(params))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidShopDomain))
	assert.Equal(t, 1, f.verifier.calls)
	assert.Zero(t, f.exchanger.calls)
}

func TestCallbackProcessor_ExchangeFailure(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	f.exchanger.err = domain.NewTokenExchangeError(401, `{"error":"invalid_request"}`, nil)

	res, err := f.processor.Process(context.Background(), f.request(validParams()))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, domain.ErrTokenExchangeFailed))
	assert.Equal(t, 401, domain.AsOAuthError(err).UpstreamStatus)
	assert.Empty(t, f.credentials.saved)
	assert.Empty(t, f.recorder.shops)
}

func TestCallbackProcessor_CredentialFailure(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	f.credentials.err = errBoom

	_, err := f.processor.Process(context.Background(), f.request(validParams()))
	assert.True(t, errors.Is(err, domain.ErrInternal))
	assert.Empty(t, f.recorder.shops)
}

func TestCallbackProcessor_RecoversPanics(t *testing.T) {
	t.Parallel()

	f := newCallbackFixture()
	f.verifier.panic = true

	res, err := f.processor.Process(context.Background(), f.request(validParams()))
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInternal))
	assert.Equal(t, "internal server error", domain.AsOAuthError(err).Message)
}

func TestLandingURL(t *testing.T) {
	t.Parallel()

	shop, err := domain.NormalizeShopDomain("my-store")
	require.NoError(t, err)
	assert.Equal(t,
		"/app?shop=my-store.myshopify.com&host=bXktc3RvcmUubXlzaG9waWZ5LmNvbS9hZG1pbg%3D%3D",
		LandingURL("/app", shop))
}
