package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-oauth-layer/internal/domain"
)

const testSecret = "hush"

func signedParams(secret string) domain.CallbackParameters {
	params := domain.CallbackParameters{
		"code":      "0907a61c0c8d55e99db179b68161bc00",
		"shop":      "some-shop.myshopify.com",
		"state":     "0123456789abcdef0123456789abcdef",
		"timestamp": "1337178173",
		"host":      "c29tZS1zaG9wLm15c2hvcGlmeS5jb20vYWRtaW4",
	}
	params["hmac"] = SignParams(params, secret)
	return params
}

func TestCanonicalMessage(t *testing.T) {
	t.Parallel()

	params := domain.CallbackParameters{
		"state":     "abc",
		"hmac":      "deadbeef",
		"shop":      "test-shop.myshopify.com",
		"code":      "123",
		"timestamp": "12345",
	}
	assert.Equal(t, "code=123&shop=test-shop.myshopify.com&state=abc&timestamp=12345", CanonicalMessage(params))
}

func TestCanonicalMessage_NoExtraEncoding(t *testing.T) {
	t.Parallel()

	params := domain.CallbackParameters{"b": "x y&z", "a": "1%2C2"}
	assert.Equal(t, "a=1%2C2&b=x y&z", CanonicalMessage(params))
}

func TestSignParams_KnownVector(t *testing.T) {
	t.Parallel()

	params := domain.CallbackParameters{"code": "abc123", "shop": "test-shop.myshopify.com", "state": "some-state", "timestamp": "1700000000"}
	mac := hmac.New(sha256.New, []byte("secret-key"))
	mac.Write([]byte("code=abc123&shop=test-shop.myshopify.com&state=some-state&timestamp=1700000000"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), SignParams(params, "secret-key"))
}

func TestCallbackVerifier_Verify(t *testing.T) {
	t.Parallel()

	v := NewCallbackVerifier(testSecret)

	ok, err := v.Verify(signedParams(testSecret))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(signedParams("another-secret"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCallbackVerifier_Deterministic(t *testing.T) {
	t.Parallel()

	a := signedParams(testSecret)
	b := signedParams(testSecret)
	assert.Equal(t, a["hmac"], b["hmac"])
}

func TestCallbackVerifier_SingleCharacterFlip(t *testing.T) {
	t.Parallel()

	v := NewCallbackVerifier(testSecret)
	base := signedParams(testSecret)

	for key, value := range base {
		if key == "hmac" {
			continue
		}
		tampered := domain.CallbackParameters{}
		for k, val := range base {
			tampered[k] = val
		}
		flipped := []byte(value)
		flipped[len(flipped)-1] ^= 0x01
		tampered[key] = string(flipped)

		ok, err := v.Verify(tampered)
		require.NoError(t, err)
		assert.False(t, ok, "tampering %s must fail verification", key)
	}
}

func TestCallbackVerifier_ExtraParameterBreaksSignature(t *testing.T) {
	t.Parallel()

	params := signedParams(testSecret)
	params["embedded"] = "1"

	ok, err := NewCallbackVerifier(testSecret).Verify(params)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCallbackVerifier_TamperedSignature(t *testing.T) {
	t.Parallel()

	params := signedParams(testSecret)
	sig := []byte(params["hmac"])
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}
	params["hmac"] = string(sig)

	ok, err := NewCallbackVerifier(testSecret).Verify(params)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCallbackVerifier_MissingSecret(t *testing.T) {
	t.Parallel()

	ok, err := NewCallbackVerifier("").Verify(signedParams(testSecret))
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, domain.ErrMissingConfiguration))
	assert.NotContains(t, err.Error(), testSecret)
}
