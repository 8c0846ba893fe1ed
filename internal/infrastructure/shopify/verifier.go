package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"
)

// CallbackVerifier checks the hmac parameter Shopify adds to OAuth redirects.
type CallbackVerifier struct {
	secret string
}

var _ ports.CallbackVerifier = (*CallbackVerifier)(nil)

// NewCallbackVerifier creates a verifier keyed with the app's client secret
func NewCallbackVerifier(secret string) *CallbackVerifier {
	return &CallbackVerifier{secret: secret}
}

// Verify recomputes the signature and compares it in constant time.
func (v *CallbackVerifier) Verify(params domain.CallbackParameters) (bool, error) {
	if v == nil || v.secret == "" {
		return false, domain.NewMissingConfigurationError("SHOPIFY_API_SECRET")
	}
	expected := SignParams(params, v.secret)
	return hmac.Equal([]byte(expected), []byte(params.HMAC())), nil
}

// CanonicalMessage joins every parameter except hmac as key=value pairs,
// sorted by key and separated by "&". Values are used exactly as received.
func CanonicalMessage(params domain.CallbackParameters) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == domain.ParamHMAC {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// SignParams returns the hex HMAC-SHA256 of CanonicalMessage(params) under secret.
func SignParams(params domain.CallbackParameters, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalMessage(params)))
	return hex.EncodeToString(mac.Sum(nil))
}
