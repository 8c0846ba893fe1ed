package shopify

import (
	"net/http"

	"shopify-oauth-layer/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// WebhookVerifier checks the X-Shopify-Hmac-Sha256 header of webhook deliveries.
type WebhookVerifier struct {
	app goshopify.App
}

// NewWebhookVerifier creates a verifier keyed with the app's client secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{app: goshopify.App{ApiSecret: secret}}
}

// VerifyRequest reports whether r carries a valid signature. The body stays readable.
func (v *WebhookVerifier) VerifyRequest(r *http.Request) (bool, error) {
	if v.app.ApiSecret == "" {
		return false, domain.NewMissingConfigurationError("SHOPIFY_API_SECRET")
	}
	return v.app.VerifyWebhookRequest(r), nil
}
