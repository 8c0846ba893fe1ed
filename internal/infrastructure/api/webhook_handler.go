package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"shopify-oauth-layer/internal/application"
	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/infrastructure/shopify"

	"github.com/rs/zerolog"
)

// maxWebhookBody bounds webhook payloads read into memory.
const maxWebhookBody = 1 << 20

// webhookHandler handles POST /webhooks/shopify
func webhookHandler(
	verifier *shopify.WebhookVerifier,
	dispatcher *application.WebhookDispatcher,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			logger.Warn().Msg("Missing X-Shopify-Topic header")
			http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
		ok, err := verifier.VerifyRequest(r)
		if err != nil {
			logger.Error().Err(err).Msg("Webhook verification unavailable")
			writeError(w, r, err)
			return
		}
		if !ok {
			logger.Warn().Str("topic", topic).Msg("Webhook signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read webhook payload")
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		event := &domain.WebhookEvent{
			ID:         r.Header.Get("X-Shopify-Webhook-Id"),
			Topic:      topic,
			Shop:       r.Header.Get("X-Shopify-Shop-Domain"),
			Payload:    payload,
			ReceivedAt: time.Now(),
		}

		err = dispatcher.Dispatch(r.Context(), event)
		if errors.Is(err, application.ErrUnhandledTopic) {
			// Acknowledge so Shopify does not retry a topic nobody consumes.
			w.WriteHeader(http.StatusOK)
			return
		}
		if err != nil {
			logger.Error().Err(err).Str("topic", topic).Msg("Failed to dispatch webhook event")
			// 500 makes Shopify retry the delivery
			http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
	}
}
