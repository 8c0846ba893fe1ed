package domain

import "time"

// TopicAppUninstalled is sent when a merchant removes the app.
const TopicAppUninstalled = "app/uninstalled"

// WebhookEvent is a verified webhook delivery.
type WebhookEvent struct {
	ID         string    // X-Shopify-Webhook-Id, for deduplication
	Topic      string    // X-Shopify-Topic
	Shop       string    // X-Shopify-Shop-Domain or the payload's domain
	Payload    []byte
	ReceivedAt time.Time
}
