package domain

import "time"

// Installation records that a shop completed the OAuth handshake.
// It never carries the access token.
type Installation struct {
	ID          string    `json:"id" bson:"_id"`
	Shop        string    `json:"shop" bson:"shop"`           // Canonical myshopify host
	Scope       string    `json:"scope" bson:"scope"`         // Scopes granted by the merchant
	ShopName    string    `json:"shop_name" bson:"shop_name"` // Display name from the Admin API, if fetched
	Email       string    `json:"email" bson:"email"`         // Shop owner email, if fetched
	PlanName    string    `json:"plan_name" bson:"plan_name"` // Shopify plan, if fetched
	InstalledAt time.Time `json:"installed_at" bson:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// ShopInfo is the subset of the Admin API shop resource kept on an installation.
type ShopInfo struct {
	Name     string
	Email    string
	PlanName string
}
