package domain

import (
	"regexp"
	"strings"
)

// ShopDomainSuffix is the host suffix every canonical shop domain carries.
const ShopDomainSuffix = ".myshopify.com"

var (
	shopLabelPattern  = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	adminStorePattern = regexp.MustCompile(`(?i)^https?://admin\.shopify\.com/store/([^/?#]*)(?:[/?#].*)?$`)
)

// ShopDomain is a validated "<label>.myshopify.com" host.
// The zero value is not a valid shop; values only come from NormalizeShopDomain.
type ShopDomain struct {
	label string
}

// NormalizeShopDomain turns user or provider input into a canonical shop host.
// Accepted forms: a bare label, "<label>.myshopify.com" with or without scheme and
// trailing slash, and the admin dashboard URL "https://admin.shopify.com/store/<label>".
func NormalizeShopDomain(raw string) (ShopDomain, error) {
	value := strings.TrimSpace(raw)

	var label string
	if m := adminStorePattern.FindStringSubmatch(value); m != nil {
		label = m[1]
	} else {
		label = strings.ToLower(value)
		label = strings.TrimPrefix(label, "https://")
		label = strings.TrimPrefix(label, "http://")
		label = strings.TrimSuffix(label, "/")
		label = strings.TrimSuffix(label, ShopDomainSuffix)
	}

	label = strings.ToLower(label)
	if label == "" {
		return ShopDomain{}, NewInvalidShopDomainError(raw, "shop name is empty")
	}
	if !shopLabelPattern.MatchString(label) {
		return ShopDomain{}, NewInvalidShopDomainError(raw, "shop name may only contain letters, digits and inner hyphens")
	}

	return ShopDomain{label: label}, nil
}

// String returns the canonical host, e.g. "acme.myshopify.com".
func (s ShopDomain) String() string {
	if s.label == "" {
		return ""
	}
	return s.label + ShopDomainSuffix
}

// Label returns the store handle without the myshopify suffix.
func (s ShopDomain) Label() string {
	return s.label
}

// IsZero reports whether s was never produced by NormalizeShopDomain.
func (s ShopDomain) IsZero() bool {
	return s.label == ""
}
