package domain

import (
	"net/url"
	"sort"
	"time"
)

// Callback query parameters Shopify always sends.
const (
	ParamShop  = "shop"
	ParamCode  = "code"
	ParamState = "state"
	ParamHMAC  = "hmac"
)

// MaxStateTTL bounds how long an authorization nonce may live.
const MaxStateTTL = 600 * time.Second

// CallbackParameters is the query string received on the OAuth callback.
// All keys are kept because the HMAC covers every parameter but "hmac".
type CallbackParameters map[string]string

// Missing returns the names of the mandatory parameters that are absent or empty.
func (p CallbackParameters) Missing() []string {
	var missing []string
	for _, name := range []string{ParamShop, ParamCode, ParamState, ParamHMAC} {
		if p[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// CallbackParametersFromQuery flattens a callback query. A parameter that
// appears more than once is rejected as InvalidSignature: the signed message
// has a single value per key, so either copy could be the unsigned one.
func CallbackParametersFromQuery(query url.Values) (CallbackParameters, error) {
	params := make(CallbackParameters, len(query))
	var repeated []string
	for k, v := range query {
		if len(v) > 1 {
			repeated = append(repeated, k)
			continue
		}
		if len(v) == 1 {
			params[k] = v[0]
		}
	}
	if len(repeated) > 0 {
		sort.Strings(repeated)
		return nil, NewRepeatedParameterError(repeated...)
	}
	return params, nil
}

func (p CallbackParameters) Shop() string  { return p[ParamShop] }
func (p CallbackParameters) Code() string  { return p[ParamCode] }
func (p CallbackParameters) State() string { return p[ParamState] }
func (p CallbackParameters) HMAC() string  { return p[ParamHMAC] }

// AccessTokenResult is the provider's answer to a successful code exchange.
type AccessTokenResult struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// AuthorizationState is a nonce persisted by a server-side state store.
type AuthorizationState struct {
	Key       string    `json:"key" bson:"_id"`
	Nonce     string    `json:"nonce" bson:"nonce"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Expired reports whether the state is past its deadline at now.
func (s *AuthorizationState) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ShopCredential is what a completed callback hands to the credential store.
type ShopCredential struct {
	Shop        ShopDomain
	AccessToken string
	Scope       string
}
