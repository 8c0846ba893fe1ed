package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// State store modes.
const (
	StateStoreCookie = "cookie"
	StateStoreMemory = "memory"
	StateStoreRedis  = "redis"
	StateStoreMongo  = "mongo"
)

// MinCookieSecretLength is the shortest accepted cookie secret (AES-256 key size).
const MinCookieSecretLength = 32

// Config is the process configuration, read from the environment.
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	AppURL string `env:"APP_URL"` // Public origin; derived per request when empty

	ShopifyAPIKey    string   `env:"SHOPIFY_API_KEY"`
	ShopifyAPISecret string   `env:"SHOPIFY_API_SECRET"`
	ShopifyScopes    []string `env:"SHOPIFY_SCOPES" envDefault:"read_products,write_products" envSeparator:","`
	CallbackPath     string   `env:"SHOPIFY_CALLBACK_PATH" envDefault:"/auth/callback"`
	LandingPath      string   `env:"APP_LANDING_PATH" envDefault:"/dashboard"`

	StateTTL             time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	TokenExchangeTimeout time.Duration `env:"TOKEN_EXCHANGE_TIMEOUT" envDefault:"10s"`
	SessionMaxAge        time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	CookieSecure         bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// CookieSecrets encrypt the session token cookie. The first one encrypts,
	// all of them are tried when reading so secrets can be rotated.
	CookieSecrets []string `env:"COOKIE_SECRETS" envSeparator:","`

	StateStore           string `env:"STATE_STORE" envDefault:"cookie"`
	RedisURL             string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	MongoURI             string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase        string `env:"MONGODB_DATABASE" envDefault:"shopify_oauth"`
	InstallationsEnabled bool   `env:"INSTALLATIONS_ENABLED" envDefault:"false"`

	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"20"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// FromMap parses cfg from environ instead of the process environment.
func FromMap(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ShopifyScopes = trimAll(cfg.ShopifyScopes)
	cfg.CORSAllowedOrigins = trimAll(cfg.CORSAllowedOrigins)
	cfg.CookieSecrets = trimAll(cfg.CookieSecrets)
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with. Missing Shopify
// credentials are reported per request instead.
func (c *Config) Validate() error {
	switch c.StateStore {
	case StateStoreCookie, StateStoreMemory, StateStoreRedis, StateStoreMongo:
	default:
		return fmt.Errorf("invalid STATE_STORE %q: want cookie, memory, redis or mongo", c.StateStore)
	}
	if c.StateTTL <= 0 {
		return fmt.Errorf("OAUTH_STATE_TTL must be positive")
	}
	if c.TokenExchangeTimeout <= 0 {
		return fmt.Errorf("TOKEN_EXCHANGE_TIMEOUT must be positive")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	if !strings.HasPrefix(c.CallbackPath, "/") {
		return fmt.Errorf("SHOPIFY_CALLBACK_PATH must start with /")
	}
	if !strings.HasPrefix(c.LandingPath, "/") {
		return fmt.Errorf("APP_LANDING_PATH must start with /")
	}
	if c.AppURL != "" {
		u, err := url.Parse(c.AppURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid APP_URL %q", c.AppURL)
		}
	}
	for i, secret := range c.CookieSecrets {
		if len(secret) < MinCookieSecretLength {
			return fmt.Errorf("COOKIE_SECRETS entry %d is shorter than %d characters", i, MinCookieSecretLength)
		}
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Warnings lists settings the service starts with but that weaken it.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.ShopifyAPIKey == "" {
		warnings = append(warnings, "SHOPIFY_API_KEY is not set, OAuth initiation will fail")
	}
	if c.ShopifyAPISecret == "" {
		warnings = append(warnings, "SHOPIFY_API_SECRET is not set, OAuth callbacks and webhooks will fail")
	}
	if c.AppURL == "" {
		warnings = append(warnings, "APP_URL is not set, redirect_uri is derived from the request Host and X-Forwarded-Proto headers")
	}
	if len(c.CookieSecrets) == 0 {
		warnings = append(warnings, "COOKIE_SECRETS is not set, a per-process secret is generated and session cookies do not survive restarts")
	}
	return warnings
}

// SecureCookies reports whether cookies get the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.CookieSecure || strings.HasPrefix(c.AppURL, "https://")
}

// UsesMongo reports whether a MongoDB connection is needed.
func (c *Config) UsesMongo() bool {
	return c.StateStore == StateStoreMongo || c.InstallationsEnabled
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
