package api

import (
	"net/http"
	"time"

	"shopify-oauth-layer/internal/application"
	"shopify-oauth-layer/internal/infrastructure/metrics"
	securitymiddleware "shopify-oauth-layer/internal/infrastructure/middleware"
	"shopify-oauth-layer/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	OAuth       *OAuthHandler
	RateLimiter *securitymiddleware.RateLimiter

	// Installations, WebhookVerifier and Webhooks are optional.
	Installations   *application.InstallationService
	WebhookVerifier *shopify.WebhookVerifier
	Webhooks        *application.WebhookDispatcher

	HealthChecks   map[string]HealthCheck
	Debug          DebugInfo
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	SwaggerFile    string
	Logger         zerolog.Logger
}

// NewRouter builds the chi router for the service
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.SwaggerFile == "" {
		cfg.SwaggerFile = "./docs/swagger.json"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(securitymiddleware.InputValidationMiddleware(cfg.Logger))
	r.Use(securitymiddleware.AuditLoggingMiddleware(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/health", healthHandler(cfg.HealthChecks, cfg.Logger))
		r.Get("/debug/config", debugConfigHandler(cfg.Debug))
		if cfg.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
		}

		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
		r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, cfg.SwaggerFile)
		})

		if cfg.Installations != nil {
			r.Get("/installations/{shop}", installationHandler(cfg.Installations, cfg.Logger))
		}
	})

	// OAuth routes
	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(securitymiddleware.RateLimitMiddleware(cfg.RateLimiter))
		}
		r.Get("/install", cfg.OAuth.Install)
		r.Get("/auth", cfg.OAuth.Initiate)
		r.Get("/auth/shopify", cfg.OAuth.Initiate)
		r.Get(cfg.OAuth.CallbackPath(), cfg.OAuth.Callback)
	})

	if cfg.WebhookVerifier != nil && cfg.Webhooks != nil {
		r.Post("/webhooks/shopify", webhookHandler(cfg.WebhookVerifier, cfg.Webhooks, cfg.Logger))
	}

	return r
}
