package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shopify-oauth-layer/internal/application"
	"shopify-oauth-layer/internal/application/webhook_handlers"
	"shopify-oauth-layer/internal/config"
	apiinfra "shopify-oauth-layer/internal/infrastructure/api"
	"shopify-oauth-layer/internal/infrastructure/metrics"
	"shopify-oauth-layer/internal/infrastructure/repository"
	"shopify-oauth-layer/internal/infrastructure/security"
	shopifyinfra "shopify-oauth-layer/internal/infrastructure/shopify"
	"shopify-oauth-layer/internal/infrastructure/statestore"

	"github.com/dmitrymomot/saaskit/pkg/cookie"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	securitymiddleware "shopify-oauth-layer/internal/infrastructure/middleware"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger = newLogger(cfg)

	for _, warning := range cfg.Warnings() {
		logger.Warn().Msg(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	oauthMetrics := metrics.New()
	healthChecks := map[string]apiinfra.HealthCheck{}
	cookies, err := newCookieManager(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize cookie manager")
	}

	// Connect to MongoDB
	var db *mongo.Database
	if cfg.UsesMongo() {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())

		db = client.Database(cfg.MongoDatabase)
		healthChecks["mongodb"] = func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}
	}

	// Initialize infrastructure
	shopifyClient := shopifyinfra.NewClient(shopifyinfra.ClientConfig{
		ClientID:     cfg.ShopifyAPIKey,
		ClientSecret: cfg.ShopifyAPISecret,
		HTTPClient:   &http.Client{Timeout: cfg.TokenExchangeTimeout},
		Metrics:      oauthMetrics,
		Logger:       logger,
	})

	binding, err := newStateBinding(ctx, cfg, db, cookies, healthChecks, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("state_store", cfg.StateStore).Msg("Failed to initialize state store")
	}

	var (
		installationService *application.InstallationService
		recorder            application.InstallationRecorder
	)
	if cfg.InstallationsEnabled {
		installationRepo := repository.NewMongoInstallationRepository(db)
		if err := installationRepo.EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create installation indexes")
		}
		installationService = application.NewInstallationService(installationRepo, shopifyClient, logger)
		recorder = installationService
	}

	// Initialize application services
	initiator := application.NewAuthInitiator(
		security.NewNonceGenerator(security.DefaultNonceBytes),
		shopifyClient,
		cfg.ShopifyAPIKey,
		cfg.ShopifyScopes,
		cfg.StateTTL,
		logger,
	)
	processor := application.NewCallbackProcessor(
		shopifyinfra.NewCallbackVerifier(cfg.ShopifyAPISecret),
		shopifyClient,
		recorder,
		cfg.LandingPath,
		logger,
	)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	if installationService != nil {
		webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, installationService))
	}

	rateLimiter := securitymiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10000, logger)
	defer rateLimiter.Stop()

	router := apiinfra.NewRouter(apiinfra.RouterConfig{
		OAuth: apiinfra.NewOAuthHandler(apiinfra.OAuthHandlerConfig{
			Initiator:     initiator,
			Processor:     processor,
			Binding:       binding,
			AppURL:        cfg.AppURL,
			CallbackPath:  cfg.CallbackPath,
			Cookies:       cookies,
			SessionMaxAge: cfg.SessionMaxAge,
			Metrics:       oauthMetrics,
			Logger:        logger,
		}),
		RateLimiter:     rateLimiter,
		Installations:   installationService,
		WebhookVerifier: shopifyinfra.NewWebhookVerifier(cfg.ShopifyAPISecret),
		Webhooks:        webhookDispatcher,
		HealthChecks:    healthChecks,
		Debug: apiinfra.DebugInfo{
			ClientIDConfigured:     cfg.ShopifyAPIKey != "",
			ClientSecretConfigured: cfg.ShopifyAPISecret != "",
			AppURLConfigured:       cfg.AppURL != "",
			Scopes:                 cfg.ShopifyScopes,
			CallbackPath:           cfg.CallbackPath,
			StateStore:             binding.Mode(),
			InstallationsEnabled:   cfg.InstallationsEnabled,
		},
		Metrics:        oauthMetrics,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		SwaggerFile:    "./docs/swagger.json",
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("state_store", binding.Mode()).
			Strs("scopes", cfg.ShopifyScopes).
			Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// newLogger configures zerolog from LOG_LEVEL and LOG_FORMAT
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// newCookieManager builds the cookie manager from COOKIE_SECRETS, or from a
// random per-process secret when none is configured.
func newCookieManager(cfg *config.Config) (*cookie.Manager, error) {
	secrets := cfg.CookieSecrets
	if len(secrets) == 0 {
		buf := make([]byte, config.MinCookieSecretLength/2)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate cookie secret: %w", err)
		}
		secrets = []string{hex.EncodeToString(buf)}
	}
	return cookie.New(secrets, cookie.WithSecure(cfg.SecureCookies()))
}

// newStateBinding selects where pending nonces live
func newStateBinding(
	ctx context.Context,
	cfg *config.Config,
	db *mongo.Database,
	cookies *cookie.Manager,
	healthChecks map[string]apiinfra.HealthCheck,
	logger zerolog.Logger,
) (apiinfra.StateBinding, error) {
	switch cfg.StateStore {
	case config.StateStoreMemory:
		logger.Warn().Msg("In-memory state store only works with a single instance")
		return apiinfra.NewServerBinding(statestore.NewMemoryStore(), cfg.StateStore, cookies), nil

	case config.StateStoreRedis:
		client, err := statestore.Connect(ctx, cfg.RedisURL, 5, 2*time.Second)
		if err != nil {
			return nil, err
		}
		healthChecks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		return apiinfra.NewServerBinding(statestore.NewRedisStore(client), cfg.StateStore, cookies), nil

	case config.StateStoreMongo:
		store := repository.NewMongoStateStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return apiinfra.NewServerBinding(store, cfg.StateStore, cookies), nil

	default:
		return apiinfra.NewCookieBinding(cookies), nil
	}
}
