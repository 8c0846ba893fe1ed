package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// healthHandler handles GET /health
func healthHandler(checks map[string]HealthCheck, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = "unavailable"
				continue
			}
			body[name] = "ok"
		}
		writeJSON(w, status, body)
	}
}

// DebugInfo is what GET /debug/config reveals. It never carries secret values.
type DebugInfo struct {
	ClientIDConfigured     bool     `json:"client_id_configured"`
	ClientSecretConfigured bool     `json:"client_secret_configured"`
	AppURLConfigured       bool     `json:"app_url_configured"`
	Scopes                 []string `json:"scopes"`
	CallbackPath           string   `json:"callback_path"`
	StateStore             string   `json:"state_store"`
	InstallationsEnabled   bool     `json:"installations_enabled"`
}

// debugConfigHandler handles GET /debug/config
func debugConfigHandler(info DebugInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, info)
	}
}
