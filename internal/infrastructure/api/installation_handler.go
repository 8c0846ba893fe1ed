package api

import (
	"errors"
	"net/http"
	"time"

	"shopify-oauth-layer/internal/application"
	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// installationResponse is the public view of an installation. Owner contact
// details and billing plan stay server-side.
type installationResponse struct {
	Shop        string    `json:"shop"`
	Scope       string    `json:"scope"`
	ShopName    string    `json:"shop_name,omitempty"`
	InstalledAt time.Time `json:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// installationHandler handles GET /installations/{shop}
func installationHandler(installations *application.InstallationService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		installation, err := installations.GetInstallation(r.Context(), chi.URLParam(r, "shop"))
		if errors.Is(err, ports.ErrInstallationNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "installation not found"})
			return
		}
		var oe *domain.OAuthError
		if errors.As(err, &oe) {
			writeError(w, r, oe)
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("Failed to get installation")
			writeError(w, r, domain.NewInternalError(err))
			return
		}
		writeJSON(w, http.StatusOK, installationResponse{
			Shop:        installation.Shop,
			Scope:       installation.Scope,
			ShopName:    installation.ShopName,
			InstalledAt: installation.InstalledAt,
			UpdatedAt:   installation.UpdatedAt,
		})
	}
}
