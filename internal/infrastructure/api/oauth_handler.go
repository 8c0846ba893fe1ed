package api

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"shopify-oauth-layer/internal/application"
	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/infrastructure/metrics"

	"github.com/dmitrymomot/saaskit/pkg/cookie"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// topLevelRedirect breaks out of the Shopify admin iframe before leaving for
// the authorization page, which refuses to render framed.
var topLevelRedirect = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting to Shopify...</title></head>
<body>
<p>Redirecting to Shopify... If nothing happens, <a href="{{.URL}}" target="_top">continue</a>.</p>
<script>window.top.location.href = {{.URL}};</script>
</body>
</html>
`))

// OAuthHandlerConfig configures an OAuthHandler.
type OAuthHandlerConfig struct {
	Initiator *application.AuthInitiator
	Processor *application.CallbackProcessor
	Binding   StateBinding

	// AppURL is the public origin. Empty derives it from each request.
	AppURL       string
	CallbackPath string

	// Cookies writes the state and session cookies.
	Cookies       *cookie.Manager
	SessionMaxAge time.Duration

	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// OAuthHandler serves the initiation and callback endpoints.
type OAuthHandler struct {
	cfg OAuthHandlerConfig
}

// NewOAuthHandler creates the OAuth endpoints
func NewOAuthHandler(cfg OAuthHandlerConfig) *OAuthHandler {
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = "/auth/callback"
	}
	return &OAuthHandler{cfg: cfg}
}

// CallbackPath is the route Shopify redirects back to.
func (h *OAuthHandler) CallbackPath() string {
	return h.cfg.CallbackPath
}

// Initiate handles GET /auth/shopify?shop=<shop>[&embedded=true].
func (h *OAuthHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)

	store, flowKey := h.cfg.Binding.Begin(w, r, h.cfg.Initiator.StateTTL())
	res, err := h.cfg.Initiator.Initiate(r.Context(), application.InitiateRequest{
		Shop:        r.URL.Query().Get(domain.ParamShop),
		RedirectURI: h.redirectURI(r),
		Store:       store,
		FlowKey:     flowKey,
	})
	if err != nil {
		oe := domain.AsOAuthError(err)
		h.cfg.Metrics.ObserveInitiation(string(oe.Kind))
		logger.Warn().Err(err).Str("kind", string(oe.Kind)).Msg("OAuth initiation rejected")
		writeError(w, r, oe)
		return
	}
	h.cfg.Metrics.ObserveInitiation(metrics.OutcomeSuccess)

	if r.URL.Query().Get("embedded") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := topLevelRedirect.Execute(w, struct{ URL string }{res.AuthorizationURL}); err != nil {
			logger.Error().Err(err).Msg("Failed to render redirect page")
		}
		return
	}
	http.Redirect(w, r, res.AuthorizationURL, http.StatusFound)
}

// Callback handles GET /auth/callback from Shopify.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)

	params, err := domain.CallbackParametersFromQuery(r.URL.Query())
	if err != nil {
		h.rejectCallback(w, r, logger, err)
		return
	}

	store, flowKey := h.cfg.Binding.Resume(w, r)
	res, err := h.cfg.Processor.Process(r.Context(), application.CallbackRequest{
		Params:  params,
		Store:   store,
		FlowKey: flowKey,
		Credentials: &cookieCredentialStore{
			w:       w,
			cookies: h.cfg.Cookies,
			maxAge:  h.cfg.SessionMaxAge,
		},
	})
	h.cfg.Binding.Finish(w, r, store)

	if err != nil {
		h.rejectCallback(w, r, logger, err)
		return
	}
	h.cfg.Metrics.ObserveCallback(metrics.OutcomeSuccess)

	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}

func (h *OAuthHandler) rejectCallback(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	oe := domain.AsOAuthError(err)
	h.cfg.Metrics.ObserveCallback(string(oe.Kind))
	logger.Warn().Err(err).Str("kind", string(oe.Kind)).Msg("OAuth callback rejected")
	writeError(w, r, oe)
}

// Install handles GET /install?shop=<shop> by forwarding to the initiation route.
func (h *OAuthHandler) Install(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get(domain.ParamShop)
	if shop == "" {
		writeError(w, r, domain.NewMissingParameterError(domain.ParamShop))
		return
	}
	target := "/auth/shopify?" + r.URL.RawQuery
	http.Redirect(w, r, target, http.StatusFound)
}

// redirectURI is the configured origin, or the request's own, plus the callback path.
func (h *OAuthHandler) redirectURI(r *http.Request) string {
	return RequestOrigin(r, h.cfg.AppURL) + h.cfg.CallbackPath
}

func (h *OAuthHandler) requestLogger(r *http.Request) zerolog.Logger {
	return h.cfg.Logger.With().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Logger()
}

// RequestOrigin returns appURL when set, otherwise scheme://host of r.
func RequestOrigin(r *http.Request, appURL string) string {
	if appURL != "" {
		return strings.TrimRight(appURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
