package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"shopify-oauth-layer/internal/domain"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// writeError renders err as JSON when the client asks for it, plain text otherwise.
// Only the kind and the caller-safe message are exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	oe := domain.AsOAuthError(err)

	if wantsJSON(r) {
		writeJSON(w, oe.Status(), errorBody{Error: errorDetail{Kind: oe.Kind, Message: oe.Message}})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(oe.Status())
	_, _ = w.Write([]byte(string(oe.Kind) + ": " + oe.Message + "\n"))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
