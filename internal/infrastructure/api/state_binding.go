package api

import (
	"context"
	"net/http"
	"time"

	"shopify-oauth-layer/internal/infrastructure/statestore"
	"shopify-oauth-layer/internal/ports"

	"github.com/dmitrymomot/saaskit/pkg/cookie"
	"github.com/google/uuid"
)

// Cookie names.
const (
	StateCookieName      = "shopify_oauth_state"
	FlowCookieName       = "shopify_oauth_flow"
	TokenCookieName      = "shopify_token"
	ShopCookieName       = "shopify_shop"
	serverStateKeyPrefix = "shopify:oauth:state:"
)

// StateBinding ties a browser to the nonce of its pending authorization.
type StateBinding interface {
	// Begin returns where a new flow's nonce is stored. Binding cookies are
	// only written once the nonce is actually saved.
	Begin(w http.ResponseWriter, r *http.Request, ttl time.Duration) (ports.StateStore, string)

	// Resume locates the nonce of the flow this request belongs to. The key
	// is empty when the browser carries no binding.
	Resume(w http.ResponseWriter, r *http.Request) (ports.StateStore, string)

	// Finish clears the binding cookie.
	Finish(w http.ResponseWriter, r *http.Request, store ports.StateStore)

	// Mode names the binding for diagnostics.
	Mode() string
}

// CookieBinding keeps the nonce itself in the shopify_oauth_state cookie.
type CookieBinding struct {
	cookies *cookie.Manager
}

// NewCookieBinding creates a binding that needs no server-side storage
func NewCookieBinding(cookies *cookie.Manager) *CookieBinding {
	return &CookieBinding{cookies: cookies}
}

func (b *CookieBinding) Begin(w http.ResponseWriter, r *http.Request, _ time.Duration) (ports.StateStore, string) {
	return statestore.NewCookieStore(w, r, b.cookies), StateCookieName
}

func (b *CookieBinding) Resume(w http.ResponseWriter, r *http.Request) (ports.StateStore, string) {
	return statestore.NewCookieStore(w, r, b.cookies), StateCookieName
}

func (b *CookieBinding) Finish(w http.ResponseWriter, r *http.Request, store ports.StateStore) {
	if store == nil {
		store = statestore.NewCookieStore(w, r, b.cookies)
	}
	_ = store.Delete(r.Context(), StateCookieName)
}

func (b *CookieBinding) Mode() string { return "cookie" }

// ServerBinding keeps the nonce in a shared store under a random flow id.
// Only the flow id travels in the shopify_oauth_flow cookie.
type ServerBinding struct {
	store   ports.StateStore
	mode    string
	cookies *cookie.Manager
}

// NewServerBinding creates a binding backed by store
func NewServerBinding(store ports.StateStore, mode string, cookies *cookie.Manager) *ServerBinding {
	return &ServerBinding{store: store, mode: mode, cookies: cookies}
}

func (b *ServerBinding) Begin(w http.ResponseWriter, r *http.Request, _ time.Duration) (ports.StateStore, string) {
	flowID := uuid.NewString()
	return &flowBoundStore{StateStore: b.store, cookies: b.flowCookies(w, r), flowID: flowID}, serverStateKeyPrefix + flowID
}

func (b *ServerBinding) Resume(w http.ResponseWriter, r *http.Request) (ports.StateStore, string) {
	flowID, err := b.flowCookies(w, r).Get(r.Context(), FlowCookieName)
	if err != nil {
		return b.store, ""
	}
	if _, err := uuid.Parse(flowID); err != nil {
		return b.store, ""
	}
	return b.store, serverStateKeyPrefix + flowID
}

func (b *ServerBinding) Finish(w http.ResponseWriter, r *http.Request, _ ports.StateStore) {
	_ = b.flowCookies(w, r).Delete(r.Context(), FlowCookieName)
}

func (b *ServerBinding) Mode() string { return b.mode }

func (b *ServerBinding) flowCookies(w http.ResponseWriter, r *http.Request) *statestore.CookieStore {
	return statestore.NewCookieStore(w, r, b.cookies)
}

// flowBoundStore writes the flow cookie alongside a successful Set.
type flowBoundStore struct {
	ports.StateStore
	cookies *statestore.CookieStore
	flowID  string
}

func (s *flowBoundStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := s.StateStore.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return s.cookies.Set(ctx, FlowCookieName, s.flowID, ttl)
}
