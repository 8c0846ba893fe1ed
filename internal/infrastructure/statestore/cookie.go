package statestore

import (
	"context"
	"net/http"
	"time"

	"shopify-oauth-layer/internal/ports"

	"github.com/dmitrymomot/saaskit/pkg/cookie"
)

// CookieStore keeps state in the user agent. It is bound to one request:
// Get reads from r and Set/Delete write Set-Cookie headers to w. The key is
// the cookie name.
type CookieStore struct {
	cookies *cookie.Manager
	w       http.ResponseWriter
	r       *http.Request
	cleared map[string]bool
}

var _ ports.StateStore = (*CookieStore)(nil)

// NewCookieStore binds a cookie store to a single request/response pair.
// Cookie attributes (HttpOnly, SameSite=Lax, Path=/, Secure) come from the manager.
func NewCookieStore(w http.ResponseWriter, r *http.Request, cookies *cookie.Manager) *CookieStore {
	return &CookieStore{cookies: cookies, w: w, r: r, cleared: make(map[string]bool)}
}

func (s *CookieStore) Get(_ context.Context, key string) (string, error) {
	if s.cleared[key] {
		return "", ports.ErrStateNotFound
	}
	value, err := s.cookies.Get(s.r, key)
	if err != nil || value == "" {
		return "", ports.ErrStateNotFound
	}
	return value, nil
}

func (s *CookieStore) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	delete(s.cleared, key)
	return s.cookies.Set(s.w, key, value, cookie.WithMaxAge(int(ttl/time.Second)))
}

// Delete expires the cookie immediately. Repeated deletes of a key within
// one request emit a single Set-Cookie header.
func (s *CookieStore) Delete(_ context.Context, key string) error {
	if s.cleared[key] {
		return nil
	}
	s.cleared[key] = true
	s.cookies.Delete(s.w, key)
	return nil
}

// Consume reads the cookie and expires it in the same response. Later reads
// through this store report it as gone.
func (s *CookieStore) Consume(ctx context.Context, key string) (string, error) {
	value, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if err := s.Delete(ctx, key); err != nil {
		return "", err
	}
	return value, nil
}
