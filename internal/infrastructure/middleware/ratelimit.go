package middleware

import (
	"container/list"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	key        string
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter holds one token bucket per client IP. The least recently seen
// client is evicted once maxEntries is reached.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*list.Element
	lru        *list.List
	rps        rate.Limit
	burst      int
	maxEntries int
	logger     zerolog.Logger
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewRateLimiter creates a limiter and starts its idle cleanup loop.
func NewRateLimiter(rps float64, burst, maxEntries int, logger zerolog.Logger) *RateLimiter {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	rl := &RateLimiter{
		limiters:   make(map[string]*list.Element),
		lru:        list.New(),
		rps:        rate.Limit(rps),
		burst:      burst,
		maxEntries: maxEntries,
		logger:     logger,
		stop:       make(chan struct{}),
	}
	go rl.cleanupLoop(5*time.Minute, 30*time.Minute)
	return rl
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if elem, ok := rl.limiters[key]; ok {
		rl.lru.MoveToFront(elem)
		entry := elem.Value.(*limiterEntry)
		entry.lastAccess = now
		return entry.limiter.Allow()
	}

	if len(rl.limiters) >= rl.maxEntries {
		if back := rl.lru.Back(); back != nil {
			delete(rl.limiters, back.Value.(*limiterEntry).key)
			rl.lru.Remove(back)
		}
	}

	entry := &limiterEntry{key: key, limiter: rate.NewLimiter(rl.rps, rl.burst), lastAccess: now}
	rl.limiters[key] = rl.lru.PushFront(entry)
	return entry.limiter.Allow()
}

// Cleanup drops limiters idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0
	for elem := rl.lru.Back(); elem != nil; {
		prev := elem.Prev()
		entry := elem.Value.(*limiterEntry)
		if now.Sub(entry.lastAccess) <= maxIdle {
			break
		}
		delete(rl.limiters, entry.key)
		rl.lru.Remove(elem)
		removed++
		elem = prev
	}
	if removed > 0 {
		rl.logger.Debug().Int("removed", removed).Int("remaining", len(rl.limiters)).Msg("Rate limiter cleanup completed")
	}
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Stop ends the cleanup loop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop(interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Cleanup(maxIdle)
		case <-rl.stop:
			return
		}
	}
}

// RateLimitMiddleware answers 429 once a client IP exceeds its budget.
// It keys on RemoteAddr, so chi's RealIP must run first behind a proxy.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(clientIP(r)) {
				rl.logger.Warn().Str("path", r.URL.Path).Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
