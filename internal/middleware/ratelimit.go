package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Dan9191/card-service/internal/apperror"
	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/utils"
	"github.com/sirupsen/logrus"
)

// Scope decides which requests share a window
type Scope string

const (
	// ScopeGlobal keeps one window per client for every route using the policy
	ScopeGlobal Scope = "global"
	// ScopeRoute keeps one window per client and route template
	ScopeRoute Scope = "route"
)

// Policy allows Max requests per Window and client. Windows are fixed: a
// client's window opens with its first request and the count resets when it
// closes.
type Policy struct {
	Name   string
	Window time.Duration
	Max    int
	Scope  Scope
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter enforces a Policy with one fixed window counter per key
type RateLimiter struct {
	policy  Policy
	mu      sync.Mutex
	windows map[string]*window
	log     *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRateLimiter creates a limiter for policy
func NewRateLimiter(policy Policy, log *logrus.Logger, m *metrics.Metrics) *RateLimiter {
	if policy.Scope == "" {
		policy.Scope = ScopeGlobal
	}
	return &RateLimiter{
		policy:  policy,
		windows: make(map[string]*window),
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// hit counts a request against key. It returns how long until the window
// resets when the request is over the limit.
func (rl *RateLimiter) hit(key string, now time.Time) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, exists := rl.windows[key]
	if !exists || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(rl.policy.Window)}
		rl.windows[key] = w
	}
	if w.count >= rl.policy.Max {
		return w.resetAt.Sub(now), false
	}
	w.count++
	return 0, true
}

// Handler rejects requests over the policy with 429 and a Retry-After header
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if rl.policy.Scope == ScopeRoute {
			key += " " + r.Method + " " + routeTemplate(r)
		}

		retryAfter, ok := rl.hit(key, rl.now())
		if !ok {
			rl.log.WithFields(logrus.Fields{
				"policy":     rl.policy.Name,
				"key":        key,
				"path":       r.URL.Path,
				"method":     r.Method,
				"request_id": RequestIDFromContext(r.Context()),
			}).Warn("Rate limit exceeded")
			if rl.metrics != nil {
				rl.metrics.RateLimited(rl.policy.Name)
			}

			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			utils.RespondError(w, apperror.RateLimited("Too many requests, please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Cleanup drops windows that have already closed
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

// StartCleanup runs Cleanup at the given interval until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
