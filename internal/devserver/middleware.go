// ABOUTME: HTTP middleware for the development service
// ABOUTME: Request logging with correlation IDs, bearer auth, login rate limiting and chaining

package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Middleware wraps a handler.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain applies middleware functions to a handler in order.
// The first middleware in the list is the outermost (executes first).
func Chain(h http.HandlerFunc, middlewares ...Middleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LogRequest logs HTTP requests with timing and correlation ID. A request ID
// supplied by the caller is reused.
func LogRequest(logger *zap.Logger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			path := sanitizePath(r.URL.Path)
			logger.Debug("request started",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", path),
			)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(wrapped, r)

			logger.Info("request completed",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.Int("status", wrapped.statusCode),
				zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			)
		}
	}
}

// sanitizePath strips control characters so paths cannot forge log lines.
func sanitizePath(p string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, p)
}

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated user id placed on the request by RequireUser.
func UserID(r *http.Request) (int, bool) {
	id, ok := r.Context().Value(userIDKey).(int)
	return id, ok
}

// RequireUser rejects requests without a valid bearer token. When the route
// names a user (path variable userId or query user_id) it must be the
// token's subject.
func RequireUser(tokens *Tokens, logger *zap.Logger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeJSONError(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
			userID, err := tokens.Verify(raw)
			if err != nil {
				logger.Debug("auth rejected", zap.String("path", sanitizePath(r.URL.Path)), zap.Error(err))
				writeJSONError(w, "Could not validate credentials", http.StatusUnauthorized)
				return
			}

			if target, named := routeUser(r); named && target != userID {
				writeJSONError(w, "Not allowed to access another user's reading list", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next(w, r.WithContext(ctx))
		}
	}
}

func routeUser(r *http.Request) (int, bool) {
	raw, ok := mux.Vars(r)["userId"]
	if !ok {
		raw = r.URL.Query().Get("user_id")
		if raw == "" {
			return 0, false
		}
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return -1, true
	}
	return id, true
}

// counter tracks requests within a fixed time window.
type counter struct {
	count     int
	expiresAt time.Time
}

// RateLimiter enforces a maximum number of requests per time window.
// Each client key gets an independent counter.
type RateLimiter struct {
	mu           sync.Mutex
	windows      map[string]*counter
	limit        int
	window       time.Duration
	sweepCounter int
}

// NewRateLimiter creates a rate limiter that allows limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*counter),
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether a request for key is permitted, or how long until
// the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, exists := rl.windows[key]
	if !exists || !now.Before(c.expiresAt) {
		rl.windows[key] = &counter{count: 1, expiresAt: now.Add(rl.window)}

		// Bound memory to active keys plus at most 100 stale entries.
		rl.sweepCounter++
		if rl.sweepCounter >= 100 {
			for k, c := range rl.windows {
				if !now.Before(c.expiresAt) {
					delete(rl.windows, k)
				}
			}
			rl.sweepCounter = 0
		}
		return true, 0
	}

	if c.count < rl.limit {
		c.count++
		return true, 0
	}
	return false, c.expiresAt.Sub(now)
}

// ClientIP keys a request by remote address.
func ClientIP(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return "ip:" + host
}

// RateLimit returns middleware enforcing limiter per client. A nil limiter
// disables it.
func RateLimit(limiter *RateLimiter, logger *zap.Logger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next(w, r)
				return
			}
			key := ClientIP(r)
			allowed, retryAfter := limiter.Allow(key)
			if allowed {
				next(w, r)
				return
			}

			retrySeconds := int(math.Ceil(retryAfter.Seconds()))
			logger.Warn("rate limit exceeded", zap.String("key", key), zap.Int("retry_after", retrySeconds))
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retrySeconds))
			writeJSONError(w, "Too many login attempts", http.StatusTooManyRequests)
		}
	}
}

// writeJSONError writes the service's {"detail": ...} error body.
func writeJSONError(w http.ResponseWriter, detail string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(struct {
		Detail string `json:"detail"`
	}{Detail: detail})
}
