package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"barber-booking/internal/cache"
	"barber-booking/internal/transport"
)

// RateLimiter counts requests per client IP in fixed windows. Counters live
// in the shared cache so every instance sees the same totals.
type RateLimiter struct {
	name   string
	limit  int
	window time.Duration
	store  cache.Cache
	log    *slog.Logger
}

func NewRateLimiter(name string, limit int, window time.Duration, store cache.Cache, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		name:   name,
		limit:  limit,
		window: window,
		store:  store,
		log:    log,
	}
}

// Allow reports whether key is within its budget. Store errors fail open.
func (rl *RateLimiter) Allow(r *http.Request, key string) bool {
	if rl.limit <= 0 {
		return true
	}
	windowStart := time.Now().Truncate(rl.window).Unix()
	counterKey := "ratelimit:" + rl.name + ":" + key + ":" + strconv.FormatInt(windowStart, 10)

	n, err := rl.store.Incr(r.Context(), counterKey, rl.window)
	if err != nil {
		rl.log.Warn("rate limit: store failed", slog.String("limiter", rl.name), slog.Any("err", err))
		return true
	}
	return n <= int64(rl.limit)
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r, clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			transport.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
