package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/kevinaaaquil/bookworm/logging"
)

// Named limits applied to route groups.
var (
	LoginLimit    = Limit{Name: "login", Max: 5, Window: 15 * time.Minute}
	RegisterLimit = Limit{Name: "register", Max: 3, Window: time.Hour}
	APILimit      = Limit{Name: "api", Max: 100, Window: time.Minute}
)

type Limit struct {
	Name   string
	Max    int
	Window time.Duration
}

// CounterSource hands out a shared counter per named limit.
type CounterSource interface {
	Counter(name string) httprate.LimitCounter
}

// RateLimiter builds per-route httprate middleware. With no Counters each
// limit keeps its own in-process counter. A nil RateLimiter disables limiting.
type RateLimiter struct {
	Counters CounterSource
}

// Apply keys each request by client ip and path. Over the limit it answers
// 429 with Retry-After and X-RateLimit-* headers. Counter errors fail closed.
func (rl *RateLimiter) Apply(l Limit) func(next http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	opts := []httprate.Option{
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			tooManyRequests(w, l)
		}),
		httprate.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logging.Ctx(r.Context()).Error().Err(err).Str("limit", l.Name).Msg("rate limiter unavailable")
			w.Header().Set("Retry-After", strconv.Itoa(int(l.Window.Seconds())))
			tooManyRequests(w, l)
		}),
	}
	if rl.Counters != nil {
		opts = append(opts, httprate.WithLimitCounter(rl.Counters.Counter(l.Name)))
	}
	return httprate.Limit(l.Max, l.Window, opts...)
}

func tooManyRequests(w http.ResponseWriter, l Limit) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.Max))
	h.Set("X-RateLimit-Remaining", "0")
	retryAfter, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || retryAfter <= 0 {
		retryAfter = int(l.Window.Seconds())
		h.Set("Retry-After", strconv.Itoa(retryAfter))
	}
	writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
		"error":      "Too many requests, please try again later",
		"retryAfter": retryAfter,
	})
}

// FloodGuard is a coarse in-process per-IP cap in front of everything.
func FloodGuard(requests int, window time.Duration) func(next http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
		}),
	)
}

// clientIP reads RemoteAddr, which chi's RealIP has already rewritten from
// X-Forwarded-For / X-Real-IP when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}
