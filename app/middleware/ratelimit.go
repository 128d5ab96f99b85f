package appMiddleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api"
)

// RateLimiter hands out one token bucket per client IP. Idle buckets expire
// from the cache.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	rps      rate.Limit
	burst    int
	logger   *slog.Logger
}

func NewRateLimiter(rps float64, burst int, idle time.Duration, logger *slog.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &RateLimiter{
		limiters: cache.New(idle, idle),
		rps:      rate.Limit(rps),
		burst:    burst,
		logger:   logger,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if v, ok := rl.limiters.Get(key); ok {
		lim := v.(*rate.Limiter)
		rl.limiters.SetDefault(key, lim)
		return lim
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.limiters.SetDefault(key, lim)
	return lim
}

// Middleware answers 429 when the caller's bucket is empty. A non-positive
// rate disables limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl.rps <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.limiter(ip).Allow() {
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded", slog.String("ip", ip), slog.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(1/float64(rl.rps)))))
			api.ErrorResponse(w, r, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
