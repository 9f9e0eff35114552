package handlers

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

const (
	// Client buckets are only swept once this many are tracked.
	limiterSweepSize = 500
	// A client that has not exported for this long starts with a full bucket.
	limiterIdle = 10 * time.Minute
)

type exportBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands each client address its own token bucket for PNG
// exports. Buckets of idle clients are dropped on lookup once the table
// grows past limiterSweepSize.
type IPRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*exportBucket
	perSec  rate.Limit
	burst   int
}

func NewIPRateLimiter(perSec rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		buckets: make(map[string]*exportBucket),
		perSec:  perSec,
		burst:   burst,
	}
}

// PerMinute converts a per-minute budget to a rate.Limit. Zero disables limiting.
func PerMinute(n float64) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Limit(n / 60)
}

// GetLimiter returns the export bucket for ip.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	if len(i.buckets) > limiterSweepSize {
		for addr, b := range i.buckets {
			if now.Sub(b.lastSeen) > limiterIdle {
				delete(i.buckets, addr)
			}
		}
	}

	b, ok := i.buckets[ip]
	if !ok {
		b = &exportBucket{limiter: rate.NewLimiter(i.perSec, i.burst)}
		i.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Allow reports whether the client of r may export now. A nil limiter allows everything.
func (i *IPRateLimiter) Allow(r *http.Request) bool {
	if i == nil {
		return true
	}
	return i.GetLimiter(clientIP(r)).Allow()
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RateLimitMiddleware answers 429 once the client's export bucket is empty.
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r) {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.InfoContext(r.Context(), "Request handled",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
