package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/metrics"
	"github.com/haguru/notedly/internal/models/dto"
)

const (
	MsgTooManyRequests = "Too many requests. Please try again later."

	visitorIdleTTL     = 10 * time.Minute
	visitorSweepPeriod = time.Minute
)

// RateLimiter decides whether the client identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
	Close() error
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client key in memory.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
	metrics  interfaces.Metrics
	stopCh   chan struct{}
	once     sync.Once
}

// NewIPRateLimiter allows rps requests per second per client with the given burst.
// A background sweep drops buckets that have been idle for a while. The number
// of tracked clients is reported on m.
func NewIPRateLimiter(rps float64, burst int, m interfaces.Metrics) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		metrics:  m,
		stopCh:   make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *IPRateLimiter) Allow(_ context.Context, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
		rl.metrics.IncGauge(metrics.RateLimitVisitors)
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *IPRateLimiter) sweepLoop() {
	ticker := time.NewTicker(visitorSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(rl.now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *IPRateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTTL {
			delete(rl.visitors, key)
		}
	}
	rl.metrics.SetGauge(metrics.RateLimitVisitors, float64(len(rl.visitors)))
}

func (rl *IPRateLimiter) Close() error {
	rl.once.Do(func() { close(rl.stopCh) })
	return nil
}

// RateLimitMiddleware answers 429 with a JSON body once the client's budget is spent.
func RateLimitMiddleware(limiter RateLimiter, logger interfaces.Logger, m interfaces.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIP(r)
			if !limiter.Allow(r.Context(), key) {
				logger.Warn("Request rate limited", "client", key, "path", r.URL.Path)
				m.IncCounter(metrics.RateLimitedRequests)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				resp := dto.RateLimitResponse{Message: MsgTooManyRequests}
				_ = json.NewEncoder(w).Encode(resp)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}
