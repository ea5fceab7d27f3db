package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haguru/notedly/internal/auth"
	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/interfaces/mocks"
	"github.com/haguru/notedly/internal/metrics"
	"github.com/haguru/notedly/internal/models/dto"
	pkgmetrics "github.com/haguru/notedly/pkg/metrics"
	"github.com/haguru/notedly/pkg/zerolog"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestIPRateLimiter(t *testing.T) {
	m := pkgmetrics.NewMetrics("test")
	metrics.Register(m)
	rl := NewIPRateLimiter(1, 2, m)
	defer rl.Close()
	now := time.Now()
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "1.1.1.1"))
	assert.True(t, rl.Allow(ctx, "1.1.1.1"))
	assert.False(t, rl.Allow(ctx, "1.1.1.1"))
	assert.True(t, rl.Allow(ctx, "2.2.2.2"), "buckets are per client")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow(ctx, "1.1.1.1"))

	assert.Equal(t, float64(2), gaugeValue(t, m, "test_rate_limit_visitors"))

	rl.cleanup(now.Add(2 * visitorIdleTTL))
	assert.Empty(t, rl.visitors)
	assert.Equal(t, float64(0), gaugeValue(t, m, "test_rate_limit_visitors"))
}

func gaugeValue(t *testing.T, m interfaces.Metrics, name string) float64 {
	t.Helper()
	families, err := m.GetRegistry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

type stubLimiter bool

func (s stubLimiter) Allow(context.Context, string) bool { return bool(s) }
func (s stubLimiter) Close() error                       { return nil }

func TestRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		allow      bool
		wantStatus int
		wantHits   string
	}{
		{name: "allowed", allow: true, wantStatus: http.StatusOK, wantHits: "0"},
		{name: "limited", allow: false, wantStatus: http.StatusTooManyRequests, wantHits: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pkgmetrics.NewMetrics("notedly")
			metrics.Register(m)
			logger := zerolog.NewZerologLoggerWithWriter("test", io.Discard)

			handler := RateLimitMiddleware(stubLimiter(tt.allow), logger, m)(okHandler)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if !tt.allow {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				var body dto.RateLimitResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
				assert.Equal(t, MsgTooManyRequests, body.Message)
			}

			expected := `
# HELP notedly_rate_limited_requests_total Total number of requests rejected by the rate limiter
# TYPE notedly_rate_limited_requests_total counter
notedly_rate_limited_requests_total ` + tt.wantHits + "\n"
			require.NoError(t, testutil.GatherAndCompare(m.GetRegistry(), strings.NewReader(expected), "notedly_rate_limited_requests_total"))
		})
	}
}

// fakeRedis counts INCRs in memory. Everything else on Cmdable is unused.
type fakeRedis struct {
	redis.Cmdable
	counts     map[string]int64
	expires    map[string]time.Duration
	err        error
	expireErrs int
	ttlCalls   int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "incr", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[key]++
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key, expiration)
	if f.expireErrs > 0 {
		f.expireErrs--
		cmd.SetErr(errors.New("i/o timeout"))
		return cmd
	}
	f.expires[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedis) TTL(ctx context.Context, key string) *redis.DurationCmd {
	f.ttlCalls++
	cmd := redis.NewDurationCmd(ctx, time.Second, "ttl", key)
	if ttl, ok := f.expires[key]; ok {
		cmd.SetVal(ttl)
	} else {
		cmd.SetVal(-1)
	}
	return cmd
}

func TestRedisRateLimiter(t *testing.T) {
	logger := zerolog.NewZerologLoggerWithWriter("test", io.Discard)
	client := newFakeRedis()
	rl := newRedisRateLimiter(client, 2, 30*time.Second, logger)
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "1.1.1.1"))
	assert.True(t, rl.Allow(ctx, "1.1.1.1"))
	assert.False(t, rl.Allow(ctx, "1.1.1.1"))
	assert.Equal(t, 30*time.Second, client.expires[redisKeyPrefix+"1.1.1.1"])
	assert.Equal(t, 1, client.ttlCalls, "TTL is only checked for rejected requests")
	assert.NoError(t, rl.Close())

	client.err = errors.New("connection refused")
	assert.True(t, rl.Allow(ctx, "3.3.3.3"), "redis failures fail open")

	unlimited := newRedisRateLimiter(client, 0, 0, logger)
	assert.True(t, unlimited.Allow(ctx, "1.1.1.1"))
	assert.Equal(t, defaultRedisWindow, unlimited.window)
}

func TestRedisRateLimiter_RepairsMissingExpiry(t *testing.T) {
	logger := zerolog.NewZerologLoggerWithWriter("test", io.Discard)
	client := newFakeRedis()
	client.expireErrs = 1
	rl := newRedisRateLimiter(client, 2, 30*time.Second, logger)
	ctx := context.Background()
	key := redisKeyPrefix + "4.4.4.4"

	assert.True(t, rl.Allow(ctx, "4.4.4.4"))
	_, hasTTL := client.expires[key]
	require.False(t, hasTTL)

	assert.True(t, rl.Allow(ctx, "4.4.4.4"))
	assert.False(t, rl.Allow(ctx, "4.4.4.4"))
	assert.Equal(t, 30*time.Second, client.expires[key])

	// once the window passes the client is let through again
	delete(client.counts, key)
	delete(client.expires, key)
	assert.True(t, rl.Allow(ctx, "4.4.4.4"))
	assert.Equal(t, 30*time.Second, client.expires[key])
}

func TestIdentityMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		setup  func(tokens *mocks.MockTokenManager)
		want   string
	}{
		{name: "no header"},
		{
			name:   "raw token",
			header: "tok",
			setup:  func(tokens *mocks.MockTokenManager) { tokens.On("VerifyToken", "tok").Return("user-1", nil) },
			want:   "user-1",
		},
		{
			name:   "bearer token",
			header: "Bearer tok",
			setup:  func(tokens *mocks.MockTokenManager) { tokens.On("VerifyToken", "tok").Return("user-1", nil) },
			want:   "user-1",
		},
		{
			name:   "invalid token continues anonymously",
			header: "bearer bad",
			setup:  func(tokens *mocks.MockTokenManager) { tokens.On("VerifyToken", "bad").Return("", auth.ErrInvalidToken) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mocks.NewMockTokenManager(t)
			if tt.setup != nil {
				tt.setup(tokens)
			}
			var got string
			handler := IdentityMiddleware(tokens, zerolog.NewZerologLoggerWithWriter("test", io.Discard))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					got = auth.UserIDFromContext(r.Context())
					w.WriteHeader(http.StatusOK)
				}))

			req := httptest.NewRequest(http.MethodPost, "/api", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rr.Header().Get("Referrer-Policy"))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		preflight  bool
		wantOrigin string
		wantStatus int
	}{
		{name: "listed origin", allowed: []string{"http://app.test"}, method: http.MethodPost, origin: "http://app.test", wantOrigin: "http://app.test", wantStatus: http.StatusOK},
		{name: "unlisted origin", allowed: []string{"http://app.test"}, method: http.MethodPost, origin: "http://evil.test", wantStatus: http.StatusOK},
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodPost, origin: "http://any.test", wantOrigin: "http://any.test", wantStatus: http.StatusOK},
		{name: "preflight", allowed: []string{"*"}, method: http.MethodOptions, origin: "http://any.test", preflight: true, wantOrigin: "http://any.test", wantStatus: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rr := httptest.NewRecorder()
			CORS(tt.allowed)(okHandler).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.RemoteAddr = "10.0.0.2"
	assert.Equal(t, "10.0.0.2", ClientIP(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", ClientIP(req))
}
