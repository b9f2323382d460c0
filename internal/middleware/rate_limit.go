package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CleanAfricaNow/civic-service/internal/client"
	"github.com/CleanAfricaNow/civic-service/internal/config"
)

// RateLimiter throttles by client IP with a token bucket. When a Redis
// client is supplied the bucket lives there and is shared across
// replicas; otherwise each process keeps its own in-memory buckets.
// Redis failures degrade open: the request passes with a marker header.
type RateLimiter struct {
	mu      sync.RWMutex
	cfg     config.RateLimitConfig
	redis   *client.RedisClient
	buckets map[string]*tokenBucket
	trusted []*net.IPNet
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *client.RedisClient) *RateLimiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:"
	}
	if cfg.RatePerInterval <= 0 {
		cfg.RatePerInterval = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RatePerInterval
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		redis:   rdb,
		buckets: make(map[string]*tokenBucket),
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)

		if rl.redis != nil {
			ok, err := rl.redisAllow(r.Context(), rl.cfg.KeyPrefix+key)
			if err != nil {
				w.Header().Set("X-RateLimit-Degraded", "true")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if !rl.bucket(key).allow(1) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time
}

func newBucket(rate int, interval time.Duration, burst int) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(burst),
		tokens:     float64(burst),
		refillRate: float64(rate) / interval.Seconds(),
		lastRefill: time.Now(),
	}
}

func (b *tokenBucket) allow(cost int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now

	if b.tokens >= float64(cost) {
		b.tokens -= float64(cost)
		return true
	}
	return false
}

func (rl *RateLimiter) bucket(key string) *tokenBucket {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()
	if exists {
		return b
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, exists := rl.buckets[key]; exists {
		return b
	}
	b = newBucket(rl.cfg.RatePerInterval, rl.cfg.Interval, rl.cfg.Burst)
	rl.buckets[key] = b
	return b
}

var allowScript = redis.NewScript(`
-- KEYS = bucket key
-- ARGV = now_ms, rate_per_sec, capacity, cost, ttl_sec
local key = KEYS[1]
local now = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local cap = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])

if not tokens or not ts then
  tokens = cap
  ts = now
else
  local elapsed = (now - ts) / 1000
  tokens = math.min(cap, tokens + (elapsed * rate))
  ts = now
end

local allowed = 0
if tokens >= cost then
  tokens = tokens - cost
  allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "ts", ts)
redis.call("EXPIRE", key, ttl)

return allowed
`)

func (rl *RateLimiter) redisAllow(ctx context.Context, key string) (bool, error) {
	ratePerSec := float64(rl.cfg.RatePerInterval) / rl.cfg.Interval.Seconds()
	res, err := allowScript.Run(ctx, rl.redis, []string{key},
		time.Now().UnixMilli(),
		ratePerSec,
		rl.cfg.Burst,
		1,
		int((24 * time.Hour).Seconds()),
	).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
