package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sentinelworks/gatepass/internal/http/response"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
}

// RateLimiter is a fixed-window limiter backed by redis.
type RateLimiter struct {
	client *redis.Client
	config RateLimitConfig
}

func NewRateLimiter(client *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{client: client, config: config}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range rl.config.KeyFunc(r) {
				if !rl.allow(r.Context(), key) {
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Hash the key so raw IPs/emails never land in redis.
	hashed := fmt.Sprintf("ratelimit:%x", sha256.Sum256([]byte(key)))

	count, err := rl.client.Incr(ctx, hashed).Result()
	if err != nil {
		// Fail open on redis errors.
		return true
	}
	if count == 1 {
		rl.client.Expire(ctx, hashed, rl.config.Window)
	}

	return count <= int64(rl.config.Requests)
}

// IPKeyFunc rate limits by client IP.
func IPKeyFunc(r *http.Request) []string {
	if ip := ClientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}
