package intake

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "intake:ratelimit:"

// RateLimiter ограничивает число заявок с одного адреса за окно.
// Счётчики живут в redis, чтобы лимит действовал на все реплики сервиса.
type RateLimiter struct {
	rdb      *redis.Client
	requests int
	window   time.Duration
}

func NewRateLimiter(rdb *redis.Client, requests int, window time.Duration) *RateLimiter {
	if rdb == nil || requests <= 0 || window <= 0 {
		return &RateLimiter{}
	}

	return &RateLimiter{
		rdb:      rdb,
		requests: requests,
		window:   window,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil || rl.rdb == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rateLimitKeyPrefix + clientKey(r)

		// Инкремент и выставление TTL уходят одной транзакцией: счётчик
		// не может остаться без срока жизни.
		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(r.Context(), key)
		pipe.ExpireNX(r.Context(), key, rl.window)
		if _, err := pipe.Exec(r.Context()); err != nil {
			// Недоступный redis не блокирует приём заявок.
			log.Printf("rate limiter redis error: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		if incr.Val() > int64(rl.requests) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if r == nil {
		return "unknown"
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}
