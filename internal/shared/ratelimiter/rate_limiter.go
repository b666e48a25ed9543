// Package ratelimiter は取引APIのクライアント単位のリクエスト制限を提供します。
package ratelimiter

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// DefaultRPS はクライアントごとの既定の毎秒リクエスト数です。
	DefaultRPS = 20.0
	// DefaultBurst は既定のバースト許容数です。
	DefaultBurst = 40
	// idleTTL を過ぎて使われていないクライアントのバケットは破棄されます。
	idleTTL = 10 * time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter はクライアントキーごとのトークンバケットを保持します。
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     rate.Limit
	burst   int
	now     func() time.Time
	lastGC  time.Time
}

// NewLimiter は rps と burst で新しい Limiter を生成します。
// rps が0以下の場合は制限しません。
func NewLimiter(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// LoadFromEnv は RATE_LIMIT_RPS と RATE_LIMIT_BURST から Limiter を生成します。
func LoadFromEnv() *Limiter {
	rps := DefaultRPS
	if v, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64); err == nil {
		rps = v
	}
	burst := DefaultBurst
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST")); err == nil && v > 0 {
		burst = v
	}
	return NewLimiter(rps, burst)
}

// Allow はキーのバケットからトークンを1つ消費できるかを返します。
func (l *Limiter) Allow(key string) bool {
	if l.rps <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// evictIdle は idleTTL ごとに古いバケットを掃除します。mu を保持して呼びます。
func (l *Limiter) evictIdle(now time.Time) {
	if now.Sub(l.lastGC) < idleTTL {
		return
	}
	l.lastGC = now
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) >= idleTTL {
			delete(l.clients, k)
		}
	}
}

// Middleware はクライアントIPごとに制限するGinミドルウェアを返します。
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			slog.Warn("rate limit exceeded", "remote_addr", c.ClientIP(), "path", c.FullPath())
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
