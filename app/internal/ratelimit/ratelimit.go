package ratelimit

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// idleExpiry drops buckets of clients that stopped calling
const idleExpiry = 10 * time.Minute

// Limiter implements a per-key token bucket
type Limiter struct {
	mu           sync.Mutex
	buckets      *gocache.Cache
	tokensPerMin int
	maxTokens    int
	errorMessage string
	now          func() time.Time
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// Config for creating a new rate limiter
type Config struct {
	TokensPerMinute int    // Number of tokens added per minute
	MaxTokens       int    // Maximum tokens that can be accumulated
	ErrorMessage    string // Message to return when rate limited
	Clock           func() time.Time
}

// New creates a new rate limiter
func New(cfg Config) *Limiter {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = cfg.TokensPerMinute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Limiter{
		buckets:      gocache.New(idleExpiry, idleExpiry/2),
		tokensPerMin: cfg.TokensPerMinute,
		maxTokens:    cfg.MaxTokens,
		errorMessage: cfg.ErrorMessage,
		now:          cfg.Clock,
	}
}

// refill returns the bucket for key topped up to now. Caller holds mu.
func (l *Limiter) refill(key string, now time.Time) *bucket {
	var b *bucket
	if v, ok := l.buckets.Get(key); ok {
		b = v.(*bucket)
	} else {
		b = &bucket{tokens: float64(l.maxTokens), lastCheck: now}
	}
	elapsed := now.Sub(b.lastCheck).Minutes()
	b.tokens = min(b.tokens+elapsed*float64(l.tokensPerMin), float64(l.maxTokens))
	b.lastCheck = now
	return b
}

// Allow checks if a request is allowed for the given key (usually IP address)
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN checks if n requests are allowed
func (l *Limiter) AllowN(key string, n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key, l.now())
	l.buckets.SetDefault(key, b)
	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// Remaining returns the number of remaining tokens for a key
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.buckets.Get(key); !ok {
		return l.maxTokens
	}
	return int(l.refill(key, l.now()).tokens)
}

// Limit is the bucket capacity
func (l *Limiter) Limit() int {
	return l.maxTokens
}

// ErrorMessage returns the error message for this limiter
func (l *Limiter) ErrorMessage() string {
	return l.errorMessage
}

// Reset forgets the bucket for a key
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets.Delete(key)
}
