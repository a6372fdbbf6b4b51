package auth

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

// RateLimiter keeps a token bucket per principal. Buckets of callers that
// stay idle for the expiry window are forgotten.
type RateLimiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewRateLimiter creates a limiter allowing rps requests per second with burst b.
func NewRateLimiter(rps float64, b int, idle time.Duration) *RateLimiter {
	if b <= 0 {
		b = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &RateLimiter{
		limiters: cache.New(idle, 2*idle),
		r:        rate.Limit(rps),
		b:        b,
	}
}

// Allow consumes one token for key.
func (l *RateLimiter) Allow(key string) bool {
	return l.limiterFor(key).Allow()
}

func (l *RateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.limiters.Get(key); ok {
		limiter := cached.(*rate.Limiter)
		l.limiters.SetDefault(key, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(l.r, l.b)
	l.limiters.SetDefault(key, limiter)
	return limiter
}

// Handle throttles the authenticated principal, falling back to the client IP.
func (l *RateLimiter) Handle(c *fiber.Ctx) error {
	key := "ip:" + c.IP()
	if principal, ok := PrincipalFromContext(c); ok {
		key = "principal:" + principal.ID
	}
	if !l.Allow(key) {
		return apperrors.NewRateLimited()
	}
	return c.Next()
}
