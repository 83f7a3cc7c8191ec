package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/yatube/utils"
)

const limiterIdleTTL = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
	limit    rate.Limit
	burst    int
}

// RateLimitMiddleware applies a per-IP token bucket allowing perMinute requests
// per minute with a burst of half that. A non-positive perMinute disables limiting.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	set := &limiterSet{
		limiters: map[string]*rateLimiter{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
	}

	return func(ctx *gin.Context) {
		if !set.allow(ctx.ClientIP()) {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, l := range s.limiters {
		if now.After(l.expires) {
			delete(s.limiters, k)
		}
	}

	l, ok := s.limiters[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = l
	}
	l.expires = now.Add(limiterIdleTTL)
	return l.limiter.Allow()
}
