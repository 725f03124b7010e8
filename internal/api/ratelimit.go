package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// orgLimiterIdleTTL is how long an organization's bucket survives without requests.
const orgLimiterIdleTTL = 10 * time.Minute

type orgLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// OrgRateLimiter is a token bucket per organization, guarding the endpoints that
// fan writes out to every member.
type OrgRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*orgLimiter
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

// NewOrgRateLimiter creates a limiter allowing rps requests per second per
// organization with the given burst.
func NewOrgRateLimiter(rps float64, burst int) *OrgRateLimiter {
	return &OrgRateLimiter{
		limiters: make(map[string]*orgLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether the organization may make another request now.
func (l *OrgRateLimiter) Allow(orgID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[orgID]
	if !ok {
		l.evictIdle(now)
		entry = &orgLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[orgID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// evictIdle drops buckets not used within orgLimiterIdleTTL. Caller holds mu.
func (l *OrgRateLimiter) evictIdle(now time.Time) {
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > orgLimiterIdleTTL {
			delete(l.limiters, id)
		}
	}
}

// Middleware rejects requests over the caller organization's budget with 429.
// Must run AFTER AuthMiddleware.
func (l *OrgRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := getCallerFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !l.Allow(caller.OrganizationID) {
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, "Too many sync requests, please retry shortly")
			return
		}
		c.Next()
	}
}
