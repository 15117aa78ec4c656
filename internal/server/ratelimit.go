package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"treinopp/internal/api"
	"treinopp/internal/apperr"
	"treinopp/internal/logger"
)

const clientIdleTTL = 3 * time.Minute

// clientBuckets holds a token bucket per client key. Idle buckets are evicted
// lazily, at most once per ttl, while serving requests.
type clientBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

func newClientBuckets(rps float64, burst int, ttl time.Duration) *clientBuckets {
	return &clientBuckets{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

// take spends one token for key. When the bucket is empty it reports how long
// the client should wait.
func (b *clientBuckets) take(key string) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.Sub(b.lastSweep) > b.ttl {
		b.evict(now)
	}

	bk, ok := b.buckets[key]
	if !ok {
		bk = &bucket{Limiter: rate.NewLimiter(b.limit, b.burst)}
		b.buckets[key] = bk
	}
	bk.seen = now

	r := bk.ReserveN(now, 1)
	if !r.OK() {
		return false, b.ttl
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

func (b *clientBuckets) evict(now time.Time) {
	for key, bk := range b.buckets {
		if now.Sub(bk.seen) > b.ttl {
			delete(b.buckets, key)
		}
	}
	b.lastSweep = now
}

// RateLimitMiddleware throttles each client IP to rps with bursts of burst and
// answers 429 with a Retry-After hint.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	buckets := newClientBuckets(rps, burst, clientIdleTTL)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		ok, wait := buckets.take(ip)
		if ok {
			c.Next()
			return
		}

		logger.Warn("Rate limit exceeded", "client_ip", ip, "path", c.FullPath())
		c.Header("Retry-After", strconv.Itoa(int(wait.Round(time.Second)/time.Second)+1))
		c.Abort()
		api.RespondError(c, apperr.ErrRateLimited)
	}
}
