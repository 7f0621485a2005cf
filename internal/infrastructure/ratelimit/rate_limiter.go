package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Chat actions with their own buckets.
const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionUpload      = "upload_attachment"
	ActionWithdraw    = "withdraw"

	// ActionRequest is the per-IP budget for any API call.
	ActionRequest = "http_request"
)

// Limit describes a bucket: Burst tokens, one more every Interval.
type Limit struct {
	Burst    int
	Interval time.Duration
}

// DefaultLimits is used when no per-action override is configured.
var DefaultLimits = map[string]Limit{
	ActionSendMessage: {Burst: 10, Interval: 6 * time.Second},
	ActionCreateChat:  {Burst: 5, Interval: 12 * time.Minute},
	ActionUpload:      {Burst: 10, Interval: 30 * time.Second},
	ActionWithdraw:    {Burst: 3, Interval: 10 * time.Minute},
	ActionRequest:     {Burst: 60, Interval: time.Second},
}

var fallbackLimit = Limit{Burst: 20, Interval: 3 * time.Second}

// TokenBucket represents a token bucket for rate limiting
type TokenBucket struct {
	tokens     int
	limit      Limit
	lastRefill time.Time
	lastUsed   time.Time
	mutex      sync.Mutex
}

func newTokenBucket(limit Limit, now time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     limit.Burst,
		limit:      limit,
		lastRefill: now,
		lastUsed:   now,
	}
}

// allow consumes a token when one is available; otherwise it reports the
// wait until the next refill.
func (tb *TokenBucket) allow(now time.Time) (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.lastUsed = now
	if refills := int(now.Sub(tb.lastRefill) / tb.limit.Interval); refills > 0 {
		tb.tokens += refills
		if tb.tokens > tb.limit.Burst {
			tb.tokens = tb.limit.Burst
		}
		tb.lastRefill = tb.lastRefill.Add(time.Duration(refills) * tb.limit.Interval)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	return false, tb.lastRefill.Add(tb.limit.Interval).Sub(now)
}

func (tb *TokenBucket) idleSince(now time.Time) time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return now.Sub(tb.lastUsed)
}

// RateLimiter keeps one bucket per user and action.
type RateLimiter struct {
	buckets map[string]*TokenBucket
	limits  map[string]Limit
	mutex   sync.RWMutex
	now     func() time.Time
}

// NewRateLimiter creates a limiter; overrides replace DefaultLimits per action.
func NewRateLimiter(overrides map[string]Limit) *RateLimiter {
	limits := make(map[string]Limit, len(DefaultLimits)+len(overrides))
	for action, l := range DefaultLimits {
		limits[action] = l
	}
	for action, l := range overrides {
		limits[action] = l
	}

	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		limits:  limits,
		now:     time.Now,
	}
}

// Allow checks if a user action is allowed
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action
	now := rl.now()

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		if bucket, exists = rl.buckets[key]; !exists {
			limit, ok := rl.limits[action]
			if !ok {
				limit = fallbackLimit
			}
			bucket = newTokenBucket(limit, now)
			rl.buckets[key] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.allow(now)
}

// Cleanup removes buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	removed := 0
	for key, bucket := range rl.buckets {
		if bucket.idleSince(now) > maxIdle {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine prunes idle buckets until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
