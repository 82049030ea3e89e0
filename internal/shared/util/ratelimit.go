package util

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

// ClientLimiters keeps a token bucket per client key. Buckets not touched
// for idleTTL are dropped by a background sweep.
type ClientLimiters struct {
	perSecond rate.Limit
	burst     int
	idleTTL   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	doneOnce sync.Once
}

type bucket struct {
	tokens *rate.Limiter
	seen   time.Time
}

// NewClientLimiters refills perSecond tokens per second per client, up to burst.
func NewClientLimiters(perSecond float64, burst int, idleTTL time.Duration) *ClientLimiters {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	if burst < 1 {
		burst = 1
	}
	c := &ClientLimiters{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		idleTTL:   idleTTL,
		buckets:   map[string]*bucket{},
		done:      make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Take spends one token from key's bucket. When the bucket is empty it
// reports how long until the next token arrives.
func (c *ClientLimiters) Take(key string) (bool, time.Duration) {
	return c.takeAt(key, time.Now())
}

func (c *ClientLimiters) takeAt(key string, now time.Time) (bool, time.Duration) {
	c.mu.Lock()
	b, ok := c.buckets[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(c.perSecond, c.burst)}
		c.buckets[key] = b
	}
	b.seen = now
	c.mu.Unlock()

	if b.tokens.AllowN(now, 1) {
		return true, 0
	}
	r := b.tokens.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// Clients reports how many keys currently hold a bucket.
func (c *ClientLimiters) Clients() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

// Close stops the sweep goroutine. Extra calls are no-ops.
func (c *ClientLimiters) Close() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *ClientLimiters) sweepLoop() {
	t := time.NewTicker(c.idleTTL / 2)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case now := <-t.C:
			c.sweep(now)
		}
	}
}

func (c *ClientLimiters) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, b := range c.buckets {
		if now.Sub(b.seen) > c.idleTTL {
			delete(c.buckets, key)
		}
	}
}
