package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter spaces out page fetches. Wait blocks until the next fetch for
// the given domain is allowed or the context ends.
type Limiter interface {
	Wait(ctx context.Context, domain string) error
	SetDelay(min, max time.Duration)
}

// DomainLimiter enforces a jittered delay between consecutive fetches to
// the same domain. Different domains do not delay each other.
type DomainLimiter struct {
	mu        sync.Mutex
	minDelay  time.Duration
	maxDelay  time.Duration
	lastFetch map[string]time.Time
	jitter    bool
}

func NewDomainLimiter(minDelay, maxDelay time.Duration) *DomainLimiter {
	return &DomainLimiter{
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		lastFetch: make(map[string]time.Time),
		jitter:    true,
	}
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	l.mu.Lock()
	elapsed := time.Since(l.lastFetch[domain])
	delay := l.calculateDelay()
	l.mu.Unlock()

	if elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	l.mu.Lock()
	l.lastFetch[domain] = time.Now()
	l.mu.Unlock()
	return nil
}

func (l *DomainLimiter) SetDelay(min, max time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.minDelay = min
	l.maxDelay = max
}

func (l *DomainLimiter) calculateDelay() time.Duration {
	if !l.jitter || l.maxDelay <= l.minDelay {
		return l.minDelay
	}

	delta := l.maxDelay - l.minDelay
	jitter := time.Duration(rand.Int63n(int64(delta)))
	return l.minDelay + jitter
}

// AdaptiveLimiter widens the per-domain delay window after repeated
// failures and tightens it again once fetches succeed.
type AdaptiveLimiter struct {
	*DomainLimiter
	errorCount    int
	successCount  int
	maxErrorCount int
	backoffFactor float64
}

func NewAdaptiveLimiter(minDelay, maxDelay time.Duration) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		DomainLimiter: NewDomainLimiter(minDelay, maxDelay),
		maxErrorCount: 3,
		backoffFactor: 1.5,
	}
}

func (a *AdaptiveLimiter) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successCount++
	a.errorCount = 0

	if a.successCount > 5 {
		newMin := time.Duration(float64(a.minDelay) * 0.9)
		if newMin < time.Second {
			newMin = time.Second
		}
		a.minDelay = newMin
		a.successCount = 0
	}
}

func (a *AdaptiveLimiter) RecordError() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errorCount++
	a.successCount = 0

	if a.errorCount >= a.maxErrorCount {
		newMin := time.Duration(float64(a.minDelay) * a.backoffFactor)
		newMax := time.Duration(float64(a.maxDelay) * a.backoffFactor)

		if newMin > 60*time.Second {
			newMin = 60 * time.Second
		}
		if newMax > 120*time.Second {
			newMax = 120 * time.Second
		}

		a.minDelay = newMin
		a.maxDelay = newMax
		a.errorCount = 0
	}
}
