package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DomainRateLimiter enforces a minimum interval between requests to the
// same domain, with exponential backoff after failures.
type DomainRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*domainState
	config   *Config
}

// Config configures rate limiting behavior
type Config struct {
	MinInterval       time.Duration `json:"min_interval"`
	MaxBackoff        time.Duration `json:"max_backoff"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
}

// DefaultConfig returns default rate limiter configuration
func DefaultConfig() *Config {
	return &Config{
		MinInterval:       1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

type domainState struct {
	lastRequest  time.Time
	backoffUntil time.Time
	currentDelay time.Duration
	requestCount int64
	errorCount   int64
}

// NewDomainRateLimiter creates a new per-domain rate limiter
func NewDomainRateLimiter(config *Config) *DomainRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &DomainRateLimiter{
		limiters: make(map[string]*domainState),
		config:   config,
	}
}

// Wait blocks until it is safe to make a request to the domain, or the
// context is cancelled.
func (l *DomainRateLimiter) Wait(ctx context.Context, domain string) error {
	for {
		l.mu.Lock()
		state := l.getState(domain)
		now := time.Now()

		wait := time.Duration(0)
		if now.Before(state.backoffUntil) {
			wait = state.backoffUntil.Sub(now)
		} else if since := now.Sub(state.lastRequest); since < state.currentDelay {
			wait = state.currentDelay - since
		}

		if wait == 0 {
			state.lastRequest = now
			state.requestCount++
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ReportSuccess resets the backoff for a domain after a successful request.
func (l *DomainRateLimiter) ReportSuccess(domain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	state := l.getState(domain)
	state.currentDelay = l.config.MinInterval
	state.backoffUntil = time.Time{}
}

// ReportFailure increases the delay for a domain. Rate-limited responses
// (429, 503) should be reported here so subsequent requests back off.
func (l *DomainRateLimiter) ReportFailure(domain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	state := l.getState(domain)
	state.errorCount++
	next := time.Duration(float64(state.currentDelay) * l.config.BackoffMultiplier)
	if next > l.config.MaxBackoff {
		next = l.config.MaxBackoff
	}
	state.currentDelay = next
	state.backoffUntil = time.Now().Add(next)
}

// Stats returns request and error counts for a domain.
func (l *DomainRateLimiter) Stats(domain string) (requests, errors int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	state := l.getState(domain)
	return state.requestCount, state.errorCount
}

// getState returns the limiter state for a domain, creating it if needed.
// Caller must hold l.mu.
func (l *DomainRateLimiter) getState(domain string) *domainState {
	state, ok := l.limiters[domain]
	if !ok {
		state = &domainState{currentDelay: l.config.MinInterval}
		l.limiters[domain] = state
	}
	return state
}
