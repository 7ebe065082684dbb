// Package ratelimit gates outbound provider calls with one token bucket per key.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a key has no token left.
var ErrRateLimited = errors.New("rate limited")

type rule struct {
	rate  float64 // tokens per second
	burst float64
}

func newRule(rate float64, burst int) rule {
	if burst <= 0 {
		burst = 1
	}
	return rule{rate: rate, burst: float64(burst)}
}

type bucket struct {
	rule
	tokens float64
	last   time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithKeyRate overrides the default rate and burst for one key.
// A non-positive rate disables limiting for that key.
func WithKeyRate(key string, rate float64, burst int) Option {
	return func(l *Limiter) { l.rules[key] = newRule(rate, burst) }
}

// Limiter is fail-fast: a denied call is not queued.
type Limiter struct {
	def   rule
	rules map[string]rule
	now   func() time.Time

	mu sync.Mutex
	m  map[string]*bucket
}

// New builds a limiter refilling rate tokens per second up to burst for
// every key without its own rule. A non-positive rate disables limiting.
func New(rate float64, burst int, opts ...Option) *Limiter {
	l := &Limiter{
		def:   newRule(rate, burst),
		rules: make(map[string]rule),
		now:   time.Now,
		m:     make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) ruleFor(key string) rule {
	if r, ok := l.rules[key]; ok {
		return r
	}
	return l.def
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	r := l.ruleFor(key)
	if r.rate <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{rule: r, tokens: r.burst, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.burst, b.tokens+elapsed*b.rate)
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Take is Allow reporting ErrRateLimited on denial.
func (l *Limiter) Take(key string) error {
	if !l.Allow(key) {
		return ErrRateLimited
	}
	return nil
}
