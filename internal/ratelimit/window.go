// Package ratelimit implements sliding-window admission control for inbound
// requests, keyed by caller identity.
//
// Each key keeps the ordered timestamps of its admitted requests inside the
// trailing window. Expired timestamps are pruned before every decision; a
// rejected request leaves the window exactly as the prune left it.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLimit  = 60
	DefaultWindow = 60 * time.Second
)

// SlidingWindow admits at most limit requests per key in any trailing window.
// It is safe for concurrent use. The zero value is not usable; call New.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex // guards keys; acquired before any bucket.mu
	keys map[string]*bucket
}

type bucket struct {
	mu    sync.Mutex
	stamp []time.Time // ascending
	dead  bool        // removed by Sweep
}

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces time.Now; tests use it to advance time.
func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) { s.now = now }
}

// New creates a limiter. Non-positive arguments fall back to the defaults.
func New(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	s := &SlidingWindow{
		limit:  limit,
		window: window,
		now:    time.Now,
		keys:   make(map[string]*bucket),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Limit returns the per-window admission limit.
func (s *SlidingWindow) Limit() int { return s.limit }

// Window returns the window length.
func (s *SlidingWindow) Window() time.Duration { return s.window }

func (s *SlidingWindow) bucketFor(key string) *bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.keys[key]
	if !ok {
		b = &bucket{}
		s.keys[key] = b
	}
	return b
}

// prune drops timestamps at or before cutoff. Caller holds b.mu.
func (b *bucket) prune(cutoff time.Time) {
	i := 0
	for i < len(b.stamp) && !b.stamp[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.stamp = append(b.stamp[:0], b.stamp[i:]...)
	}
}

// lock returns the live bucket for key with its mutex held.
func (s *SlidingWindow) lock(key string) *bucket {
	for {
		b := s.bucketFor(key)
		b.mu.Lock()
		if !b.dead {
			return b
		}
		b.mu.Unlock()
	}
}

// Admit reports whether a request for key is admitted now, recording it if so.
func (s *SlidingWindow) Admit(key string) bool {
	b := s.lock(key)
	defer b.mu.Unlock()
	now := s.now()
	b.prune(now.Add(-s.window))
	if len(b.stamp) >= s.limit {
		return false
	}
	b.stamp = append(b.stamp, now)
	return true
}

// RetryAfter returns how long key must wait before its next admission, or
// zero when it would be admitted now. It does not record anything.
func (s *SlidingWindow) RetryAfter(key string) time.Duration {
	b := s.lock(key)
	defer b.mu.Unlock()
	now := s.now()
	b.prune(now.Add(-s.window))
	if len(b.stamp) < s.limit {
		return 0
	}
	return b.stamp[0].Add(s.window).Sub(now)
}

// Sweep removes keys whose windows have fully expired and returns how many
// were dropped.
func (s *SlidingWindow) Sweep() int {
	cutoff := s.now().Add(-s.window)
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for key, b := range s.keys {
		b.mu.Lock()
		b.prune(cutoff)
		empty := len(b.stamp) == 0
		b.dead = empty
		b.mu.Unlock()
		if empty {
			delete(s.keys, key)
			dropped++
		}
	}
	return dropped
}

// Keys returns the number of tracked caller keys.
func (s *SlidingWindow) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *SlidingWindow) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.window
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
