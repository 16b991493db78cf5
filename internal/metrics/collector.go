// Package metrics records per-request counters and latencies for the HTTP
// shell and reports them as a point-in-time snapshot.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// DefaultCapacity is the number of most recent durations retained.
const DefaultCapacity = 1000

// p95MinSamples is the sample count a p95 needs before it is reported.
const p95MinSamples = 20

// Snapshot is a copy of the collector state at one instant.
type Snapshot struct {
	UptimeSeconds float64          `json:"uptime_seconds"`
	Total         int64            `json:"total_requests"`
	Errors        int64            `json:"errors"`
	ByEndpoint    map[string]int64 `json:"by_endpoint"`
	ByStatus      map[int]int64    `json:"by_status"`
	AvgMs         float64          `json:"avg_response_ms"`
	MaxMs         float64          `json:"max_response_ms"`
	P95Ms         float64          `json:"p95_response_ms"`
	Samples       int              `json:"samples"`
}

// Collector is safe for concurrent use. Record does constant work under a
// single mutex; Snapshot copies and sorts outside it.
type Collector struct {
	now     func() time.Time
	started time.Time

	mu         sync.Mutex
	total      int64
	errors     int64
	byEndpoint map[string]int64
	byStatus   map[int]int64
	ring       []float64
	next       int
	full       bool
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithCapacity sets the duration ring size.
func WithCapacity(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.ring = make([]float64, n)
		}
	}
}

// New creates a Collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		now:        time.Now,
		byEndpoint: make(map[string]int64),
		byStatus:   make(map[int]int64),
		ring:       make([]float64, DefaultCapacity),
	}
	for _, o := range opts {
		o(c)
	}
	c.started = c.now()
	return c
}

// Record counts one finished request.
func (c *Collector) Record(endpoint string, status int, d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	if status >= 400 {
		c.errors++
	}
	c.byEndpoint[endpoint]++
	c.byStatus[status]++
	c.ring[c.next] = ms
	c.next++
	if c.next == len(c.ring) {
		c.next = 0
		c.full = true
	}
}

// Snapshot returns the current state.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{
		UptimeSeconds: c.now().Sub(c.started).Seconds(),
		Total:         c.total,
		Errors:        c.errors,
		ByEndpoint:    make(map[string]int64, len(c.byEndpoint)),
		ByStatus:      make(map[int]int64, len(c.byStatus)),
	}
	for k, v := range c.byEndpoint {
		s.ByEndpoint[k] = v
	}
	for k, v := range c.byStatus {
		s.ByStatus[k] = v
	}
	n := c.next
	if c.full {
		n = len(c.ring)
	}
	samples := make([]float64, n)
	copy(samples, c.ring[:n])
	c.mu.Unlock()

	s.Samples = n
	if n == 0 {
		return s
	}
	var sum float64
	for _, v := range samples {
		sum += v
		if v > s.MaxMs {
			s.MaxMs = v
		}
	}
	s.AvgMs = sum / float64(n)
	if n > p95MinSamples {
		sort.Float64s(samples)
		s.P95Ms = samples[int(0.95*float64(n))]
	}
	return s
}
