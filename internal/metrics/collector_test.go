package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/ecowise/internal/metrics"
)

func TestSnapshot_Empty(t *testing.T) {
	s := metrics.New().Snapshot()
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AvgMs)
	assert.Zero(t, s.P95Ms)
	assert.Zero(t, s.Samples)
}

func TestSnapshot_CountersAndAverages(t *testing.T) {
	c := metrics.New()
	c.Record("/a", 200, 10*time.Millisecond)
	c.Record("/a", 502, 30*time.Millisecond)
	c.Record("/b", 429, 20*time.Millisecond)

	s := c.Snapshot()
	assert.EqualValues(t, 3, s.Total)
	assert.EqualValues(t, 2, s.Errors)
	assert.Equal(t, map[string]int64{"/a": 2, "/b": 1}, s.ByEndpoint)
	assert.Equal(t, map[int]int64{200: 1, 429: 1, 502: 1}, s.ByStatus)
	assert.InDelta(t, 20.0, s.AvgMs, 1e-9)
	assert.InDelta(t, 30.0, s.MaxMs, 1e-9)
}

func TestSnapshot_P95NeedsMoreThanTwentySamples(t *testing.T) {
	c := metrics.New()
	for i := 1; i <= 10; i++ {
		c.Record("/x", 200, time.Duration(i)*time.Millisecond)
	}
	assert.Zero(t, c.Snapshot().P95Ms)

	for i := 11; i <= 20; i++ {
		c.Record("/x", 200, time.Duration(i)*time.Millisecond)
	}
	assert.Zero(t, c.Snapshot().P95Ms, "exactly 20 samples")
}

func TestSnapshot_P95Index(t *testing.T) {
	c := metrics.New()
	// Recorded out of order: 25, 24, ..., 1 ms.
	for i := 25; i >= 1; i-- {
		c.Record("/x", 200, time.Duration(i)*time.Millisecond)
	}
	// floor(0.95 * 25) = 23 -> the 24th smallest value.
	assert.InDelta(t, 24.0, c.Snapshot().P95Ms, 1e-9)
}

func TestRecord_RingKeepsMostRecent(t *testing.T) {
	c := metrics.New()
	for i := 0; i < metrics.DefaultCapacity; i++ {
		c.Record("/x", 200, 1000*time.Millisecond)
	}
	for i := 0; i < metrics.DefaultCapacity; i++ {
		c.Record("/x", 200, time.Millisecond)
	}
	s := c.Snapshot()
	assert.Equal(t, metrics.DefaultCapacity, s.Samples)
	assert.EqualValues(t, 2*metrics.DefaultCapacity, s.Total)
	assert.InDelta(t, 1.0, s.MaxMs, 1e-9, "old durations evicted")
}

func TestSnapshot_Uptime(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	c := metrics.New(metrics.WithClock(clock))
	mu.Lock()
	now = now.Add(90 * time.Second)
	mu.Unlock()
	assert.InDelta(t, 90.0, c.Snapshot().UptimeSeconds, 1e-9)
}

func TestRecord_Concurrent(t *testing.T) {
	c := metrics.New(metrics.WithCapacity(50))
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				c.Record("/c", 200, time.Millisecond)
				if i%100 == 0 {
					c.Snapshot()
				}
			}
		}()
	}
	wg.Wait()
	s := c.Snapshot()
	assert.EqualValues(t, 4000, s.Total)
	assert.Equal(t, 50, s.Samples)
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	c := metrics.New()
	r := chi.NewRouter()
	r.Use(metrics.Middleware(c))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, p := range []string{"/items/1", "/items/2", "/nowhere"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}

	s := c.Snapshot()
	require.EqualValues(t, 3, s.Total)
	assert.EqualValues(t, 2, s.ByEndpoint["/items/{id}"])
	assert.EqualValues(t, 1, s.ByEndpoint["unmatched"])
	assert.EqualValues(t, 2, s.ByStatus[http.StatusAccepted])
	assert.EqualValues(t, 1, s.ByStatus[http.StatusNotFound])
	assert.EqualValues(t, 1, s.Errors)
}

func TestMiddleware_PanicsCountAsServerErrors(t *testing.T) {
	boom := func(w http.ResponseWriter, r *http.Request) { panic("boom") }

	// Recovered below the collector: the recoverer's 500 is what gets counted.
	c := metrics.New()
	r := chi.NewRouter()
	r.Use(metrics.Middleware(c))
	r.Use(middleware.Recoverer)
	r.Get("/boom", boom)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	s := c.Snapshot()
	assert.EqualValues(t, 1, s.ByStatus[http.StatusInternalServerError])
	assert.EqualValues(t, 1, s.Errors)

	// Unrecovered: counted as 500 and the panic still propagates.
	c = metrics.New()
	r = chi.NewRouter()
	r.Use(metrics.Middleware(c))
	r.Get("/boom", boom)
	assert.Panics(t, func() {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	s = c.Snapshot()
	assert.EqualValues(t, 1, s.ByStatus[http.StatusInternalServerError])
	assert.Zero(t, s.ByStatus[http.StatusOK])
}
