package directions_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/ecowise/internal/model"
	"github.com/derickschaefer/ecowise/internal/provider"
	"github.com/derickschaefer/ecowise/internal/provider/directions"
)

func routeBody(meters, seconds float64) string {
	return fmt.Sprintf(`{
  "status": "OK",
  "routes": [{
    "overview_polyline": {"points": "a~l~Fjk~uOwHJy@P"},
    "legs": [{
      "distance": {"text": "12.3 km", "value": %g},
      "duration": {"text": "31 mins", "value": %g},
      "start_address": "Origin St",
      "end_address": "Destination Ave"
    }]
  }]
}`, meters, seconds)
}

func stub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPlan_NormalizesFirstLeg(t *testing.T) {
	var q map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/directions/json", r.URL.Path)
		v := r.URL.Query()
		q = map[string]string{"origin": v.Get("origin"), "destination": v.Get("destination"), "mode": v.Get("mode"), "key": v.Get("key")}
		w.Write([]byte(routeBody(12345, 1830)))
	}))
	defer srv.Close()

	c := directions.NewClient(directions.Options{APIKey: "gk", BaseURL: srv.URL})
	leg, err := c.Plan(context.Background(), "A town", "B city", model.ModeDriving).Get()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"origin": "A town", "destination": "B city", "mode": "driving", "key": "gk"}, q)
	assert.Equal(t, model.RouteLeg{
		Mode:         model.ModeDriving,
		DistanceKm:   12.35,
		DurationMin:  30.5,
		CO2Kg:        2.111,
		StartAddress: "Origin St",
		EndAddress:   "Destination Ave",
		Polyline:     "a~l~Fjk~uOwHJy@P",
	}, leg)
}

func TestPlan_CO2FollowsModeFactor(t *testing.T) {
	srv := stub(t, routeBody(8000, 600))
	c := directions.NewClient(directions.Options{APIKey: "gk", BaseURL: srv.URL})

	for _, mode := range model.TravelModes {
		leg, err := c.Plan(context.Background(), "a", "b", mode).Get()
		require.NoError(t, err)
		want := directions.DefaultEmissionFactors.CO2For(mode, 8)
		assert.InDelta(t, want, leg.CO2Kg, 1e-9, "mode %s", mode)
		if mode == model.ModeWalking || mode == model.ModeBicycling {
			assert.Zero(t, leg.CO2Kg)
		}
	}
}

func TestPlan_InvalidModeIsLocal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := directions.NewClient(directions.Options{APIKey: "gk", BaseURL: srv.URL})
	out := c.Plan(context.Background(), "a", "b", "teleport")
	require.False(t, out.OK())
	assert.Equal(t, provider.KindInvalidArgument, out.Err().Kind)
	assert.Zero(t, hits.Load())
}

func TestPlan_VendorStatuses(t *testing.T) {
	for status, msg := range directions.StatusMessages {
		t.Run(status, func(t *testing.T) {
			srv := stub(t, fmt.Sprintf(`{"status": %q, "routes": []}`, status))
			c := directions.NewClient(directions.Options{APIKey: "gk", BaseURL: srv.URL})
			out := c.Plan(context.Background(), "a", "b", model.ModeTransit)
			require.False(t, out.OK())
			assert.Equal(t, provider.KindProviderError, out.Err().Kind)
			assert.Equal(t, msg, out.Err().Message)
		})
	}
}

func TestPlan_UnknownVendorStatus(t *testing.T) {
	srv := stub(t, `{"status": "SOMETHING_NEW"}`)
	c := directions.NewClient(directions.Options{APIKey: "gk", BaseURL: srv.URL})
	out := c.Plan(context.Background(), "a", "b", model.ModeWalking)
	require.False(t, out.OK())
	assert.Equal(t, provider.KindProviderError, out.Err().Kind)
	assert.Equal(t, "API error: SOMETHING_NEW", out.Err().Message)
}

func TestPlan_Malformed(t *testing.T) {
	bodies := map[string]string{
		"no status":   `{"routes": []}`,
		"no routes":   `{"status": "OK", "routes": []}`,
		"no legs":     `{"status": "OK", "routes": [{"legs": []}]}`,
		"no distance": `{"status": "OK", "routes": [{"legs": [{"duration": {"value": 60}}]}]}`,
		"no duration": `{"status": "OK", "routes": [{"legs": [{"distance": {"value": 60}}]}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := stub(t, body)
			c := directions.NewClient(directions.Options{APIKey: "gk", BaseURL: srv.URL})
			out := c.Plan(context.Background(), "a", "b", model.ModeDriving)
			require.False(t, out.OK())
			assert.Equal(t, provider.KindMalformedResponse, out.Err().Kind)
		})
	}
}

func TestPlan_HTTP429IsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"status": "OK"}`))
	}))
	defer srv.Close()

	c := directions.NewClient(directions.Options{APIKey: "gk", BaseURL: srv.URL})
	out := c.Plan(context.Background(), "a", "b", model.ModeDriving)
	require.False(t, out.OK())
	assert.Equal(t, provider.KindRateLimited, out.Err().Kind)
}

func TestStatusMessage_Fallback(t *testing.T) {
	assert.Equal(t, "Unknown error occurred", directions.StatusMessage("UNKNOWN_ERROR"))
	assert.Equal(t, "API error: WHO_KNOWS", directions.StatusMessage("WHO_KNOWS"))
}
