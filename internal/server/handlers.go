package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/derickschaefer/ecowise/internal/provider"
	"github.com/derickschaefer/ecowise/internal/service"
)

// ─── Request Bodies ───────────────────────────────────────────────────────────

type carbonRequest struct {
	ActivityType string  `json:"activity_type"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
}

type routeRequest struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Modes       []string `json:"modes"`
}

// errorBody is the JSON shape of every failure response.
type errorBody struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind"`
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": s.opts.Version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	h := s.svc.ProbeProviders(r.Context())
	status := http.StatusOK
	if !h.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

func (s *Server) handleCarbon(w http.ResponseWriter, r *http.Request) {
	var req carbonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	est, err := s.svc.EstimateCarbon(r.Context(), req.ActivityType, req.Value, req.Unit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, provider.InvalidArgument("lat and lon query parameters must be numbers"))
		return
	}
	report, err := s.svc.Weather(r.Context(), lat, lon)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cmp, err := s.svc.CompareRoutes(r.Context(), req.Origin, req.Destination, req.Modes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, provider.InvalidArgument("invalid JSON body: %v", err))
		return false
	}
	return true
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch service.ClassOf(err) {
	case service.ClassNone:
		return http.StatusOK
	case service.ClassClient:
		return http.StatusBadRequest
	case service.ClassThrottled:
		return http.StatusTooManyRequests
	}
	var perr *provider.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case provider.KindTimeout:
			return http.StatusGatewayTimeout
		case provider.KindRateLimited:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Detail: err.Error(), Kind: provider.KindUnknown.String()}
	var perr *provider.Error
	if errors.As(err, &perr) {
		body = errorBody{Detail: perr.Message, Kind: perr.Kind.String()}
	}
	writeJSON(w, StatusFor(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
