// Package model defines the canonical data types used throughout ecowise.
// These types are the single source of truth for normalized provider results,
// the derived route comparison, and the result envelope that every CLI
// command returns.
package model

import (
	"time"
)

// ─── Carbon ───────────────────────────────────────────────────────────────────

// ActivityKind identifies one of the supported carbon activities.
type ActivityKind string

const (
	ActivityCarTransport    ActivityKind = "transport_car"
	ActivityBusTransport    ActivityKind = "transport_bus"
	ActivityMeatDiet        ActivityKind = "diet_meat"
	ActivityGridElectricity ActivityKind = "energy_electricity"
)

// Unit is the measurement unit of a CarbonActivity magnitude.
type Unit string

const (
	UnitKm  Unit = "km"
	UnitKg  Unit = "kg"
	UnitKWh Unit = "kWh"
)

// ActivityKinds lists every supported activity kind in display order.
var ActivityKinds = []ActivityKind{
	ActivityCarTransport,
	ActivityBusTransport,
	ActivityMeatDiet,
	ActivityGridElectricity,
}

// ExpectedUnit returns the only unit accepted for kind.
// The second return value is false for unknown kinds.
func (k ActivityKind) ExpectedUnit() (Unit, bool) {
	switch k {
	case ActivityCarTransport, ActivityBusTransport:
		return UnitKm, true
	case ActivityMeatDiet:
		return UnitKg, true
	case ActivityGridElectricity:
		return UnitKWh, true
	default:
		return "", false
	}
}

// CarbonActivity is a single activity to be converted into emitted CO2.
type CarbonActivity struct {
	Kind      ActivityKind `json:"activity_type"`
	Magnitude float64      `json:"value"`
	Unit      Unit         `json:"unit"`
}

// CarbonEstimate is the normalized carbon-provider result.
type CarbonEstimate struct {
	CO2Kg      float64 `json:"co2_kg"`
	Confidence string  `json:"confidence"`
	DataSource string  `json:"data_source"`
}

// CarbonBatchItem is one line of a batch estimate: the activity and either
// its estimate or the failure message.
type CarbonBatchItem struct {
	Line     int             `json:"line"`
	Activity CarbonActivity  `json:"activity"`
	Estimate *CarbonEstimate `json:"estimate,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ─── Weather ──────────────────────────────────────────────────────────────────

// WeatherReading is the normalized weather-provider result.
// WindSpeed is in the provider's native unit (m/s for metric requests).
type WeatherReading struct {
	TemperatureC float64 `json:"temperature"`
	Condition    string  `json:"conditions"`
	Description  string  `json:"description"`
	HumidityPct  float64 `json:"humidity"`
	WindSpeed    float64 `json:"wind_speed"`
}

// WeatherReport pairs a reading with the advisories derived from it.
type WeatherReport struct {
	WeatherReading
	Advisories []string `json:"advisories"`
}

// ─── Routes ───────────────────────────────────────────────────────────────────

// TravelMode is a directions travel mode.
type TravelMode string

const (
	ModeDriving   TravelMode = "driving"
	ModeTransit   TravelMode = "transit"
	ModeWalking   TravelMode = "walking"
	ModeBicycling TravelMode = "bicycling"
)

// TravelModes lists every supported mode in the default comparison order.
var TravelModes = []TravelMode{ModeDriving, ModeTransit, ModeWalking, ModeBicycling}

// Valid reports whether m is one of the supported travel modes.
func (m TravelMode) Valid() bool {
	switch m {
	case ModeDriving, ModeTransit, ModeWalking, ModeBicycling:
		return true
	}
	return false
}

// RouteLeg is one mode's routing result. CO2Kg is derived locally from the
// distance and the mode's emission factor; the vendor never reports it.
type RouteLeg struct {
	Mode         TravelMode `json:"mode"`
	DistanceKm   float64    `json:"distance_km"`
	DurationMin  float64    `json:"duration_min"`
	CO2Kg        float64    `json:"co2_kg"`
	StartAddress string     `json:"start_address"`
	EndAddress   string     `json:"end_address"`
	Polyline     string     `json:"route_polyline"`
}

// RouteComparison aggregates the successful legs of a multi-mode request.
// Legs keep the order in which their modes were requested.
type RouteComparison struct {
	Origin          string     `json:"origin"`
	Destination     string     `json:"destination"`
	Legs            []RouteLeg `json:"legs"`
	RecommendedMode TravelMode `json:"recommended_mode"`
	SavingsCO2Kg    float64    `json:"savings_co2_kg"`
	// Dropped lists "mode: message" for every mode that failed.
	Dropped []string `json:"dropped,omitempty"`
}

// Recommended returns the leg for the recommended mode.
func (c RouteComparison) Recommended() (RouteLeg, bool) {
	for _, l := range c.Legs {
		if l.Mode == c.RecommendedMode {
			return l, true
		}
	}
	return RouteLeg{}, false
}

// ─── Provider Health ──────────────────────────────────────────────────────────

// ProviderStatus is the probe result for a single provider.
type ProviderStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"` // ok | fail
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// ProviderHealth is the result of probing every provider once.
type ProviderHealth struct {
	Providers []ProviderStatus `json:"providers"`
	CheckedAt time.Time        `json:"checked_at"`
}

// Healthy reports whether every probed provider answered successfully.
func (h ProviderHealth) Healthy() bool {
	for _, p := range h.Providers {
		if p.Status != "ok" {
			return false
		}
	}
	return true
}

// ─── Journal ──────────────────────────────────────────────────────────────────

// Journal entry kinds.
const (
	EntryCarbon = "carbon"
	EntryRoute  = "route"
)

// JournalEntry is one saved CLI result in the local activity journal.
type JournalEntry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`  // carbon | route
	Label     string    `json:"label"` // e.g. "transport_car 12 km" or "A -> B (walking)"
	CO2Kg     float64   `json:"co2_kg"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DailySummary aggregates journal entries for one UTC day and kind.
type DailySummary struct {
	Day        string  `json:"day"` // YYYY-MM-DD
	Kind       string  `json:"kind"`
	Entries    int     `json:"entries"`
	TotalCO2Kg float64 `json:"total_co2_kg"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries timing metadata for a command result.
type ResultStats struct {
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindCarbonEstimate  = "carbon_estimate"
	KindCarbonBatch     = "carbon_batch"
	KindWeatherReport   = "weather_report"
	KindRouteComparison = "route_comparison"
	KindProviderHealth  = "provider_health"
	KindJournal         = "journal"
	KindJournalSummary  = "journal_summary"
)
