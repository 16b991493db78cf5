// Package app wires together configuration, the provider clients, and other
// dependencies into a single Deps struct that commands receive at runtime.
package app

import (
	"log/slog"

	"github.com/derickschaefer/ecowise/internal/config"
	"github.com/derickschaefer/ecowise/internal/provider/climatiq"
	"github.com/derickschaefer/ecowise/internal/provider/directions"
	"github.com/derickschaefer/ecowise/internal/provider/openweather"
	"github.com/derickschaefer/ecowise/internal/service"
	"github.com/derickschaefer/ecowise/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// The journal store is opened lazily; only commands that read or write the
// journal pay for the file lock.
type Deps struct {
	Config  *config.Config
	Logger  *slog.Logger
	Service *service.Service

	store *store.Store
}

// New builds a Deps from resolved config.
func New(cfg *config.Config, logger *slog.Logger) *Deps {
	if logger == nil {
		logger = slog.Default()
	}
	carbon := climatiq.NewClient(climatiq.Options{
		APIKey:  cfg.ClimatiqAPIKey,
		BaseURL: cfg.ClimatiqBaseURL,
		Rate:    cfg.ProviderRate,
		Logger:  logger,
	})
	weather := openweather.NewClient(openweather.Options{
		APIKey:  cfg.OpenWeatherAPIKey,
		BaseURL: cfg.OpenWeatherBaseURL,
		Rate:    cfg.ProviderRate,
		Logger:  logger,
	})
	routes := directions.NewClient(directions.Options{
		APIKey:  cfg.DirectionsAPIKey,
		BaseURL: cfg.DirectionsBaseURL,
		Rate:    cfg.ProviderRate,
		Logger:  logger,
	})
	return &Deps{
		Config:  cfg,
		Logger:  logger,
		Service: service.New(carbon, weather, routes, cfg.Concurrency, logger),
	}
}

// Store opens the journal at Config.DBPath on first use.
func (d *Deps) Store() (*store.Store, error) {
	if d.store != nil {
		return d.store, nil
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return nil, err
	}
	d.store = s
	return s, nil
}

// Close releases the journal store if it was opened.
func (d *Deps) Close() error {
	if d.store == nil {
		return nil
	}
	err := d.store.Close()
	d.store = nil
	return err
}
