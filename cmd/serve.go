package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/ecowise/internal/metrics"
	"github.com/derickschaefer/ecowise/internal/ratelimit"
	"github.com/derickschaefer/ecowise/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ecowise JSON HTTP API",
	Long: `Run the ecowise HTTP API until interrupted (Ctrl-C or SIGTERM).

Endpoints:
  GET  /health                          liveness
  GET  /health/apis                     probe every provider once
  GET  /metrics                         request counters and latency
  POST /api/carbon/calculate            {"activity_type","value","unit"}
  GET  /api/weather/recommendations     ?lat=..&lon=..
  POST /api/transport/route-optimize    {"origin","destination","modes"}

Every client address may make rate_limit requests per rate_window
(default 60 per 60s); further requests get 429 with Retry-After.

A provider whose key is missing still serves; its endpoint answers
502 with kind "unauthorized".`,
	Example: `  ecowise serve
  ecowise serve --listen 127.0.0.1:9000 --log-format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDepsAt(slog.LevelInfo)
		if err != nil {
			return err
		}
		cfg := deps.Config
		if err := cfg.Require(); err != nil {
			deps.Logger.Warn("starting with missing provider keys", "error", err)
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(deps.Service,
			ratelimit.New(cfg.RateLimit, cfg.RateWindow),
			metrics.New(),
			server.Options{
				Addr:           cfg.ListenAddr,
				RequestTimeout: cfg.RequestTimeout,
				TrustProxy:     cfg.TrustProxy,
				Version:        Version,
			},
			deps.Logger)
		return srv.ListenAndServe(ctx)
	},
}

// commandContext returns cmd's context, or Background when the command was
// invoked without one (as in tests calling RunE directly).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
