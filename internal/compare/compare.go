// Package compare fans a route request out across travel modes and picks the
// lowest-emission option among the modes that succeeded.
package compare

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/derickschaefer/ecowise/internal/model"
	"github.com/derickschaefer/ecowise/internal/provider"
	"github.com/derickschaefer/ecowise/internal/util"
)

// MsgNoRoutes is the failure message when every mode failed.
const MsgNoRoutes = "could not calculate any routes"

// Planner plans a single-mode route.
type Planner interface {
	Plan(ctx context.Context, origin, destination string, mode model.TravelMode) provider.Outcome[model.RouteLeg]
}

// Comparator runs one planner call per mode, concurrently.
type Comparator struct {
	planner     Planner
	concurrency int
	logger      *slog.Logger
}

// New creates a Comparator. concurrency bounds in-flight planner calls; zero
// or negative means one call per requested mode.
func New(p Planner, concurrency int, logger *slog.Logger) *Comparator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparator{planner: p, concurrency: concurrency, logger: logger}
}

type result struct {
	index   int
	outcome provider.Outcome[model.RouteLeg]
}

// Compare plans every mode and returns the successful legs in request order,
// the lowest-CO2 mode (first wins on ties) and the max-min CO2 spread.
//
// Every position is planned, so a repeated mode yields one leg per
// occurrence. Failed modes are logged and listed in Dropped. When ctx ends early, unfinished modes are abandoned and the legs
// that already completed are used.
func (c *Comparator) Compare(ctx context.Context, origin, destination string, modes []model.TravelMode) provider.Outcome[model.RouteComparison] {
	if perr := validateModes(modes); perr != nil {
		return provider.Failure[model.RouteComparison](perr)
	}

	bound := c.concurrency
	if bound <= 0 || bound > len(modes) {
		bound = len(modes)
	}
	sem := semaphore.NewWeighted(int64(bound))
	results := make(chan result, len(modes))

	for i, mode := range modes {
		go func() {
			if err := sem.Acquire(ctx, 1); err != nil {
				results <- result{i, provider.Failure[model.RouteLeg](provider.ClassifyTransport(err))}
				return
			}
			defer sem.Release(1)
			results <- result{i, c.planner.Plan(ctx, origin, destination, mode)}
		}()
	}

	outcomes := make([]*provider.Outcome[model.RouteLeg], len(modes))
	collected := 0
collect:
	for collected < len(modes) {
		select {
		case r := <-results:
			outcomes[r.index] = &r.outcome
			collected++
		case <-ctx.Done():
			break collect
		}
	}
	// Keep whatever finished between the deadline and now.
drain:
	for collected < len(modes) {
		select {
		case r := <-results:
			outcomes[r.index] = &r.outcome
			collected++
		default:
			break drain
		}
	}

	cmp := model.RouteComparison{Origin: origin, Destination: destination}
	for i, mode := range modes {
		out := outcomes[i]
		switch {
		case out == nil:
			c.logger.Warn("route mode abandoned", "mode", mode, "error", ctx.Err())
			cmp.Dropped = append(cmp.Dropped, fmt.Sprintf("%s: abandoned", mode))
		case !out.OK():
			c.logger.Warn("route mode failed", "mode", mode, "kind", out.Err().Kind, "error", out.Err().Message)
			cmp.Dropped = append(cmp.Dropped, fmt.Sprintf("%s: %s", mode, out.Err().Message))
		default:
			cmp.Legs = append(cmp.Legs, out.Value())
		}
	}

	if len(cmp.Legs) == 0 {
		return provider.Failure[model.RouteComparison](provider.Errorf(provider.KindProviderError, MsgNoRoutes))
	}
	cmp.RecommendedMode, cmp.SavingsCO2Kg = Recommend(cmp.Legs)
	return provider.Success(cmp)
}

// Recommend returns the arg-min CO2 mode (first occurrence on ties) and the
// difference between the highest and lowest CO2, rounded to 2 decimals.
// legs must not be empty.
func Recommend(legs []model.RouteLeg) (model.TravelMode, float64) {
	best, worst := legs[0], legs[0]
	for _, l := range legs[1:] {
		if l.CO2Kg < best.CO2Kg {
			best = l
		}
		if l.CO2Kg > worst.CO2Kg {
			worst = l
		}
	}
	return best.Mode, util.Round(worst.CO2Kg-best.CO2Kg, 2)
}

func validateModes(modes []model.TravelMode) *provider.Error {
	if len(modes) == 0 {
		return provider.InvalidArgument("at least one travel mode is required")
	}
	for _, m := range modes {
		if !m.Valid() {
			return provider.InvalidArgument("invalid mode %q: must be one of driving, transit, walking, bicycling", m)
		}
	}
	return nil
}
