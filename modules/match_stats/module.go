// Package match_stats aggregates the recorded match history into totals
// and per-bot win counts.
package match_stats

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/matchstore"
	"github.com/vk/matchgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Deps declares the resources injected into this runner.
type Deps struct {
	DB *matchstore.Store `mggo:"db"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	Total int            `cty:"total"`
	Wins  map[string]int `cty:"wins"`
}

// OnRunMatchStats is the handler for the 'match_stats' runner's on_run
// lifecycle event.
func OnRunMatchStats(ctx context.Context, deps *Deps, input any) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("runner", "match_stats")

	if deps.DB == nil {
		return nil, fmt.Errorf("results_db dependency was not injected")
	}

	summary, err := deps.DB.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize match history: %w", err)
	}

	logger.Info("📊 History summarized.",
		"total", summary.Total,
		"bots_with_wins", len(summary.Wins),
	)
	return &Output{Total: summary.Total, Wins: summary.Wins}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunMatchStats", &registry.RegisteredRunner{
		NewInput:  func() any { return new(struct{}) }, // No 'arguments' block.
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunMatchStats,
	})
}
