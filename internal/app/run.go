package app

import (
	"context"
	"fmt"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/dag"
	"github.com/vk/matchgridgo/internal/executor"
)

// Run executes the main application logic: it builds the dependency graph
// from the loaded model and drives it to completion.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.startHealthcheckServer()
	defer func() {
		if err := a.closeHealthcheckServer(); err != nil {
			a.logger.Error("Failed to close health check server.", "error", err)
		}
	}()

	a.logger.Debug("Building dependency graph from config model...")
	graph, err := dag.Build(ctx, a.model, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", len(graph.Nodes))

	if len(graph.Nodes) == 0 {
		a.logger.Warn("No nodes found in graph, execution not required.")
		return nil
	}

	a.logger.Info("🚀 Starting concurrent execution...")
	exec := executor.New(graph, a.cfg.WorkerCount, a.registry, a.converter)
	if err := exec.Run(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")

	a.logger.Debug("App.Run method finished.")
	return nil
}
