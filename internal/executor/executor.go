// Package executor runs a built dependency graph. A fixed pool of workers
// drains a ready-channel of nodes whose dependencies are all done; a node
// failure cancels the run, skips everything downstream, and still destroys
// every resource that was created.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/matchgridgo/internal/config"
	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/dag"
	"github.com/vk/matchgridgo/internal/registry"
)

// defaultNumWorkers is used when the caller does not specify a pool size.
const defaultNumWorkers = 10

// Executor orchestrates the concurrent execution of a dependency graph.
type Executor struct {
	Graph *dag.Graph

	wg                sync.WaitGroup
	resourceInstances sync.Map
	cleanupStack      []func()
	cleanupMutex      sync.Mutex
	registry          *registry.Registry
	converter         config.Converter
	numWorkers        int
}

// New creates an executor for the given graph. A numWorkers value of zero or
// less selects the default pool size.
func New(graph *dag.Graph, numWorkers int, reg *registry.Registry, converter config.Converter) *Executor {
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}
	return &Executor{
		Graph:      graph,
		registry:   reg,
		converter:  converter,
		numWorkers: numWorkers,
	}
}

// Run executes the entire graph concurrently and returns an error if any node
// fails. It respects the cancellation signal from the provided context, and
// always unwinds the resource cleanup stack before returning.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	defer e.executeCleanupStack(ctx)

	readyChan := make(chan *dag.Node, len(e.Graph.Nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Initializing executor, finding root nodes...")
	rootNodeCount := 0
	for _, node := range e.Graph.Nodes {
		if node.DepCount() == 0 {
			logger.Debug("Found root node.", "nodeID", node.ID)
			readyChan <- node
			rootNodeCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootNodeCount)

	e.wg.Add(len(e.Graph.Nodes))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	logger.Debug("Waiting for all nodes to complete...")
	e.wg.Wait()
	logger.Debug("All nodes completed.")
	close(readyChan)

	var failedNodes []string
	var rootCauseError error
	for _, node := range e.Graph.Nodes {
		if node.GetState() == dag.Failed {
			logger.Error("Node failed execution.", "nodeID", node.ID, "error", node.Error)
			// A "skipped" error is a symptom, not a cause.
			if node.Error != nil && !strings.HasPrefix(node.Error.Error(), "skipped") && !errors.Is(node.Error, context.Canceled) {
				failedNodes = append(failedNodes, node.ID)
				if rootCauseError == nil {
					rootCauseError = node.Error
				}
			}
		}
	}

	if rootCauseError != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failedNodes, ", "), rootCauseError)
	}

	return nil
}

// skipDependents recursively marks all downstream nodes as failed and
// releases their WaitGroup slots.
func (e *Executor) skipDependents(ctx context.Context, node *dag.Node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range node.Dependents {
		if dependent.Skip(fmt.Errorf("skipped due to upstream failure of '%s'", node.ID), &e.wg) {
			logger.Warn("Skipping dependent node due to upstream failure.", "nodeID", dependent.ID, "dependency", node.ID)
			e.skipDependents(ctx, dependent)
		}
	}
}
