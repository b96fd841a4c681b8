package executor

import (
	"context"
	"reflect"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/dag"
)

// pushCleanup records a cleanup function to be run when the executor finishes.
// Functions run in LIFO order so resources unwind in reverse creation order.
func (e *Executor) pushCleanup(f func()) {
	e.cleanupMutex.Lock()
	defer e.cleanupMutex.Unlock()
	e.cleanupStack = append(e.cleanupStack, f)
}

// executeCleanupStack unwinds the cleanup stack. It is called exactly once,
// deferred from Run, and also covers resources whose consumers never ran.
func (e *Executor) executeCleanupStack(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	e.cleanupMutex.Lock()
	stack := e.cleanupStack
	e.cleanupStack = nil
	e.cleanupMutex.Unlock()

	logger.Debug("Executing cleanup stack.", "size", len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i]()
	}
}

// destroyResource tears down a created resource exactly once, whether it is
// reached by the early-destruction path (all consumers done) or the final
// cleanup stack.
func (e *Executor) destroyResource(ctx context.Context, node *dag.Node) {
	logger := ctxlog.FromContext(ctx).With("resource", node.ID)
	node.Destroy(func() {
		instance, found := e.resourceInstances.Load(node.ID)
		if !found {
			logger.Debug("Resource was never created, nothing to destroy.")
			return
		}

		assetDef, ok := e.registry.AssetDefs[node.ResourceConfig.AssetType]
		if !ok || assetDef.Lifecycle == nil {
			logger.Error("Cannot destroy resource: asset definition missing.", "assetType", node.ResourceConfig.AssetType)
			return
		}
		handler, ok := e.registry.AssetHandlers[assetDef.Lifecycle.Destroy]
		if !ok || handler.DestroyFn == nil {
			logger.Error("Cannot destroy resource: destroy handler not registered.", "handler", assetDef.Lifecycle.Destroy)
			return
		}

		logger.Info("🔥 Destroying resource")
		results := reflect.ValueOf(handler.DestroyFn).Call([]reflect.Value{reflect.ValueOf(instance)})
		if errResult := results[0].Interface(); errResult != nil {
			logger.Error("Resource destroy handler failed.", "error", errResult.(error))
		}
		e.resourceInstances.Delete(node.ID)
	})
}
