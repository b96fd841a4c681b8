package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/dag"
)

// runResourceNode handles the creation of a stateful resource.
func (e *Executor) runResourceNode(ctx context.Context, node *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("resource", node.ID)
	logger.Info("▶️ Creating resource")

	assetType := node.ResourceConfig.AssetType
	assetDef, ok := e.registry.AssetDefs[assetType]
	if !ok {
		return fmt.Errorf("unknown asset type '%s'", assetType)
	}
	if assetDef.Lifecycle == nil {
		return fmt.Errorf("asset type '%s' declares no lifecycle handlers", assetType)
	}
	createHandlerName := assetDef.Lifecycle.Create
	destroyHandlerName := assetDef.Lifecycle.Destroy

	assetHandler, ok := e.registry.AssetHandlers[createHandlerName]
	if !ok || assetHandler.CreateFn == nil {
		return fmt.Errorf("create handler '%s' not registered", createHandlerName)
	}
	destroyHandler, ok := e.registry.AssetHandlers[destroyHandlerName]
	if !ok || destroyHandler.DestroyFn == nil {
		return fmt.Errorf("destroy handler '%s' not registered", destroyHandlerName)
	}

	evalCtx := e.buildEvalContext(ctx, node)

	runCtx, cancel, err := e.applyNodeTimeout(ctx, evalCtx, node.ResourceConfig.Timeout, node.ID)
	if err != nil {
		return err
	}
	defer cancel()

	logger.Debug("Decoding resource arguments.")
	var inputStruct any
	if assetHandler.NewInput != nil {
		inputStruct = assetHandler.NewInput()
	}
	if inputStruct != nil {
		err := e.converter.DecodeBody(runCtx, inputStruct, node.ResourceConfig.Arguments, assetDef.Inputs, evalCtx)
		if err != nil {
			return fmt.Errorf("failed to decode arguments for resource %s: %w", node.ID, err)
		}
	}

	logger.Debug("Calling resource create handler.", "handler", createHandlerName)
	handlerFunc := reflect.ValueOf(assetHandler.CreateFn)
	callArgs := []reflect.Value{reflect.ValueOf(runCtx)}
	if inputStruct == nil {
		callArgs = append(callArgs, reflect.Zero(handlerFunc.Type().In(1)))
	} else {
		callArgs = append(callArgs, reflect.ValueOf(inputStruct))
	}
	results := handlerFunc.Call(callArgs)
	resourceObj, errResult := results[0].Interface(), results[1].Interface()
	if errResult != nil {
		return e.wrapTimeoutError(ctx, runCtx, node.ID, errResult.(error))
	}

	node.Output = resourceObj
	e.resourceInstances.Store(node.ID, resourceObj)
	e.pushCleanup(func() {
		e.destroyResource(context.WithoutCancel(ctx), node)
	})

	logger.Info("✅ Resource created")
	return nil
}
