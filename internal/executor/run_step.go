package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/dag"
	"github.com/vk/matchgridgo/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// runStepNode handles the execution of a single, uncounted step node.
func (e *Executor) runStepNode(ctx context.Context, node *dag.Node) error {
	evalCtx := e.buildEvalContext(ctx, node)

	runCtx, cancel, err := e.applyNodeTimeout(ctx, evalCtx, node.StepConfig.Timeout, node.ID)
	if err != nil {
		return err
	}
	defer cancel()

	output, err := e.executeStepLogic(runCtx, node, evalCtx, node.ID)
	if err != nil {
		return e.wrapTimeoutError(ctx, runCtx, node.ID, err)
	}
	if output != nil {
		node.Output = output
	}
	return nil
}

// runInstancedStep evaluates a step's count and runs its instances
// sequentially inside this one node. The node's output is a tuple of the
// instance outputs, in index order.
func (e *Executor) runInstancedStep(ctx context.Context, node *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("step", node.ID)
	logger.Info("▶️ Expanding counted step")

	evalCtx := e.buildEvalContext(ctx, node)

	val, diags := node.StepConfig.Count.Value(evalCtx)
	if diags.HasErrors() {
		return fmt.Errorf("failed to evaluate count for %s: %w", node.ID, diags)
	}
	if val.Type() != cty.Number {
		return fmt.Errorf("count for step %s must be a number, but got %s", node.ID, val.Type().FriendlyName())
	}
	countBf, _ := val.AsBigFloat().Int64()
	count := int(countBf)
	if count < 0 {
		return fmt.Errorf("count for step %s cannot be negative, got %d", node.ID, count)
	}

	logger.Debug("Count resolved.", "count", count)
	if count == 0 {
		logger.Info("✅ Finished counted step (0 instances).")
		node.Output = cty.EmptyTupleVal
		return nil
	}

	runCtx, cancel, err := e.applyNodeTimeout(ctx, evalCtx, node.StepConfig.Timeout, node.ID)
	if err != nil {
		return err
	}
	defer cancel()

	outputs := make([]cty.Value, 0, count)
	for i := 0; i < count; i++ {
		instanceID := nodeid.InstanceID(node.ID, i)
		instanceEvalCtx := evalCtx.NewChild()
		instanceEvalCtx.Variables = map[string]cty.Value{
			"count": cty.ObjectVal(map[string]cty.Value{
				"index": cty.NumberIntVal(int64(i)),
			}),
		}

		output, err := e.executeStepLogic(runCtx, node, instanceEvalCtx, instanceID)
		if err != nil {
			return e.wrapTimeoutError(ctx, runCtx, instanceID, err)
		}
		if output == nil {
			outputs = append(outputs, cty.NullVal(cty.DynamicPseudoType))
			continue
		}
		outputs = append(outputs, output.(cty.Value))
	}

	node.Output = cty.TupleVal(outputs)
	logger.Info("✅ Finished counted step.", "instances", count)
	return nil
}

// executeStepLogic contains the shared logic for running a step's handler.
// It returns the handler's output as a cty.Value, or nil when the handler
// produced nothing.
func (e *Executor) executeStepLogic(ctx context.Context, node *dag.Node, evalCtx *hcl.EvalContext, instanceID string) (any, error) {
	logger := ctxlog.FromContext(ctx).With("step", instanceID)
	logger.Info("▶️ Starting step")

	runnerDef, ok := e.registry.RunnerDefs[node.StepConfig.RunnerType]
	if !ok {
		return nil, fmt.Errorf("unknown runner type '%s'", node.StepConfig.RunnerType)
	}
	if runnerDef.Lifecycle == nil || runnerDef.Lifecycle.OnRun == "" {
		return nil, fmt.Errorf("runner type '%s' declares no on_run handler", node.StepConfig.RunnerType)
	}
	handlerName := runnerDef.Lifecycle.OnRun
	registeredHandler, ok := e.registry.Runners[handlerName]
	if !ok {
		return nil, fmt.Errorf("handler '%s' not registered", handlerName)
	}

	var inputStruct any
	if registeredHandler.NewInput != nil {
		inputStruct = registeredHandler.NewInput()
	}
	if inputStruct != nil {
		err := e.converter.DecodeBody(ctx, inputStruct, node.StepConfig.Arguments, runnerDef.Inputs, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to decode arguments for step %s: %w", instanceID, err)
		}
	}
	logger.Debug("Step input decoded.", "data", formatValueForLogs(inputStruct))

	depsStruct, err := e.buildDepsStruct(ctx, node, registeredHandler)
	if err != nil {
		return nil, err
	}

	logger.Debug("Calling step run handler.", "handler", handlerName)
	handlerFunc := reflect.ValueOf(registeredHandler.Fn)
	callArgs := make([]reflect.Value, 0, 3)
	callArgs = append(callArgs, reflect.ValueOf(ctx))

	if depsStruct == nil {
		callArgs = append(callArgs, reflect.Zero(handlerFunc.Type().In(1)))
	} else {
		callArgs = append(callArgs, reflect.ValueOf(depsStruct))
	}
	if inputStruct == nil {
		callArgs = append(callArgs, reflect.Zero(handlerFunc.Type().In(2)))
	} else {
		callArgs = append(callArgs, reflect.ValueOf(inputStruct))
	}

	results := handlerFunc.Call(callArgs)
	nativeOutput, errResult := results[0].Interface(), results[1].Interface()
	if errResult != nil {
		return nil, errResult.(error)
	}

	ctyOutput, err := e.converter.ToCtyValue(nativeOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to convert handler output to cty.Value for step %s: %w", instanceID, err)
	}
	logger.Info("✅ Finished step")
	if ctyOutput == cty.NilVal {
		return nil, nil
	}
	return ctyOutput, nil
}
