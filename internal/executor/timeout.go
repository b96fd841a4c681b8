package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty/gocty"
)

// applyNodeTimeout evaluates a node's optional timeout expression and derives
// a deadline context from it. A nil expression returns the parent context
// unchanged with a no-op cancel.
func (e *Executor) applyNodeTimeout(ctx context.Context, evalCtx *hcl.EvalContext, expr hcl.Expression, nodeID string) (context.Context, context.CancelFunc, error) {
	if expr == nil {
		return ctx, func() {}, nil
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("failed to evaluate timeout for %s: %w", nodeID, diags)
	}
	var raw string
	if err := gocty.FromCtyValue(val, &raw); err != nil {
		return nil, nil, fmt.Errorf("timeout for %s must be a duration string: %w", nodeID, err)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timeout %q for %s: %w", raw, nodeID, err)
	}
	if d <= 0 {
		return nil, nil, fmt.Errorf("timeout for %s must be positive, got %s", nodeID, d)
	}

	runCtx, cancel := context.WithTimeout(ctx, d)
	return runCtx, cancel, nil
}

// wrapTimeoutError distinguishes a node's own deadline from an inherited
// cancellation so the failure reads as a timeout, not a generic abort.
func (e *Executor) wrapTimeoutError(parent, runCtx context.Context, nodeID string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) &&
		errors.Is(runCtx.Err(), context.DeadlineExceeded) &&
		parent.Err() == nil {
		return fmt.Errorf("node %s timed out: %w", nodeID, err)
	}
	return err
}
