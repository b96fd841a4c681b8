package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader reads configuration from disk and produces the model. One Loader
// exists per input format; it returns the Converter that knows how to bind
// the values it loaded.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter binds loaded configuration onto Go values at execution time.
type Converter interface {
	// DecodeBody evaluates a step's argument expressions against evalCtx,
	// applies manifest defaults and validations, and writes the results
	// into inputStruct.
	DecodeBody(
		ctx context.Context,
		inputStruct any,
		args map[string]hcl.Expression,
		defs map[string]*InputDefinition,
		evalCtx *hcl.EvalContext,
	) error

	// ToCtyValue lifts a handler's output value into a cty.Value so grids
	// can reference it in expressions.
	ToCtyValue(v any) (cty.Value, error)
}
