// Package print writes a map of values to stdout for humans, typically the
// tail end of a grid surfacing match results or stats.
package print

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/registry"
)

// Module wires the print runner into the engine registry.
type Module struct{}

// Input is the arguments block: a string map to render.
type Input struct {
	Values map[string]string `mggo:"values"`
}

// Deps is empty; printing needs no resources.
type Deps struct{}

// OnRunPrint handles the 'print' runner's on_run event. Keys are printed in
// sorted order so output is stable across runs.
func OnRunPrint(ctx context.Context, deps *Deps, input *Input) (any, error) {
	ctxlog.FromContext(ctx).Info("🖨️ Printing values.", "count", len(input.Values))

	if input.Values == nil {
		fmt.Println("      (null)")
		return nil, nil
	}

	keys := make([]string, 0, len(input.Values))
	for k := range input.Values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("      %s = %q\n", k, input.Values[k])
	}

	return nil, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunPrint", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunPrint,
	})
}
