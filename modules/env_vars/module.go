// Package env_vars snapshots the process environment, so grids can thread
// values like RUST_BACKTRACE or tool paths into other steps.
package env_vars

import (
	"context"
	"os"
	"reflect"
	"strings"

	"github.com/vk/matchgridgo/internal/registry"
)

// Module wires the env_vars runner into the engine registry.
type Module struct{}

// Deps is empty; reading the environment needs no resources.
type Deps struct{}

// Output carries the full environment as a single map output.
type Output struct {
	All map[string]string `cty:"all"`
}

// OnRunEnvVars handles the 'env_vars' runner's on_run event.
func OnRunEnvVars(ctx context.Context, deps *Deps, input any) (*Output, error) {
	all := make(map[string]string)
	for _, kv := range os.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok {
			all[name] = value
		}
	}

	return &Output{All: all}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunEnvVars", &registry.RegisteredRunner{
		NewInput:  func() any { return new(struct{}) }, // no 'arguments' block
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunEnvVars,
	})
}
