package testutil

import (
	"context"
	"reflect"

	"github.com/vk/matchgridgo/internal/registry"
)

// NoOpModule provides a "NoOp" handler with no inputs, no deps, and no
// observable effect. Error-path tests register it so their manifests pass
// registry validation while the interesting failure happens elsewhere.
type NoOpModule struct{}

func (m *NoOpModule) Register(r *registry.Registry) {
	noop := &registry.RegisteredRunner{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(context.Context, any, any) (any, error) {
			return nil, nil
		},
	}
	r.RegisterRunner("NoOp", noop)
}
