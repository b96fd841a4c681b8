package registry

import (
	"reflect"

	"github.com/vk/matchgridgo/internal/config"
)

// Module is implemented by every compiled-in module; Register is its hook
// for contributing handlers to the registry at startup.
type Module interface {
	Register(r *Registry)
}

// Registry is the per-app collection of everything modules contribute:
// runner and asset handlers keyed by lifecycle name, manifest definitions
// keyed by type, and the Go interfaces asset instances must satisfy.
type Registry struct {
	Runners         map[string]*RegisteredRunner
	AssetHandlers   map[string]*RegisteredAsset
	RunnerDefs      map[string]*config.RunnerDefinition
	AssetDefs       map[string]*config.AssetDefinition
	AssetInterfaces map[string]reflect.Type
}

// New returns an empty Registry ready for module registration.
func New() *Registry {
	return &Registry{
		Runners:         make(map[string]*RegisteredRunner),
		AssetHandlers:   make(map[string]*RegisteredAsset),
		RunnerDefs:      make(map[string]*config.RunnerDefinition),
		AssetDefs:       make(map[string]*config.AssetDefinition),
		AssetInterfaces: make(map[string]reflect.Type),
	}
}

// PopulateDefinitionsFromModel copies the manifest definitions from a loaded
// model into the registry, where validation and the executor look them up.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) {
	for key, val := range model.Runners {
		r.RunnerDefs[key] = val
	}
	for key, val := range model.Assets {
		r.AssetDefs[key] = val
	}
}
