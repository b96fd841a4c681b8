package testutil

import (
	"reflect"

	"github.com/vk/matchgridgo/internal/registry"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single runner and, optionally, asset handlers.
type SimpleModule struct {
	RunnerName string
	Runner     *registry.RegisteredRunner

	// Assets maps handler names to asset handlers, letting one module carry
	// a create/destroy pair.
	Assets map[string]*registry.RegisteredAsset

	// AssetInterfaces maps asset types to the Go interface their instances
	// must satisfy.
	AssetInterfaces map[string]reflect.Type
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.RunnerName != "" && m.Runner != nil {
		r.RegisterRunner(m.RunnerName, m.Runner)
	}
	for name, asset := range m.Assets {
		r.RegisterAssetHandler(name, asset)
	}
	for assetType, iface := range m.AssetInterfaces {
		r.RegisterAssetInterface(assetType, iface)
	}
}
