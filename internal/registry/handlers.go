package registry

import (
	"fmt"
	"log/slog"
	"reflect"
)

// RegisteredRunner holds the compiled Go parts of a runner's lifecycle function.
// InputType is the concrete struct type behind NewInput; the validator uses it
// to cross-check manifests against the code without instantiating anything.
type RegisteredRunner struct {
	NewInput  func() any
	NewDeps   func() any
	Fn        any
	InputType reflect.Type
}

// RegisterRunner binds a lifecycle name from a manifest to its Go
// implementation. Names are global across modules, so a duplicate
// registration is a programming error and panics.
func (r *Registry) RegisterRunner(name string, handler *RegisteredRunner) {
	if _, exists := r.Runners[name]; exists {
		panic(fmt.Sprintf("runner handler with name '%s' already registered", name))
	}
	slog.Debug("Registering runner handler.", "name", name)
	r.Runners[name] = handler
}

// RegisteredAsset holds Go functions for an asset's lifecycle.
type RegisteredAsset struct {
	NewInput  func() any
	CreateFn  any
	DestroyFn any
	InputType reflect.Type
}

// RegisterAssetHandler binds an asset's create/destroy pair under its
// lifecycle name.
func (r *Registry) RegisterAssetHandler(name string, handler *RegisteredAsset) {
	if _, exists := r.AssetHandlers[name]; exists {
		panic(fmt.Sprintf("asset handler with name '%s' already registered", name))
	}
	slog.Debug("Registering asset handler.", "name", name)
	r.AssetHandlers[name] = handler
}

// RegisterAssetInterface declares the Go interface a created asset instance
// must satisfy before the executor will inject it into a step's deps.
func (r *Registry) RegisterAssetInterface(assetType string, iface reflect.Type) {
	if _, exists := r.AssetInterfaces[assetType]; exists {
		panic(fmt.Sprintf("interface for asset type '%s' already registered", assetType))
	}
	slog.Debug("Registering asset interface.", "assetType", assetType, "interface", iface.String())
	r.AssetInterfaces[assetType] = iface
}
