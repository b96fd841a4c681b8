// Package results_db exposes the SQLite match-history store as a managed
// asset, so recording and stats steps share one open database handle.
package results_db

import (
	"context"
	"reflect"

	"github.com/vk/matchgridgo/internal/matchstore"
	"github.com/vk/matchgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for opening a results_db resource.
type Input struct {
	Path string `mggo:"path"`
}

// CreateResultsDB is the 'create' handler. It opens the SQLite database at
// the configured path and applies the embedded migrations.
func CreateResultsDB(ctx context.Context, input *Input) (*matchstore.Store, error) {
	return matchstore.Open(ctx, input.Path)
}

// DestroyResultsDB is the 'destroy' handler.
func DestroyResultsDB(store *matchstore.Store) error {
	return store.Close()
}

// Register registers the asset handlers and interface with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAssetHandler("CreateResultsDB", &registry.RegisteredAsset{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		CreateFn:  CreateResultsDB,
	})
	r.RegisterAssetHandler("DestroyResultsDB", &registry.RegisteredAsset{
		DestroyFn: DestroyResultsDB,
	})
	r.RegisterAssetInterface("results_db", reflect.TypeOf((*matchstore.Store)(nil)))
}
