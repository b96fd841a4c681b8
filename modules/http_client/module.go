// Package http_client provides a shared *http.Client as a managed asset,
// so every step in a grid reuses one connection pool.
package http_client

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/vk/matchgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for creating an http_client resource.
type Input struct {
	Timeout string `mggo:"timeout"`
}

// CreateHttpClient is the 'create' handler for the asset. It returns a live
// *http.Client that will be shared across steps.
func CreateHttpClient(ctx context.Context, input *Input) (*http.Client, error) {
	timeout, err := time.ParseDuration(input.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", input.Timeout, err)
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return client, nil
}

// DestroyHttpClient is the 'destroy' handler. For an http.Client, closing
// idle connections is all the teardown there is.
func DestroyHttpClient(client *http.Client) error {
	client.CloseIdleConnections()
	return nil
}

// Register registers the asset handlers and interface with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAssetHandler("CreateHttpClient", &registry.RegisteredAsset{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		CreateFn:  CreateHttpClient,
	})
	r.RegisterAssetHandler("DestroyHttpClient", &registry.RegisteredAsset{
		DestroyFn: DestroyHttpClient,
	})
	r.RegisterAssetInterface("http_client", reflect.TypeOf((*http.Client)(nil)))
}
