// Package replay_upload pushes a replay artifact to a pre-signed URL with
// a single PUT, the way S3-style object stores expect.
package replay_upload

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"reflect"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	SourcePath string `mggo:"source_path"`
	UploadURL  string `mggo:"upload_url"`
}

// Deps defines the injected resources from the 'uses' HCL block.
type Deps struct {
	Client *http.Client `mggo:"client"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	Status  string `cty:"status"`
	Success bool   `cty:"success"`
}

// OnRunReplayUpload is the handler for the 'replay_upload' runner's on_run
// lifecycle event.
func OnRunReplayUpload(ctx context.Context, deps *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("runner", "replay_upload")

	if deps.Client == nil {
		return nil, fmt.Errorf("http client dependency was not injected")
	}

	file, err := os.Open(input.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file %q: %w", input.SourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat source file %q: %w", input.SourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, input.UploadURL, file)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(input.SourcePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("⬆️ Uploading replay.", "source", input.SourcePath, "size", stat.Size(), "contentType", contentType)

	resp, err := deps.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upload rejected with status %s", resp.Status)
	}

	logger.Info("✅ Replay uploaded.", "status", resp.Status)
	return &Output{Status: resp.Status, Success: true}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunReplayUpload", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunReplayUpload,
	})
}
