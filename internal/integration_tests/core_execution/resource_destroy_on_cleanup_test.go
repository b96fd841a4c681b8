package integration_tests

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/matchgridgo/internal/registry"
	"github.com/vk/matchgridgo/internal/testutil"
)

// mockReplayDirModule registers a replay-directory asset whose Destroy handler
// counts its invocations, plus a recorder runner that holds the handle.
type mockReplayDirModule struct {
	destroyCalls *atomic.Int32
}

func (m *mockReplayDirModule) Register(r *registry.Registry) {
	r.RegisterAssetHandler("CreateReplayDir", &registry.RegisteredAsset{
		NewInput: func() any { return new(struct{}) },
		CreateFn: func(context.Context, any) (any, error) {
			return "replays/", nil
		},
	})
	r.RegisterAssetHandler("DestroyReplayDir", &registry.RegisteredAsset{
		DestroyFn: func(any) error {
			m.destroyCalls.Add(1)
			return nil
		},
	})

	type recorderDeps struct {
		Dir any `mggo:"dir"`
	}
	r.RegisterRunner("OnRunRecorder", &registry.RegisteredRunner{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(recorderDeps) },
		Fn:        func(context.Context, any, any) (any, error) { return nil, nil },
	})
}

// TestCoreExecution_ResourceDestroyOnCleanup validates that a resource's
// Destroy handler runs exactly once during cleanup after the grid finishes.
func TestCoreExecution_ResourceDestroyOnCleanup(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	assetManifestHCL := `
		asset "replay_dir" {
			lifecycle {
				create = "CreateReplayDir"
				destroy = "DestroyReplayDir"
			}
		}
	`
	runnerManifestHCL := `
		runner "recorder" {
			lifecycle { on_run = "OnRunRecorder" }
			uses "dir" {
				asset_type = "replay_dir"
			}
		}
	`
	gridHCL := `
		resource "replay_dir" "main" {}

		step "recorder" "game" {
			uses {
				dir = resource.replay_dir.main
			}
		}
	`
	files := map[string]string{
		"modules/replay_dir/manifest.hcl": assetManifestHCL,
		"modules/recorder/manifest.hcl":   runnerManifestHCL,
		"main.hcl":                        gridHCL,
	}

	var destroyCalls atomic.Int32
	mockModule := &mockReplayDirModule{destroyCalls: &destroyCalls}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.NoError(t, result.Err, "app.Run() returned an unexpected error")

	finalCallCount := destroyCalls.Load()
	require.Equal(t, int32(1), finalCallCount, "expected the Destroy handler to run once, got %d", finalCallCount)
}
