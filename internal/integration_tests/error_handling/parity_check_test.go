package integration_tests

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/matchgridgo/internal/registry"
	"github.com/vk/matchgridgo/internal/testutil"
)

type driftedArenaModule struct{}

// The Go side knows about replay_dir; the manifest instead declares map_seed.
// Neither side matches the other, so startup validation must report both.
func (m *driftedArenaModule) Register(r *registry.Registry) {
	type arenaInput struct {
		ReplayDir string `mggo:"replay_dir"`
	}
	r.RegisterRunner("OnRunDriftedArena", &registry.RegisteredRunner{
		NewInput:  func() any { return new(arenaInput) },
		InputType: reflect.TypeOf(arenaInput{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn:        func() {},
	})
}

// TestStartupValidation_ManifestImplementationMismatch_Fails validates that the
// app refuses to start when a manifest and its Go struct have drifted apart.
func TestStartupValidation_ManifestImplementationMismatch_Fails(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	driftedManifest := `
		runner "drifted_arena" {
			lifecycle {
				on_run = "OnRunDriftedArena"
			}
			input "map_seed" {
				type = string
			}
		}
	`
	files := map[string]string{
		"modules/drifted_arena/manifest.hcl": driftedManifest,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, &driftedArenaModule{})

	// --- Assert ---
	require.Error(t, result.Err, "startup should have failed on the drifted manifest")
	errStr := result.Err.Error()

	expectedGoError := "Go struct has field for input 'replay_dir' which is not declared in manifest"
	require.True(t, strings.Contains(errStr, expectedGoError))

	expectedHclError := "manifest declares input 'map_seed' which is not found in Go struct"
	require.True(t, strings.Contains(errStr, expectedHclError))
}
