package integration_tests

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/matchgridgo/internal/registry"
	"github.com/vk/matchgridgo/internal/testutil"
)

// TestHclFeatures_OptionalArgumentDefault_FromFile tests that manifest-declared
// defaults fill in arguments the step omits, for scalar and map inputs alike.
func TestHclFeatures_OptionalArgumentDefault_FromFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifestHCL := `
		runner "arena" {
		  lifecycle {
		    on_run = "OnRunArena"
		  }
		  input "bot" {
		    type = string
		  }
		  input "verbosity" {
		    type    = string
		    default = "-vvv"
		  }
		  input "dimensions" {
		    type    = map(string)
		    default = {
		      "width"  = "32"
		      "height" = "32"
		    }
		  }
		}
	`
	gridHCL := `
		step "arena" "selfplay" {
			arguments {
				bot = "./target/release/my_bot"
			}
		}
	`
	files := map[string]string{
		"modules/arena/manifest.hcl": manifestHCL,
		"main.hcl":                   gridHCL,
	}

	type arenaInput struct {
		Bot        string            `mggo:"bot"`
		Verbosity  string            `mggo:"verbosity"`
		Dimensions map[string]string `mggo:"dimensions"`
	}

	var capturedInput arenaInput
	var mu sync.Mutex

	mockModule := &testutil.SimpleModule{
		RunnerName: "OnRunArena",
		Runner: &registry.RegisteredRunner{
			NewInput:  func() any { return new(arenaInput) },
			InputType: reflect.TypeOf(arenaInput{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn: func(_ context.Context, _ any, inputRaw any) (any, error) {
				mu.Lock()
				capturedInput = *inputRaw.(*arenaInput)
				mu.Unlock()
				return nil, nil
			},
		},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.NoError(t, result.Err, "app.Run() returned an unexpected error")

	expectedInput := arenaInput{
		Bot:       "./target/release/my_bot",
		Verbosity: "-vvv",
		Dimensions: map[string]string{
			"width":  "32",
			"height": "32",
		},
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(expectedInput, capturedInput); diff != "" {
		t.Errorf("Captured input mismatch (-want +got):\n%s", diff)
	}
}
