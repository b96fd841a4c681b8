package integration_tests

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/matchgridgo/internal/registry"
	"github.com/vk/matchgridgo/internal/testutil"
)

// mockStopwatchModule registers a runner that records when each step ran.
type mockStopwatchModule struct {
	executionTimes map[string]time.Time
	mu             sync.Mutex
}

func (m *mockStopwatchModule) Register(r *registry.Registry) {
	type stopwatchInput struct {
		Name string `mggo:"name"`
	}
	r.RegisterRunner("OnRunStopwatch", &registry.RegisteredRunner{
		NewInput:  func() any { return new(stopwatchInput) },
		InputType: reflect.TypeOf(stopwatchInput{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(ctx context.Context, deps any, input any) (any, error) {
			instanceName := input.(*stopwatchInput).Name
			m.mu.Lock()
			m.executionTimes[instanceName] = time.Now()
			m.mu.Unlock()
			return nil, nil
		},
	})
}

// A ranked match declares depends_on = [the warmup] without consuming any of
// its outputs. The bare edge alone must force the ordering.
func TestHclFeatures_ExplicitDependency(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifestHCL := `
		runner "stopwatch" {
		  lifecycle {
		    on_run = "OnRunStopwatch"
		  }
		  input "name" {
		    type = string
		  }
		}
	`
	gridHCL := `
		step "stopwatch" "warmup" {
			arguments {
				name = "warmup"
			}
		}

		step "stopwatch" "ranked" {
			arguments {
				name = "ranked"
			}
			depends_on = ["stopwatch.warmup"]
		}
	`
	files := map[string]string{
		"modules/stopwatch/manifest.hcl": manifestHCL,
		"main.hcl":                       gridHCL,
	}

	mockModule := &mockStopwatchModule{
		executionTimes: make(map[string]time.Time),
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.NoError(t, result.Err, "app.Run() returned an unexpected error")

	warmupAt, okWarmup := mockModule.executionTimes["warmup"]
	rankedAt, okRanked := mockModule.executionTimes["ranked"]
	require.True(t, okWarmup && okRanked, "expected both steps to have recorded their execution times")

	require.False(t, rankedAt.Before(warmupAt),
		"the ranked match ran before the warmup, but depends_on should have forced it to wait. warmup: %v, ranked: %v", warmupAt, rankedAt)
}
