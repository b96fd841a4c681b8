package type_system_test

import (
	"context"
	"reflect"
	"regexp"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/matchgridgo/internal/registry"
	"github.com/vk/matchgridgo/internal/testutil"
)

// The parity check understands collection types too: a manifest asking for
// list(string) over a Go []int field must fail startup.
func TestStartupValidation_ListElementMismatch_Fails(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifestHCL := `
		runner "match_launcher" {
			lifecycle { on_run = "OnRunLaunch" }
			input "bots" {
				type = list(string) // Manifest wants a list of strings
			}
		}
	`
	type mismatchInput struct {
		Bots []int `mggo:"bots"`
	}
	mockModule := &testutil.SimpleModule{
		RunnerName: "OnRunLaunch",
		Runner: &registry.RegisteredRunner{
			NewInput:  func() any { return new(mismatchInput) },
			InputType: reflect.TypeOf(mismatchInput{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn:        func(context.Context, any, any) (any, error) { return nil, nil },
		},
	}

	files := map[string]string{
		"modules/match_launcher/manifest.hcl": manifestHCL,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.Error(t, result.Err, "startup should have rejected the mismatched list type")
	errStr := result.Err.Error()

	expectedErrPattern := `(?s).*type mismatch.*Manifest requires 'list of string'.*Go field 'Bots' implies 'list of number'`
	require.Regexp(t, regexp.MustCompile(expectedErrPattern), errStr, "The error message did not match the expected pattern")
}

// A grid's bot launch strings arrive in the handler exactly as written,
// one list element per bot.
func TestCoreExecution_BotList_Success(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifestHCL := `
		runner "match_launcher" {
			lifecycle { on_run = "OnRunLaunch" }
			input "bots" { type = list(string) }
		}
	`
	gridHCL := `
		step "match_launcher" "selfplay" {
			arguments {
				bots = [
					"RUST_BACKTRACE=1 ./target/release/my_bot",
					"RUST_BACKTRACE=1 ./target/release/my_bot",
				]
			}
		}
	`
	files := map[string]string{
		"modules/match_launcher/manifest.hcl": manifestHCL,
		"grid.hcl":                            gridHCL,
	}

	type botsInput struct {
		Bots []string `mggo:"bots"`
	}
	var capturedInput botsInput
	var mu sync.Mutex
	mockModule := &testutil.SimpleModule{
		RunnerName: "OnRunLaunch",
		Runner: &registry.RegisteredRunner{
			NewInput:  func() any { return new(botsInput) },
			InputType: reflect.TypeOf(botsInput{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn: func(_ context.Context, _ any, input any) (any, error) {
				mu.Lock()
				capturedInput = *input.(*botsInput)
				mu.Unlock()
				return nil, nil
			},
		},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.NoError(t, result.Err, "Run failed unexpectedly")

	expected := botsInput{
		Bots: []string{
			"RUST_BACKTRACE=1 ./target/release/my_bot",
			"RUST_BACKTRACE=1 ./target/release/my_bot",
		},
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(expected, capturedInput); diff != "" {
		t.Errorf("Captured bot list mismatch (-want +got):\n%s", diff)
	}
}

// map(string) inputs decode into Go maps, the natural shape for the
// environment a bot process should inherit.
func TestCoreExecution_EnvMap_Success(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifestHCL := `
		runner "match_launcher" {
			lifecycle { on_run = "OnRunEnv" }
			input "env" { type = map(string) }
		}
	`
	gridHCL := `
		step "match_launcher" "ranked" {
			arguments {
				env = {
					"RUST_BACKTRACE" = "1"
					"RUST_LOG"       = "debug"
				}
			}
		}
	`
	files := map[string]string{
		"modules/match_launcher/manifest.hcl": manifestHCL,
		"grid.hcl":                            gridHCL,
	}

	type envInput struct {
		Env map[string]string `mggo:"env"`
	}
	var capturedInput envInput
	var mu sync.Mutex
	mockModule := &testutil.SimpleModule{
		RunnerName: "OnRunEnv",
		Runner: &registry.RegisteredRunner{
			NewInput:  func() any { return new(envInput) },
			InputType: reflect.TypeOf(envInput{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn: func(_ context.Context, _ any, input any) (any, error) {
				mu.Lock()
				capturedInput = *input.(*envInput)
				mu.Unlock()
				return nil, nil
			},
		},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.NoError(t, result.Err, "Run failed unexpectedly")

	expected := envInput{
		Env: map[string]string{
			"RUST_BACKTRACE": "1",
			"RUST_LOG":       "debug",
		},
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(expected, capturedInput); diff != "" {
		t.Errorf("Captured env map mismatch (-want +got):\n%s", diff)
	}
}

// One bad element poisons the whole list: a string among the seeds fails
// the run during argument decoding.
func TestErrorHandling_BadSeedInList_FailsRun(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifestHCL := `
		runner "match_launcher" {
			lifecycle { on_run = "OnRunSeeds" }
			input "seeds" { type = list(number) }
		}
	`
	gridHCL := `
		step "match_launcher" "seeded" {
			arguments {
				seeds = [1001, 1002, "not-a-seed"]
			}
		}
	`
	files := map[string]string{
		"modules/match_launcher/manifest.hcl": manifestHCL,
		"grid.hcl":                            gridHCL,
	}

	type seedsInput struct {
		Seeds []int `mggo:"seeds"`
	}
	mockModule := &testutil.SimpleModule{
		RunnerName: "OnRunSeeds",
		Runner: &registry.RegisteredRunner{
			NewInput:  func() any { return new(seedsInput) },
			InputType: reflect.TypeOf(seedsInput{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn:        func(context.Context, any, any) (any, error) { return nil, nil },
		},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, mockModule)

	// --- Assert ---
	require.Error(t, result.Err, "Run should have failed")
	errStr := result.Err.Error()

	require.Contains(t, errStr, "a number is required")
}
