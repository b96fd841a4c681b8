package testutil

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/vk/matchgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// RunDynamicCountTest drives a three-step graph for run-time count expansion:
// a planner emits the number of games to play, a counted game step expands to
// that many instances, and a tally step consumes the resulting tuple. The
// planner's output is whatever cty value the caller passes, so tests can feed
// it valid counts, zero, or garbage. Returns the harness result and the value
// the tally captured.
func RunDynamicCountTest(t *testing.T, countValue cty.Value) (*HarnessResult, cty.Value) {
	t.Helper()

	manifestsHCL := `
		runner "games_planner" {
			lifecycle { on_run = "OnRunGamesPlanner" }
			output "value" {
				type = any // 'any' so tests can feed non-numbers through
			}
		}

		runner "game" {
			lifecycle { on_run = "OnRunGame" }
			output "turns" {
				type = number
			}
		}

		runner "tally" {
			lifecycle { on_run = "OnRunTally" }
			input "games" {
				type = any
			}
		}
	`

	// The counted step's node output is the tuple of its instance outputs,
	// so the tally reads it directly off the step address.
	gridHCL := `
		step "games_planner" "plan" {
			arguments {}
		}

		step "game" "series" {
			count = step.games_planner.plan.output.value
		}

		step "tally" "standings" {
			arguments {
				games = step.game.series.output
			}
		}
	`
	files := map[string]string{
		"modules/manifests.hcl": manifestsHCL,
		"main.hcl":              gridHCL,
	}

	type plannerOutput struct {
		Value cty.Value `cty:"value"`
	}
	type gameOutput struct {
		Turns int `cty:"turns"`
	}
	type tallyInput struct {
		Games cty.Value `mggo:"games"`
	}

	var mu sync.Mutex
	talliedGames := cty.NilVal

	plannerModule := &SimpleModule{
		RunnerName: "OnRunGamesPlanner",
		Runner: &registry.RegisteredRunner{
			NewInput:  func() any { return new(struct{}) },
			InputType: reflect.TypeOf(struct{}{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn: func(ctx context.Context, deps, input any) (*plannerOutput, error) {
				return &plannerOutput{Value: countValue}, nil
			},
		},
	}

	gameModule := &SimpleModule{
		RunnerName: "OnRunGame",
		Runner: &registry.RegisteredRunner{
			NewInput:  func() any { return new(struct{}) },
			InputType: reflect.TypeOf(struct{}{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn: func(ctx context.Context, deps, input any) (*gameOutput, error) {
				return &gameOutput{Turns: 450}, nil
			},
		},
	}

	tallyModule := &SimpleModule{
		RunnerName: "OnRunTally",
		Runner: &registry.RegisteredRunner{
			NewInput:  func() any { return new(tallyInput) },
			InputType: reflect.TypeOf(tallyInput{}),
			NewDeps:   func() any { return new(struct{}) },
			Fn: func(ctx context.Context, deps any, inputRaw any) (any, error) {
				mu.Lock()
				talliedGames = inputRaw.(*tallyInput).Games
				mu.Unlock()
				return nil, nil
			},
		},
	}

	result := RunIntegrationTest(t, files, plannerModule, gameModule, tallyModule)

	mu.Lock()
	defer mu.Unlock()
	return result, talliedGames
}
