package integration_tests

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/matchgridgo/internal/subproc"
	"github.com/vk/matchgridgo/internal/testutil"
	"github.com/vk/matchgridgo/modules/cargo_build"
	"github.com/vk/matchgridgo/modules/halite_match"
)

// When the engine itself dies, its exit code is the run's root cause.
//
// Not parallel: the cargo stub is resolved through PATH via t.Setenv.
func TestMatchPipeline_EngineFailure_PropagatesExitCode(t *testing.T) {
	// --- Arrange ---
	stubDir := t.TempDir()
	botPath := filepath.Join(stubDir, "my_bot")
	stubCargo(t, stubDir, botPath)
	enginePath := stubEngine(t, stubDir, `echo 'Map seed exhausted the halite reserves' >&2
exit 7`)
	prependPath(t, stubDir)

	gridHCL := fmt.Sprintf(`
		step "cargo_build" "bot" {
			arguments {
				release = true
			}
		}

		step "halite_match" "selfplay" {
			arguments {
				engine = %q
				bots = [
					"RUST_BACKTRACE=1 ${step.cargo_build.bot.output.binary}",
					"RUST_BACKTRACE=1 ${step.cargo_build.bot.output.binary}",
				]
			}
		}
	`, enginePath)

	files := map[string]string{
		"modules/cargo_build/manifest.hcl":  realManifest(t, "cargo_build"),
		"modules/halite_match/manifest.hcl": realManifest(t, "halite_match"),
		"selfplay.hcl":                      gridHCL,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files,
		&cargo_build.Module{}, &halite_match.Module{})

	// --- Assert ---
	require.Error(t, result.Err, "the run should have failed with the engine")

	var exitErr *subproc.ExitError
	require.ErrorAs(t, result.Err, &exitErr)
	require.Equal(t, 7, exitErr.Code)
	require.Contains(t, exitErr.Stderr, "halite reserves")

	// The build itself succeeded before the engine failed.
	require.Equal(t, []string{"run"}, readLines(t, filepath.Join(stubDir, "cargo_invocations.txt")))
	testutil.AssertStepRan(t, result, "cargo_build", "bot")
}
