package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/matchgridgo/internal/testutil"
)

// A depends_on entry naming a step that does not exist must fail graph
// linking, before anything runs.
func TestErrorHandling_DependsOnUnknownStep(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifestHCL := `
		runner "consumer" {
			lifecycle { on_run = "NoOp" }
		}
	`
	gridHCL := `
		step "consumer" "one" {
			depends_on = ["builder.missing"]
		}
	`
	files := map[string]string{
		"modules/consumer.hcl": manifestHCL,
		"main.hcl":             gridHCL,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, &testutil.NoOpModule{})

	// --- Assert ---
	require.Error(t, result.Err, "expected the run to fail during graph linking")
	require.Contains(t, result.Err.Error(), "depends on non-existent identifier")
}

// An argument expression referencing a step that does not exist must fail
// graph linking. The reference is what matters, so the manifest deliberately
// declares no inputs; linking inspects the raw expressions.
func TestErrorHandling_ReferenceToUnknownStep(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifestHCL := `
		runner "consumer" {
			lifecycle { on_run = "NoOp" }
		}
	`
	gridHCL := `
		step "consumer" "one" {
			arguments {
				data = step.builder.missing.output
			}
		}
	`
	files := map[string]string{
		"modules/consumer.hcl": manifestHCL,
		"main.hcl":             gridHCL,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, &testutil.NoOpModule{})

	// --- Assert ---
	require.Error(t, result.Err, "expected the run to fail during graph linking")
	require.Contains(t, result.Err.Error(), "references non-existent step")
}

// A step cannot name itself in depends_on.
func TestErrorHandling_SelfDependency(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifestHCL := `
		runner "consumer" {
			lifecycle { on_run = "NoOp" }
		}
	`
	gridHCL := `
		step "consumer" "one" {
			depends_on = ["consumer.one"]
		}
	`
	files := map[string]string{
		"modules/consumer.hcl": manifestHCL,
		"main.hcl":             gridHCL,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, &testutil.NoOpModule{})

	// --- Assert ---
	require.Error(t, result.Err, "expected the run to fail during graph linking")
	require.Contains(t, result.Err.Error(), "cannot depend on itself")
}

// Referencing an output the producing runner's manifest never declares is
// caught at link time, not at evaluation time.
func TestErrorHandling_UndeclaredOutputReference(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sourceManifest := `
		runner "source" {
			lifecycle { on_run = "NoOp" }
			output "binary" {
				type = string
			}
		}
	`
	consumerManifest := `
		runner "consumer" {
			lifecycle { on_run = "NoOp" }
		}
	`
	gridHCL := `
		step "source" "build" {}

		step "consumer" "one" {
			arguments {
				data = step.source.build.output.checksum
			}
		}
	`
	files := map[string]string{
		"modules/source.hcl":   sourceManifest,
		"modules/consumer.hcl": consumerManifest,
		"main.hcl":             gridHCL,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, &testutil.NoOpModule{})

	// --- Assert ---
	require.Error(t, result.Err, "expected the run to fail during graph linking")
	require.Contains(t, result.Err.Error(), "undeclared output")
}
