package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Grid structures ---

// StepArgs carries the raw body of an 'arguments' block. Expressions stay
// unevaluated until the executor binds them against live step outputs.
type StepArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// UsesBlock carries the raw body of a 'uses' block.
type UsesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Step is one `step` block from a grid file: a named invocation of a runner
// type, e.g. `step "halite_match" "selfplay"`.
type Step struct {
	RunnerType string         `hcl:"runner_type,label"`
	Name       string         `hcl:"instance_name,label"`
	Arguments  *StepArgs      `hcl:"arguments,block"`
	Uses       *UsesBlock     `hcl:"uses,block"`
	DependsOn  []string       `hcl:"depends_on,optional"`
	Count      hcl.Expression `hcl:"count,optional"`
	Timeout    hcl.Expression `hcl:"timeout,optional"`
}

// Resource is one `resource` block from a grid file: a managed, stateful
// instance of an asset type, e.g. `resource "results_db" "main"`.
type Resource struct {
	AssetType string         `hcl:"asset_type,label"`
	Name      string         `hcl:"instance_name,label"`
	Arguments *StepArgs      `hcl:"arguments,block"`
	DependsOn []string       `hcl:"depends_on,optional"`
	Timeout   hcl.Expression `hcl:"timeout,optional"`
}

// --- Module manifest schemas ---

// Lifecycle names the registered Go handler for a runner's single event.
type Lifecycle struct {
	OnRun string `hcl:"on_run,optional"`
}

// AssetLifecycle names the registered Go handlers for a resource's
// create/destroy pair.
type AssetLifecycle struct {
	Create  string `hcl:"create"`
	Destroy string `hcl:"destroy"`
}

// InputDefinition declares one input a runner or asset accepts: its name,
// type constraint expression, and optional default.
type InputDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}

// OutputDefinition declares one output value a runner or asset produces.
type OutputDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
}

// UsesDefinition declares an asset dependency a runner needs injected, with
// the local name its deps struct refers to it by.
type UsesDefinition struct {
	LocalName string `hcl:"local_name,label"`
	AssetType string `hcl:"asset_type"`
}

// RunnerDefinition is the HCL manifest of a `runner` type.
type RunnerDefinition struct {
	Type        string              `hcl:"type,label"`
	Description string              `hcl:"description,optional"`
	Lifecycle   *Lifecycle          `hcl:"lifecycle,block"`
	Inputs      []*InputDefinition  `hcl:"input,block"`
	Outputs     []*OutputDefinition `hcl:"output,block"`
	Uses        []*UsesDefinition   `hcl:"uses,block"`
}

// AssetDefinition is the HCL manifest of a stateful `asset` type.
type AssetDefinition struct {
	Type        string              `hcl:"type,label"`
	Description string              `hcl:"description,optional"`
	Lifecycle   *AssetLifecycle     `hcl:"lifecycle,block"`
	Inputs      []*InputDefinition  `hcl:"input,block"`
	Outputs     []*OutputDefinition `hcl:"output,block"`
}
