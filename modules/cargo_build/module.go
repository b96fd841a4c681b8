// Package cargo_build compiles a Rust crate through the cargo CLI and
// reports the path of the built executable.
package cargo_build

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/registry"
	"github.com/vk/matchgridgo/internal/subproc"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// cargo's JSON message stream is chatty on large builds; keep enough of the
// tail that the final compiler-artifact message always survives.
const stdoutCapture = 4 * 1024 * 1024

// Input defines the arguments for the cargo_build runner.
type Input struct {
	ManifestDir string `mggo:"manifest_dir"`
	Release     bool   `mggo:"release"`
	Bin         string `mggo:"bin"`
	TargetDir   string `mggo:"target_dir"`
}

// Deps is an empty struct because this runner does not use any resources.
type Deps struct{}

// Output defines the data structure returned by the runner.
type Output struct {
	Binary     string `cty:"binary"`
	Profile    string `cty:"profile"`
	DurationMs int64  `cty:"duration_ms"`
}

// artifactMessage is the slice of cargo's --message-format=json stream we
// care about: compiler-artifact messages carry the executable path.
type artifactMessage struct {
	Reason     string `json:"reason"`
	Executable string `json:"executable"`
}

// OnRunCargoBuild is the handler for the 'cargo_build' runner's on_run
// lifecycle event. A failing build returns an error carrying cargo's exit
// code, so nothing downstream runs and the process exits with that code.
func OnRunCargoBuild(ctx context.Context, deps *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("runner", "cargo_build")

	profile := "debug"
	args := []string{"build", "--message-format=json"}
	if input.Release {
		profile = "release"
		args = append(args, "--release")
	}
	if input.Bin != "" {
		args = append(args, "--bin", input.Bin)
	}
	var env []string
	if input.TargetDir != "" {
		env = append(env, "CARGO_TARGET_DIR="+input.TargetDir)
	}

	logger.Info("🔨 Building cargo project.", "dir", input.ManifestDir, "profile", profile)

	result, err := subproc.Run(ctx, subproc.Command{
		Path:       "cargo",
		Args:       args,
		Dir:        input.ManifestDir,
		Env:        env,
		Stderr:     os.Stderr,
		MaxCapture: stdoutCapture,
	})
	if err != nil {
		return nil, fmt.Errorf("cargo build failed: %w", err)
	}

	binary := parseExecutable(result.Stdout)
	if binary == "" {
		logger.Warn("Build finished but cargo reported no executable artifact.")
	}
	logger.Info("📦 Build finished.", "binary", binary, "duration", result.Duration)

	return &Output{
		Binary:     binary,
		Profile:    profile,
		DurationMs: result.Duration.Milliseconds(),
	}, nil
}

// parseExecutable returns the executable path of the last compiler-artifact
// message in the stream, empty when none was reported. Lines that are not
// valid JSON (including a line truncated by tail capture) are skipped.
func parseExecutable(stream string) string {
	var binary string
	scanner := bufio.NewScanner(strings.NewReader(stream))
	scanner.Buffer(make([]byte, 0, 64*1024), stdoutCapture)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var msg artifactMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue
		}
		if msg.Reason == "compiler-artifact" && msg.Executable != "" {
			binary = msg.Executable
		}
	}
	return binary
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunCargoBuild", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunCargoBuild,
	})
}
