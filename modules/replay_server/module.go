// Package replay_server hosts the replay directory over HTTP so finished
// matches can be reviewed while the grid is still running.
package replay_server

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/pkg/browser"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/registry"
	"github.com/vk/matchgridgo/internal/replayview"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the replay_server runner.
type Input struct {
	Directory   string `mggo:"directory"`
	Duration    string `mggo:"duration"`
	OpenBrowser bool   `mggo:"open_browser"`
}

// Deps is an empty struct because this runner does not use any resources.
type Deps struct{}

// Output defines the data structure returned by the runner.
type Output struct {
	URL         string `cty:"url"`
	ReplaysSeen int    `cty:"replays_seen"`
}

// OnRunReplayServer is the handler for the 'replay_server' runner's on_run
// lifecycle event. It serves until the configured duration elapses; a
// duration of 0 serves until the run is cancelled.
func OnRunReplayServer(ctx context.Context, deps *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("runner", "replay_server")

	duration, err := time.ParseDuration(input.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", input.Duration, err)
	}

	server, err := replayview.New(input.Directory)
	if err != nil {
		return nil, err
	}
	if err := server.Start(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = server.Close() }()

	url := server.URL()
	logger.Info("▶️ Serving replays.", "url", url, "duration", duration)

	if input.OpenBrowser {
		if err := browser.OpenURL(url); err != nil {
			logger.Warn("Could not open browser.", "url", url, "error", err)
		}
	}

	// A nil channel blocks forever, which is exactly what duration 0 means.
	var expired <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-expired:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	out := &Output{URL: url, ReplaysSeen: server.ReplaysSeen()}
	logger.Info("⏹️ Replay server stopped.", "replays_seen", out.ReplaysSeen)
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunReplayServer", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunReplayServer,
	})
}
