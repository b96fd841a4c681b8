// Package halite_match runs one match under the external halite engine.
// Bot launch strings are passed to the engine verbatim; the engine spawns
// and supervises the bot processes itself. A non-zero engine exit becomes
// an error carrying that exit code.
package halite_match

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/registry"
	"github.com/vk/matchgridgo/internal/subproc"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the halite_match runner.
type Input struct {
	Engine          string   `mggo:"engine"`
	Width           int      `mggo:"width"`
	Height          int      `mggo:"height"`
	Verbosity       int      `mggo:"verbosity"`
	ReplayDirectory string   `mggo:"replay_directory"`
	Bots            []string `mggo:"bots"`
	Seed            int      `mggo:"seed"`
	ResultsJSON     bool     `mggo:"results_json"`
	ExtraArgs       []string `mggo:"extra_args"`
}

// Deps is an empty struct because this runner does not use any resources.
type Deps struct{}

// Output defines the data structure returned by the runner.
type Output struct {
	MatchID    string `cty:"match_id"`
	Replay     string `cty:"replay"`
	Winner     int    `cty:"winner"`
	Results    string `cty:"results"`
	DurationMs int64  `cty:"duration_ms"`
}

// engineResults is the slice of the engine's --results-as-json document we
// read: the replay it wrote and each player's final rank.
type engineResults struct {
	Replay string `json:"replay"`
	Stats  map[string]struct {
		Rank  int   `json:"rank"`
		Score int64 `json:"score"`
	} `json:"stats"`
}

// OnRunHaliteMatch is the handler for the 'halite_match' runner's on_run
// lifecycle event.
func OnRunHaliteMatch(ctx context.Context, deps *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("runner", "halite_match")

	if len(input.Bots) < 2 {
		return nil, fmt.Errorf("halite_match needs at least 2 bots, got %d", len(input.Bots))
	}

	args := buildArgs(input)
	matchID := uuid.NewString()
	logger.Info("🎮 Starting match.",
		"match_id", matchID,
		"engine", input.Engine,
		"bots", len(input.Bots),
		"size", fmt.Sprintf("%dx%d", input.Width, input.Height),
	)

	start := time.Now()
	cmd := subproc.Command{
		Path:   input.Engine,
		Args:   args,
		Stderr: os.Stderr,
	}
	if !input.ResultsJSON {
		// Nothing to parse, so the engine's chatter streams straight through.
		cmd.Stdout = os.Stdout
	}

	result, err := subproc.Run(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("match %s failed: %w", matchID, err)
	}

	out := &Output{
		MatchID:    matchID,
		Winner:     -1,
		DurationMs: result.Duration.Milliseconds(),
	}

	if input.ResultsJSON {
		if parsed, ok := parseResults(result.Stdout); ok {
			out.Results = strings.TrimSpace(result.Stdout)
			out.Replay = parsed.Replay
			out.Winner = winnerIndex(parsed)
		} else {
			logger.Warn("Engine exited cleanly but its results document could not be parsed.")
		}
	}
	if out.Replay == "" {
		out.Replay = newestReplay(input.ReplayDirectory, start)
	}

	logger.Info("🏆 Match finished.",
		"match_id", matchID,
		"winner", out.Winner,
		"replay", out.Replay,
		"duration", result.Duration,
	)
	return out, nil
}

// buildArgs assembles the engine argv: engine flags first, then any extra
// flags, then the bot launch strings as the trailing positional arguments.
func buildArgs(input *Input) []string {
	args := []string{"--replay-directory", input.ReplayDirectory}
	if input.Verbosity > 0 {
		args = append(args, "-"+strings.Repeat("v", input.Verbosity))
	}
	args = append(args,
		"--width", strconv.Itoa(input.Width),
		"--height", strconv.Itoa(input.Height),
	)
	if input.Seed != 0 {
		args = append(args, "--seed", strconv.Itoa(input.Seed))
	}
	if input.ResultsJSON {
		args = append(args, "--results-as-json")
	}
	args = append(args, input.ExtraArgs...)
	args = append(args, input.Bots...)
	return args
}

// parseResults extracts the results document from the engine's stdout. The
// document is usually the whole stream, but log lines may surround it, so
// each line is tried as a fallback.
func parseResults(stdout string) (engineResults, bool) {
	var parsed engineResults
	trimmed := strings.TrimSpace(stdout)
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && len(parsed.Stats) > 0 {
		return parsed, true
	}
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		if err := json.Unmarshal([]byte(line), &parsed); err == nil && len(parsed.Stats) > 0 {
			return parsed, true
		}
	}
	return engineResults{}, false
}

// winnerIndex returns the player index that finished rank 1, -1 when the
// stats are unusable.
func winnerIndex(results engineResults) int {
	for player, stat := range results.Stats {
		if stat.Rank != 1 {
			continue
		}
		idx, err := strconv.Atoi(player)
		if err != nil {
			return -1
		}
		return idx
	}
	return -1
}

// newestReplay returns the most recent replay file in dir, preferring files
// written after the match started. Purely best-effort: any problem reading
// the directory yields an empty path.
func newestReplay(dir string, since time.Time) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hlt") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(since.Truncate(time.Second)) {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	return newest
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunHaliteMatch", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunHaliteMatch,
	})
}
