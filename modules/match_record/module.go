// Package match_record persists one finished match into the results
// database, deriving per-bot ranks from the engine's results document.
package match_record

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/vk/matchgridgo/internal/ctxlog"
	"github.com/vk/matchgridgo/internal/matchstore"
	"github.com/vk/matchgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the match_record runner.
type Input struct {
	MatchID    string   `mggo:"match_id"`
	Width      int      `mggo:"width"`
	Height     int      `mggo:"height"`
	Seed       int      `mggo:"seed"`
	ReplayPath string   `mggo:"replay_path"`
	Results    string   `mggo:"results"`
	Bots       []string `mggo:"bots"`
}

// Deps declares the resources injected into this runner.
type Deps struct {
	DB *matchstore.Store `mggo:"db"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	Recorded bool `cty:"recorded"`
	// Winner is the launch string of the rank-1 bot, empty when unknown.
	Winner string `cty:"winner"`
}

// resultsDoc is the slice of the engine's results document we need here:
// the per-player final standings, keyed by player index.
type resultsDoc struct {
	Stats map[string]struct {
		Rank  int   `json:"rank"`
		Score int64 `json:"score"`
	} `json:"stats"`
}

// OnRunMatchRecord is the handler for the 'match_record' runner's on_run
// lifecycle event.
func OnRunMatchRecord(ctx context.Context, deps *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx).With("runner", "match_record")

	if deps.DB == nil {
		return nil, fmt.Errorf("results_db dependency was not injected")
	}

	match := matchstore.Match{
		ID:          input.MatchID,
		Width:       input.Width,
		Height:      input.Height,
		Seed:        int64(input.Seed),
		ReplayPath:  input.ReplayPath,
		ResultsJSON: input.Results,
	}

	winner := ""
	standings, err := parseStandings(input.Results)
	if err != nil {
		return nil, err
	}
	for position, command := range input.Bots {
		bot := matchstore.BotResult{Command: command}
		if stat, ok := standings[position]; ok {
			bot.Rank = stat.Rank
			bot.Score = stat.Score
			if stat.Rank == 1 {
				winner = command
			}
		}
		match.Bots = append(match.Bots, bot)
	}

	if err := deps.DB.RecordMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to record match %s: %w", input.MatchID, err)
	}

	logger.Info("💾 Match recorded.",
		"match_id", input.MatchID,
		"bots", len(match.Bots),
		"winner", winner,
	)
	return &Output{Recorded: true, Winner: winner}, nil
}

// parseStandings maps player index to final rank and score. An empty
// document is fine (ranks stay zero), a malformed one is an error.
func parseStandings(results string) (map[int]matchstore.BotResult, error) {
	standings := make(map[int]matchstore.BotResult)
	trimmed := strings.TrimSpace(results)
	if trimmed == "" {
		return standings, nil
	}

	var doc resultsDoc
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse results document: %w", err)
	}
	for player, stat := range doc.Stats {
		idx, err := strconv.Atoi(player)
		if err != nil {
			return nil, fmt.Errorf("results document has non-numeric player key %q", player)
		}
		standings[idx] = matchstore.BotResult{Rank: stat.Rank, Score: stat.Score}
	}
	return standings, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunMatchRecord", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunMatchRecord,
	})
}
