// Command dredgebot is a small Halite III bot meant as a stable sparring
// partner for match grids. Every ship runs the collector behavior tree;
// there is no fleet coordination beyond first-come cell claims.
//
// Stdout belongs to the engine protocol, so the bot logs to a bot-<id>.log
// file in its working directory.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/matchgridgo/internal/bt"
	"github.com/vk/matchgridgo/internal/hlt"
)

const botName = "dredgebot"

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", botName, err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer) error {
	game, err := hlt.New(in, out)
	if err != nil {
		return fmt.Errorf("failed to read init frame: %w", err)
	}

	logger, closeLog, err := newLogger(game.MyID)
	if err != nil {
		return err
	}
	defer closeLog()

	state := newGameState(game, logger)
	trees := make(map[hlt.ShipID]bt.Node[*gameState])

	if err := game.Ready(botName); err != nil {
		return fmt.Errorf("failed to signal readiness: %w", err)
	}
	logger.Info("🚀 Bot initialized.",
		"player_id", int(game.MyID),
		"map_width", game.Map.Width,
		"map_height", game.Map.Height,
	)

	for {
		if err := game.UpdateFrame(); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				logger.Info("🏁 Engine closed the stream, shutting down.")
				return nil
			}
			return err
		}

		state.beginTurn()

		alive := make(map[hlt.ShipID]bool, len(game.Me().ShipIDs))
		for _, id := range game.Me().ShipIDs {
			alive[id] = true
			node, ok := trees[id]
			if !ok {
				node = collector(id)
				trees[id] = node
			}
			node.Tick(state)
		}
		for id := range trees {
			if !alive[id] {
				logger.Debug("💥 Ship lost.", "ship_id", int(id))
				delete(trees, id)
			}
		}

		if state.shouldSpawn() {
			state.commands = append(state.commands, hlt.SpawnShip())
		}

		if err := game.EndTurn(state.commands); err != nil {
			return fmt.Errorf("failed to send commands: %w", err)
		}
	}
}

func newLogger(id hlt.PlayerID) (*slog.Logger, func(), error) {
	f, err := os.Create(fmt.Sprintf("bot-%d.log", id))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bot log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = f.Close() }, nil
}
