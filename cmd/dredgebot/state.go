package main

import (
	"log/slog"
	"math/rand"

	"github.com/vk/matchgridgo/internal/hlt"
)

// gameState wraps the engine connection with per-turn bookkeeping: the
// commands queued so far and the cells already claimed by a move. Claims
// are the whole collision story, so two own ships never head for the same
// cell but no path planning happens.
type gameState struct {
	game   *hlt.Game
	logger *slog.Logger

	commands []hlt.Command
	claimed  map[hlt.Position]bool

	returnTrips int
	returnTurns int
}

func newGameState(game *hlt.Game, logger *slog.Logger) *gameState {
	return &gameState{
		game:    game,
		logger:  logger,
		claimed: make(map[hlt.Position]bool),
	}
}

func (s *gameState) beginTurn() {
	s.commands = s.commands[:0]
	clear(s.claimed)
}

func (s *gameState) me() *hlt.Player {
	return s.game.Me()
}

// ship returns the ship by ID. The turn loop only ticks trees for ships
// present in the current frame.
func (s *gameState) ship(id hlt.ShipID) *hlt.Ship {
	ship, _ := s.game.Ship(id)
	return ship
}

func (s *gameState) roundsLeft() int {
	return s.game.Constants.MaxTurns - s.game.TurnNumber
}

// isSafe reports whether a cell is free this turn: nobody parked there last
// frame and none of our ships has claimed it yet.
func (s *gameState) isSafe(p hlt.Position) bool {
	p = s.game.Map.Normalize(p)
	if s.claimed[p] {
		return false
	}
	return s.game.Map.At(p).Ship == nil
}

// moveShip queues a move unconditionally and claims the target cell.
func (s *gameState) moveShip(id hlt.ShipID, d hlt.Direction) {
	target := s.game.Map.Normalize(s.ship(id).Position.DirectionalOffset(d))
	s.claimed[target] = true
	s.commands = append(s.commands, hlt.Move(id, d))
}

// tryMoveShip queues the move only when the target cell is safe.
func (s *gameState) tryMoveShip(id hlt.ShipID, d hlt.Direction) bool {
	target := s.ship(id).Position.DirectionalOffset(d)
	if !s.isSafe(target) {
		return false
	}
	s.moveShip(id, d)
	return true
}

// moveShipOrWait queues the move when safe and otherwise keeps the ship on
// its cell, claiming it so nobody else heads there.
func (s *gameState) moveShipOrWait(id hlt.ShipID, d hlt.Direction) {
	if !s.tryMoveShip(id, d) {
		s.moveShip(id, hlt.Still)
	}
}

// nearestBase returns the closest own delivery point: the shipyard or any
// dropoff.
func (s *gameState) nearestBase(pos hlt.Position) hlt.Position {
	me := s.me()
	best := me.Shipyard.Position
	bestDist := s.game.Map.Distance(pos, best)
	for _, id := range me.DropoffIDs {
		dropoff := s.game.Dropoffs[id]
		if d := s.game.Map.Distance(pos, dropoff.Position); d < bestDist {
			best, bestDist = dropoff.Position, d
		}
	}
	return best
}

func (s *gameState) returnDistance(pos hlt.Position) int {
	return s.game.Map.Distance(pos, s.nearestBase(pos))
}

// returnDir is the preferred step toward the nearest base, Still when the
// ship is already on it.
func (s *gameState) returnDir(pos hlt.Position) hlt.Direction {
	moves := s.game.Map.DirectionsTo(pos, s.nearestBase(pos))
	if len(moves) == 0 {
		return hlt.Still
	}
	return moves[0]
}

// returnDirAlternative is a detour for when the preferred step is blocked:
// the other distance-reducing axis when there is one, otherwise a random
// sidestep perpendicular to the preferred direction.
func (s *gameState) returnDirAlternative(pos hlt.Position) hlt.Direction {
	moves := s.game.Map.DirectionsTo(pos, s.nearestBase(pos))
	if len(moves) > 1 {
		return moves[1]
	}

	var primary hlt.Direction
	if len(moves) == 1 {
		primary = moves[0]
	} else {
		primary = hlt.Still
	}

	sidesteps := map[hlt.Direction][]hlt.Direction{
		hlt.North: {hlt.East, hlt.West},
		hlt.South: {hlt.East, hlt.West},
		hlt.East:  {hlt.North, hlt.South},
		hlt.West:  {hlt.North, hlt.South},
		hlt.Still: hlt.Cardinals(),
	}[primary]
	return sidesteps[rand.Intn(len(sidesteps))]
}

// notifyReturn records a finished delivery trip for the turn log.
func (s *gameState) notifyReturn(turnsTaken int) {
	s.returnTrips++
	s.returnTurns += turnsTaken
	s.logger.Debug("📦 Cargo delivered.",
		"turns_taken", turnsTaken,
		"trips", s.returnTrips,
	)
}

// shouldSpawn decides whether to buy a ship this turn. Spawning stops at
// half time; before that it only needs the halite and a clear shipyard.
func (s *gameState) shouldSpawn() bool {
	if s.game.TurnNumber > s.game.Constants.MaxTurns/2 {
		return false
	}
	if s.me().Halite < s.game.Constants.ShipCost {
		return false
	}
	syp := s.me().Shipyard.Position
	return !s.claimed[syp] && s.game.Map.At(syp).Ship == nil
}
