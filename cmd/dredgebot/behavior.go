package main

import (
	"github.com/vk/matchgridgo/internal/bt"
	"github.com/vk/matchgridgo/internal/hlt"
)

// Per-ship behavior trees. Each constructor builds the tree for one ship;
// the closures capture the ship ID and any state that survives between
// turns.

// greedy harvests around the ship's position. It stays put while the
// current cell is worth mining, steps to a clearly better neighbor when
// not, succeeds once the ship is full and fails when nothing nearby is
// worth the trip.
func greedy(id hlt.ShipID) bt.Node[*gameState] {
	const (
		preferStayFactor = 2
		harvestLimit     = 10
		seekLimit        = 50
	)
	return bt.Lambda(func(s *gameState) bt.Status {
		ship := s.ship(id)
		if ship.IsFull() {
			return bt.Success
		}

		pos, cargo := ship.Position, ship.Halite
		moveCost := s.game.Map.At(pos).Halite / s.game.Constants.MoveCostRatio
		if cargo < moveCost {
			s.moveShip(id, hlt.Still)
			return bt.Running
		}

		currentHalite := s.game.Map.At(pos).Halite
		if currentHalite >= seekLimit {
			s.moveShip(id, hlt.Still)
			return bt.Running
		}
		currentValue := currentHalite / s.game.Constants.ExtractRatio

		syp := s.me().Shipyard.Position
		best := hlt.Still
		bestValue := -1
		for _, d := range hlt.Cardinals() {
			p := s.game.Map.Normalize(pos.DirectionalOffset(d))
			halite := s.game.Map.At(p).Halite
			value := halite / s.game.Constants.ExtractRatio
			if halite < harvestLimit || p == syp || !s.isSafe(p) {
				continue
			}
			if value <= moveCost+currentValue*preferStayFactor {
				continue
			}
			if value > bestValue {
				best, bestValue = d, value
			}
		}
		if bestValue < 0 {
			return bt.Failure
		}

		s.moveShip(id, best)
		return bt.Running
	})
}

// deliver walks the ship back to the nearest base until its cargo is gone.
func deliver(id hlt.ShipID) bt.Node[*gameState] {
	turnsTaken := 0
	return bt.Lambda(func(s *gameState) bt.Status {
		if s.ship(id).Halite <= 0 {
			s.notifyReturn(turnsTaken)
			turnsTaken = 0
			return bt.Success
		}

		pos := s.ship(id).Position
		if !s.tryMoveShip(id, s.returnDir(pos)) {
			s.moveShipOrWait(id, s.returnDirAlternative(pos))
		}

		turnsTaken++
		return bt.Running
	})
}

// goHome heads for the nearest base and never yields. Stepping onto an own
// structure is forced even through traffic, since ships stacked on a base
// unload without colliding.
func goHome(id hlt.ShipID) bt.Node[*gameState] {
	return bt.Lambda(func(s *gameState) bt.Status {
		pos := s.ship(id).Position
		d := s.returnDir(pos)
		p := pos.DirectionalOffset(d)

		if s.game.Map.At(p).HasStructure {
			s.moveShip(id, d)
		} else if !s.tryMoveShip(id, d) {
			s.moveShipOrWait(id, s.returnDirAlternative(pos))
		}

		return bt.Running
	})
}

// findRes drifts toward richer ground when the current cell is too poor to
// mine, succeeding once the ship stands on a cell worth harvesting.
func findRes(id hlt.ShipID) bt.Node[*gameState] {
	const seekLimit = 50
	return bt.Lambda(func(s *gameState) bt.Status {
		pos := s.ship(id).Position
		if s.game.Map.At(pos).Halite >= seekLimit {
			return bt.Success
		}

		best := hlt.Still
		bestHalite := -1
		for _, d := range hlt.Options() {
			p := s.game.Map.Normalize(pos.DirectionalOffset(d))
			if !s.isSafe(p) && p != pos {
				continue
			}
			if h := s.game.Map.At(p).Halite; h > bestHalite {
				best, bestHalite = d, h
			}
		}

		s.moveShip(id, best)
		return bt.Running
	})
}

// collector is the full per-ship tree: harvest and deliver in a loop, drift
// when the neighborhood is mined out, and abandon everything for home when
// the remaining rounds barely cover the return trip.
func collector(id hlt.ShipID) bt.Node[*gameState] {
	return bt.Selector(
		bt.Interrupt(
			bt.Selector(
				bt.Sequence(greedy(id), deliver(id)),
				findRes(id),
			),
			func(s *gameState) bool {
				const goHomeSafetyFactor = 1

				dist := s.returnDistance(s.ship(id).Position)
				margin := len(s.me().ShipIDs) * goHomeSafetyFactor / (1 + len(s.me().DropoffIDs))
				return s.roundsLeft() <= dist+margin
			},
		),
		goHome(id),
	)
}
