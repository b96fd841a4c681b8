package hlt

import "fmt"

// Command is a single engine instruction, already in wire form.
type Command string

// SpawnShip orders the shipyard to produce a new ship.
func SpawnShip() Command {
	return "g"
}

// Move orders a ship one step in a direction. Still is a valid direction
// and burns no halite.
func Move(id ShipID, d Direction) Command {
	return Command(fmt.Sprintf("m %d %s", id, d))
}

// Construct converts a ship into a dropoff at its current position.
func Construct(id ShipID) Command {
	return Command(fmt.Sprintf("c %d", id))
}
