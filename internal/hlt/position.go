package hlt

// Position is a cell coordinate. Positions are not normalized; the map
// wraps them when they are looked up.
type Position struct {
	X int
	Y int
}

// DirectionalOffset returns the position one step in the given direction.
// North decreases Y, south increases it.
func (p Position) DirectionalOffset(d Direction) Position {
	switch d {
	case North:
		return Position{X: p.X, Y: p.Y - 1}
	case South:
		return Position{X: p.X, Y: p.Y + 1}
	case East:
		return Position{X: p.X + 1, Y: p.Y}
	case West:
		return Position{X: p.X - 1, Y: p.Y}
	}
	return p
}
