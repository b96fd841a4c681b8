package hlt

// Direction is a single-step move on the game map. The byte value is the
// character the engine expects in move commands.
type Direction byte

const (
	North Direction = 'n'
	South Direction = 's'
	East  Direction = 'e'
	West  Direction = 'w'
	Still Direction = 'o'
)

func (d Direction) String() string {
	return string(byte(d))
}

// Invert returns the opposite direction. Still inverts to itself.
func (d Direction) Invert() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return Still
}

// Cardinals returns the four movement directions.
func Cardinals() []Direction {
	return []Direction{North, South, East, West}
}

// Options returns the four movement directions plus Still.
func Options() []Direction {
	return []Direction{North, South, East, West, Still}
}
