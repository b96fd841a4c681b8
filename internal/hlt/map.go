package hlt

// MapCell is one cell of the game map. Ship is the occupant as of the last
// frame, nil when empty.
type MapCell struct {
	Position     Position
	Halite       int
	Ship         *Ship
	HasStructure bool
}

// GameMap is the toroidal halite grid. All lookups normalize coordinates,
// so callers may pass positions that stepped off an edge.
type GameMap struct {
	Width  int
	Height int

	cells [][]MapCell
}

func newGameMap(width, height int) *GameMap {
	cells := make([][]MapCell, height)
	for y := range cells {
		cells[y] = make([]MapCell, width)
		for x := range cells[y] {
			cells[y][x].Position = Position{X: x, Y: y}
		}
	}
	return &GameMap{Width: width, Height: height, cells: cells}
}

// Normalize wraps a position onto the map.
func (m *GameMap) Normalize(p Position) Position {
	return Position{
		X: ((p.X % m.Width) + m.Width) % m.Width,
		Y: ((p.Y % m.Height) + m.Height) % m.Height,
	}
}

// At returns the cell at a position, wrapping as needed.
func (m *GameMap) At(p Position) *MapCell {
	q := m.Normalize(p)
	return &m.cells[q.Y][q.X]
}

// Distance returns the Manhattan distance between two positions, taking
// the shorter way around each wrapped axis.
func (m *GameMap) Distance(a, b Position) int {
	a, b = m.Normalize(a), m.Normalize(b)
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	return min(dx, m.Width-dx) + min(dy, m.Height-dy)
}

// DirectionsTo returns the cardinal directions that shrink the wrapped
// distance from source to destination, at most one per axis. The result is
// empty when the positions coincide.
func (m *GameMap) DirectionsTo(source, destination Position) []Direction {
	src, dst := m.Normalize(source), m.Normalize(destination)

	var moves []Direction
	dx := abs(src.X - dst.X)
	dy := abs(src.Y - dst.Y)

	if src.X < dst.X {
		if dx > m.Width-dx {
			moves = append(moves, West)
		} else {
			moves = append(moves, East)
		}
	} else if src.X > dst.X {
		if dx > m.Width-dx {
			moves = append(moves, East)
		} else {
			moves = append(moves, West)
		}
	}

	if src.Y < dst.Y {
		if dy > m.Height-dy {
			moves = append(moves, North)
		} else {
			moves = append(moves, South)
		}
	} else if src.Y > dst.Y {
		if dy > m.Height-dy {
			moves = append(moves, South)
		} else {
			moves = append(moves, North)
		}
	}

	return moves
}

func (m *GameMap) clearShips() {
	for y := range m.cells {
		for x := range m.cells[y] {
			m.cells[y][x].Ship = nil
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
