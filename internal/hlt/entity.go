package hlt

type (
	// PlayerID identifies a player for the duration of a match.
	PlayerID int
	// ShipID identifies a ship for the duration of a match.
	ShipID int
	// DropoffID identifies a dropoff for the duration of a match.
	DropoffID int
)

// Ship is a mobile unit carrying halite.
type Ship struct {
	Owner    PlayerID
	ID       ShipID
	Position Position
	Halite   int

	maxHalite int
}

// IsFull reports whether the ship has reached its cargo capacity.
func (s *Ship) IsFull() bool {
	return s.Halite >= s.maxHalite
}

// Dropoff is a player-built delivery point.
type Dropoff struct {
	Owner    PlayerID
	ID       DropoffID
	Position Position
}

// Shipyard is a player's fixed spawn and delivery point.
type Shipyard struct {
	Owner    PlayerID
	Position Position
}

// Player is one participant's view: bank balance plus the IDs of its
// entities, refreshed every frame.
type Player struct {
	ID         PlayerID
	Shipyard   Shipyard
	Halite     int
	ShipIDs    []ShipID
	DropoffIDs []DropoffID
}
