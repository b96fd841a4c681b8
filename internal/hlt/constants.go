package hlt

// Constants are the game parameters the engine publishes as a single JSON
// line before the init frame. Field names follow the engine's keys.
type Constants struct {
	ShipCost                int     `json:"NEW_ENTITY_ENERGY_COST"`
	DropoffCost             int     `json:"DROPOFF_COST"`
	MaxHalite               int     `json:"MAX_ENERGY"`
	MaxTurns                int     `json:"MAX_TURNS"`
	ExtractRatio            int     `json:"EXTRACT_RATIO"`
	MoveCostRatio           int     `json:"MOVE_COST_RATIO"`
	InspirationEnabled      bool    `json:"INSPIRATION_ENABLED"`
	InspirationRadius       int     `json:"INSPIRATION_RADIUS"`
	InspirationShipCount    int     `json:"INSPIRATION_SHIP_COUNT"`
	InspiredExtractRatio    int     `json:"INSPIRED_EXTRACT_RATIO"`
	InspiredBonusMultiplier float64 `json:"INSPIRED_BONUS_MULTIPLIER"`
	InspiredMoveCostRatio   int     `json:"INSPIRED_MOVE_COST_RATIO"`
}
