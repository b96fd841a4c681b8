// Package hlt speaks the Halite III engine's text protocol over a pair of
// streams, normally the process's stdin and stdout. The engine sends one
// JSON line of game constants, an init frame describing players and the
// map, and then one frame per turn; the bot answers each frame with a
// single line of commands.
//
// Nothing here is safe for concurrent use. A bot owns one Game and drives
// it from a single loop.
package hlt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Game is the connection to the engine plus the latest parsed game state.
type Game struct {
	Constants  Constants
	TurnNumber int
	MyID       PlayerID
	Players    []*Player
	Ships      map[ShipID]*Ship
	Dropoffs   map[DropoffID]*Dropoff
	Map        *GameMap

	in  *bufio.Reader
	out *bufio.Writer
}

// New reads the constants line and the init frame from r. The returned
// game holds the starting map; call Ready once setup is done, then
// UpdateFrame before each turn.
func New(r io.Reader, w io.Writer) (*Game, error) {
	g := &Game{
		Ships:    make(map[ShipID]*Ship),
		Dropoffs: make(map[DropoffID]*Dropoff),
		in:       bufio.NewReader(r),
		out:      bufio.NewWriter(w),
	}

	line, err := g.in.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read constants line: %w", err)
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &g.Constants); err != nil {
		return nil, fmt.Errorf("failed to parse constants: %w", err)
	}

	var numPlayers, myID int
	if err := g.scan(&numPlayers, &myID); err != nil {
		return nil, err
	}
	g.MyID = PlayerID(myID)

	for i := 0; i < numPlayers; i++ {
		var id, x, y int
		if err := g.scan(&id, &x, &y); err != nil {
			return nil, err
		}
		g.Players = append(g.Players, &Player{
			ID:       PlayerID(id),
			Shipyard: Shipyard{Owner: PlayerID(id), Position: Position{X: x, Y: y}},
		})
	}

	var width, height int
	if err := g.scan(&width, &height); err != nil {
		return nil, err
	}
	g.Map = newGameMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if err := g.scan(&g.Map.cells[y][x].Halite); err != nil {
				return nil, err
			}
		}
	}

	for _, p := range g.Players {
		g.Map.At(p.Shipyard.Position).HasStructure = true
	}

	return g, nil
}

// Ready sends the bot's name, telling the engine setup is complete.
func (g *Game) Ready(name string) error {
	if _, err := fmt.Fprintln(g.out, name); err != nil {
		return fmt.Errorf("failed to send ready line: %w", err)
	}
	return g.out.Flush()
}

// UpdateFrame reads one turn frame and replaces the per-turn state: player
// balances, ships, dropoffs and changed map cells.
func (g *Game) UpdateFrame() error {
	if err := g.scan(&g.TurnNumber); err != nil {
		return err
	}

	g.Map.clearShips()
	g.Ships = make(map[ShipID]*Ship)
	g.Dropoffs = make(map[DropoffID]*Dropoff)

	for range g.Players {
		var id, numShips, numDropoffs, halite int
		if err := g.scan(&id, &numShips, &numDropoffs, &halite); err != nil {
			return err
		}
		p := g.Player(PlayerID(id))
		if p == nil {
			return fmt.Errorf("engine referenced unknown player %d", id)
		}
		p.Halite = halite
		p.ShipIDs = p.ShipIDs[:0]
		p.DropoffIDs = p.DropoffIDs[:0]

		for i := 0; i < numShips; i++ {
			var sid, x, y, cargo int
			if err := g.scan(&sid, &x, &y, &cargo); err != nil {
				return err
			}
			ship := &Ship{
				Owner:     p.ID,
				ID:        ShipID(sid),
				Position:  Position{X: x, Y: y},
				Halite:    cargo,
				maxHalite: g.Constants.MaxHalite,
			}
			g.Ships[ship.ID] = ship
			p.ShipIDs = append(p.ShipIDs, ship.ID)
			g.Map.At(ship.Position).Ship = ship
		}

		for i := 0; i < numDropoffs; i++ {
			var did, x, y int
			if err := g.scan(&did, &x, &y); err != nil {
				return err
			}
			dropoff := &Dropoff{Owner: p.ID, ID: DropoffID(did), Position: Position{X: x, Y: y}}
			g.Dropoffs[dropoff.ID] = dropoff
			p.DropoffIDs = append(p.DropoffIDs, dropoff.ID)
			g.Map.At(dropoff.Position).HasStructure = true
		}
	}

	var updates int
	if err := g.scan(&updates); err != nil {
		return err
	}
	for i := 0; i < updates; i++ {
		var x, y, halite int
		if err := g.scan(&x, &y, &halite); err != nil {
			return err
		}
		g.Map.At(Position{X: x, Y: y}).Halite = halite
	}

	return nil
}

// EndTurn sends the turn's commands as a single space-separated line.
func (g *Game) EndTurn(commands []Command) error {
	for _, c := range commands {
		if _, err := fmt.Fprintf(g.out, "%s ", c); err != nil {
			return fmt.Errorf("failed to write command: %w", err)
		}
	}
	if _, err := fmt.Fprintln(g.out); err != nil {
		return fmt.Errorf("failed to end command line: %w", err)
	}
	return g.out.Flush()
}

// Me returns the player this bot controls.
func (g *Game) Me() *Player {
	return g.Player(g.MyID)
}

// Player returns the player with the given ID, nil when unknown.
func (g *Game) Player(id PlayerID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Ship returns the ship with the given ID as of the last frame.
func (g *Game) Ship(id ShipID) (*Ship, bool) {
	s, ok := g.Ships[id]
	return s, ok
}

func (g *Game) scan(dst ...any) error {
	if _, err := fmt.Fscan(g.in, dst...); err != nil {
		return fmt.Errorf("failed to read frame tokens: %w", err)
	}
	return nil
}
