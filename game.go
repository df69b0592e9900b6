package main

import (
	"errors"
	"sync"
	"time"

	"github.com/bodul/crossgrid/crossword"
)

var (
	errOutOfBounds = errors.New("position out of bounds")
	errBlackCell   = errors.New("black cell")
)

// Player represents a connected player.
type Player struct {
	Pseudo   string    `json:"pseudo"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joined_at"`
}

// GameSession is a collaborative attempt at one crossword.
type GameSession struct {
	ID          string             `json:"id"`
	CrosswordID string             `json:"crossword_id"`
	Players     map[string]*Player `json:"players"`
	State       [][]string         `json:"state"` // current letters [row][col]
	CreatedAt   time.Time          `json:"created_at"`

	layout *crossword.Layout
	mu     sync.Mutex
}

// playerColors is the palette assigned to players in order.
var playerColors = []string{
	"#2563eb", "#dc2626", "#16a34a", "#9333ea",
	"#ea580c", "#0891b2", "#c026d3", "#ca8a04",
}

func newGameSession(id string, cw *Crossword) *GameSession {
	state := make([][]string, cw.Layout.Height)
	for i := range state {
		state[i] = make([]string, cw.Layout.Width)
	}
	return &GameSession{
		ID:          id,
		CrosswordID: cw.ID,
		Players:     make(map[string]*Player),
		State:       state,
		CreatedAt:   time.Now(),
		layout:      cw.Layout,
	}
}

// AddPlayer adds a player to the session and returns the player.
func (g *GameSession) AddPlayer(pseudo string) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.Players[pseudo]; ok {
		return p
	}

	p := &Player{
		Pseudo:   pseudo,
		Color:    playerColors[len(g.Players)%len(playerColors)],
		JoinedAt: time.Now(),
	}
	g.Players[pseudo] = p
	return p
}

// RemovePlayer removes a player from the session.
func (g *GameSession) RemovePlayer(pseudo string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.Players, pseudo)
}

// SetCell writes value at (row, col). Black squares cannot be written.
func (g *GameSession) SetCell(row, col int, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if row < 0 || row >= len(g.State) || col < 0 || col >= len(g.State[row]) {
		return errOutOfBounds
	}
	if g.layout.IsBlack(row, col) {
		return errBlackCell
	}
	g.State[row][col] = value
	return nil
}

// GetState returns a copy of the current game state.
func (g *GameSession) GetState() [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()

	cp := make([][]string, len(g.State))
	for i, row := range g.State {
		cp[i] = make([]string, len(row))
		copy(cp[i], row)
	}
	return cp
}

// GetPlayers returns a copy of the player list.
func (g *GameSession) GetPlayers() map[string]*Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	cp := make(map[string]*Player, len(g.Players))
	for k, p := range g.Players {
		cp[k] = p
	}
	return cp
}

// Check compares the filled letters with the solution. It returns the
// filled cells holding a wrong letter and whether every letter cell is
// filled correctly.
func (g *GameSession) Check() (wrong []crossword.Coord, solved bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	solved = true
	for r, row := range g.layout.Cells {
		for c, cell := range row {
			if cell.Black {
				continue
			}
			got := g.State[r][c]
			switch {
			case got == "":
				solved = false
			case got != cell.Letter:
				solved = false
				wrong = append(wrong, crossword.Coord{Row: r, Col: c})
			}
		}
	}
	return wrong, solved
}
