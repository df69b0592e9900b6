package crossword

import "fmt"

// Coord is a grid position.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Numbering maps clue numbers to the cells where across and down answers start.
type Numbering struct {
	Across map[int]Coord
	Down   map[int]Coord
	cells  map[Coord]int
}

// At returns the clue number of (row, col), if it is a clue start.
func (n *Numbering) At(row, col int) (int, bool) {
	num, ok := n.cells[Coord{row, col}]
	return num, ok
}

// Len returns the number of distinct numbered cells.
func (n *Numbering) Len() int { return len(n.cells) }

func (g *Grid) acrossStart(r, c int) bool {
	return g.filled(r, c) && !g.filled(r, c-1) && g.filled(r, c+1)
}

func (g *Grid) downStart(r, c int) bool {
	return g.filled(r, c) && !g.filled(r-1, c) && g.filled(r+1, c)
}

// runLength counts consecutive letters from (row, col) along dir.
func (g *Grid) runLength(row, col int, dir Direction) int {
	dr, dc := dir.step()
	n := 0
	for g.filled(row+dr*n, col+dc*n) {
		n++
	}
	return n
}

// Number scans g in row-major order and numbers every cell that starts an
// across or a down run; a cell starting both gets one number. Every
// placement must start on a numbered cell in its own direction and cover
// the whole run, and every run must belong to a placement.
func Number(g *Grid, placements []Placement) (*Numbering, error) {
	n := &Numbering{
		Across: make(map[int]Coord),
		Down:   make(map[int]Coord),
		cells:  make(map[Coord]int),
	}
	next := 1
	for r := 0; r < g.Height(); r++ {
		for c := 0; c < g.Width(); c++ {
			a, d := g.acrossStart(r, c), g.downStart(r, c)
			if !a && !d {
				continue
			}
			at := Coord{r, c}
			n.cells[at] = next
			if a {
				n.Across[next] = at
			}
			if d {
				n.Down[next] = at
			}
			next++
		}
	}

	var across, down int
	for _, p := range placements {
		starts := g.acrossStart
		if p.Direction == Down {
			starts = g.downStart
			down++
		} else {
			across++
		}
		if !starts(p.Row, p.Col) {
			return nil, fmt.Errorf("%w: %s at (%d,%d) %s is not a clue start",
				ErrNumberingMismatch, p.WordID, p.Row, p.Col, p.Direction)
		}
		if l := g.runLength(p.Row, p.Col, p.Direction); l != p.Length {
			return nil, fmt.Errorf("%w: %s spans %d cells but the run is %d",
				ErrNumberingMismatch, p.WordID, p.Length, l)
		}
	}
	if across != len(n.Across) || down != len(n.Down) {
		return nil, fmt.Errorf("%w: %d across/%d down placements, %d across/%d down runs",
			ErrNumberingMismatch, across, down, len(n.Across), len(n.Down))
	}
	return n, nil
}
