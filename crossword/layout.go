package crossword

// LayoutCell is one rendered grid square.
type LayoutCell struct {
	Letter string `json:"letter,omitempty"`
	Black  bool   `json:"black"`
	Number int    `json:"number,omitempty"`
}

// Layout is the grid as a renderer or printer draws it: empty cells are
// black and clue starts carry their number.
type Layout struct {
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Cells  [][]LayoutCell `json:"cells"`
}

// NewLayout renders g using the clue numbers in num.
func NewLayout(g *Grid, num *Numbering) *Layout {
	l := &Layout{Width: g.Width(), Height: g.Height(), Cells: make([][]LayoutCell, g.Height())}
	for r := range l.Cells {
		row := make([]LayoutCell, g.Width())
		for c := range row {
			letter, ok := g.Peek(r, c)
			if !ok {
				row[c].Black = true
				continue
			}
			row[c].Letter = string(letter)
			if num != nil {
				row[c].Number, _ = num.At(r, c)
			}
		}
		l.Cells[r] = row
	}
	return l
}

// IsBlack reports whether (row, col) is a black or out-of-bounds square.
func (l *Layout) IsBlack(row, col int) bool {
	if row < 0 || row >= l.Height || col < 0 || col >= l.Width {
		return true
	}
	return l.Cells[row][col].Black
}
