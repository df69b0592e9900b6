package crossword

// Placement is the committed position of one word on the grid.
type Placement struct {
	WordID    string    `json:"word_id"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Direction Direction `json:"direction"`
	Length    int       `json:"length"`
}

// cells calls fn for every grid coordinate the placement covers.
func (p Placement) cells(fn func(i, row, col int)) {
	dr, dc := p.Direction.step()
	for i := 0; i < p.Length; i++ {
		fn(i, p.Row+dr*i, p.Col+dc*i)
	}
}

// Contains reports whether (row, col) lies on the placement's span.
func (p Placement) Contains(row, col int) bool {
	if p.Direction == Across {
		return row == p.Row && col >= p.Col && col < p.Col+p.Length
	}
	return col == p.Col && row >= p.Row && row < p.Row+p.Length
}

// shift moves the placement origin by (-dr, -dc).
func (p Placement) shift(dr, dc int) Placement {
	p.Row -= dr
	p.Col -= dc
	return p
}
