package crossword

import "fmt"

// NumberedClue is one entry of a puzzle's across or down index.
type NumberedClue struct {
	Clue   string `json:"clue"`
	Answer string `json:"answer"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

// Puzzle is the clue index keyed by clue number. Its JSON form is the
// {across, down} shape crossword renderers expect.
type Puzzle struct {
	Across map[int]NumberedClue `json:"across"`
	Down   map[int]NumberedClue `json:"down"`
}

// Assemble builds the puzzle from the solved grid. Answers are read back
// from g, clue text comes from entries. When two or more words are placed
// but one direction is empty, the puzzle is returned together with
// ErrIncompletePuzzle.
func Assemble(g *Grid, entries []WordEntry, placements []Placement, num *Numbering) (*Puzzle, error) {
	clues := make(map[string]string, len(entries))
	for _, e := range entries {
		clues[e.ID] = e.Clue
	}

	pz := &Puzzle{
		Across: make(map[int]NumberedClue),
		Down:   make(map[int]NumberedClue),
	}
	for _, p := range placements {
		clue, ok := clues[p.WordID]
		if !ok {
			return nil, fmt.Errorf("assemble: no entry for placement %s", p.WordID)
		}
		n, ok := num.At(p.Row, p.Col)
		if !ok {
			return nil, fmt.Errorf("%w: %s at (%d,%d) has no number", ErrNumberingMismatch, p.WordID, p.Row, p.Col)
		}
		nc := NumberedClue{
			Clue:   clue,
			Answer: g.Read(p.Row, p.Col, p.Direction, p.Length),
			Row:    p.Row,
			Col:    p.Col,
		}
		if p.Direction == Across {
			pz.Across[n] = nc
		} else {
			pz.Down[n] = nc
		}
	}

	if len(placements) >= 2 && (len(pz.Across) == 0 || len(pz.Down) == 0) {
		return pz, fmt.Errorf("%w: %d across, %d down", ErrIncompletePuzzle, len(pz.Across), len(pz.Down))
	}
	return pz, nil
}
