package main

import (
	"errors"
	"time"

	"github.com/bodul/crossgrid/crossword"
)

// Crossword is a generated puzzle as stored and served by the API.
type Crossword struct {
	ID        string                        `json:"id"`
	Title     string                        `json:"title"`
	Seed      int64                         `json:"seed"`
	Puzzle    *crossword.Puzzle             `json:"puzzle"`
	Layout    *crossword.Layout             `json:"layout"`
	Skipped   []crossword.WordEntry         `json:"skipped,omitempty"`
	Invalid   []*crossword.InvalidWordError `json:"invalid,omitempty"`
	Warnings  []string                      `json:"warnings,omitempty"`
	Stats     crossword.Stats               `json:"stats"`
	CreatedAt time.Time                     `json:"created_at"`
}

// newCrossword copies a generation result into a storable record.
func newCrossword(title string, seed int64, res *crossword.Result) *Crossword {
	cw := &Crossword{
		Title:   title,
		Seed:    seed,
		Puzzle:  res.Puzzle,
		Layout:  res.Layout,
		Skipped: res.Skipped,
		Invalid: res.Invalid,
		Stats:   res.Stats,
	}
	if warn := res.Warnings(); warn != nil {
		// One message per warning.
		if j, ok := warn.(interface{ Unwrap() []error }); ok {
			for _, e := range j.Unwrap() {
				cw.Warnings = append(cw.Warnings, e.Error())
			}
		} else {
			cw.Warnings = []string{warn.Error()}
		}
	}
	return cw
}

// Blank returns the layout with letters removed, as shown to players.
func (c *Crossword) Blank() *crossword.Layout {
	if c.Layout == nil {
		return nil
	}
	out := &crossword.Layout{Width: c.Layout.Width, Height: c.Layout.Height, Cells: make([][]crossword.LayoutCell, len(c.Layout.Cells))}
	for r, row := range c.Layout.Cells {
		out.Cells[r] = make([]crossword.LayoutCell, len(row))
		for col, cell := range row {
			cell.Letter = ""
			out.Cells[r][col] = cell
		}
	}
	return out
}

// Clues returns the puzzle with answers removed, as shown to players.
func (c *Crossword) Clues() *crossword.Puzzle {
	if c.Puzzle == nil {
		return nil
	}
	strip := func(m map[int]crossword.NumberedClue) map[int]crossword.NumberedClue {
		out := make(map[int]crossword.NumberedClue, len(m))
		for n, clue := range m {
			clue.Answer = ""
			out[n] = clue
		}
		return out
	}
	return &crossword.Puzzle{Across: strip(c.Puzzle.Across), Down: strip(c.Puzzle.Down)}
}

var errNotFound = errors.New("not found")
