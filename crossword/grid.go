package crossword

import (
	"fmt"
	"strings"
)

// empty marks a cell with no letter.
const empty byte = 0

// Grid is a bounded letter grid. Letters only enter through Commit, which
// callers must guard with CanPlace.
type Grid struct {
	width  int
	height int
	cells  []byte // row-major
}

// NewGrid returns a width x height grid with every cell empty.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{width: width, height: height, cells: make([]byte, width*height)}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.height && col >= 0 && col < g.width
}

func (g *Grid) at(row, col int) byte {
	if !g.inBounds(row, col) {
		return empty
	}
	return g.cells[row*g.width+col]
}

// Peek returns the letter at (row, col). ok is false when the cell is empty
// or out of bounds.
func (g *Grid) Peek(row, col int) (letter byte, ok bool) {
	l := g.at(row, col)
	return l, l != empty
}

// filled reports whether (row, col) holds a letter.
func (g *Grid) filled(row, col int) bool {
	return g.at(row, col) != empty
}

// CanPlace reports whether word fits at (row, col) running in dir.
//
// Every letter must land in bounds on an empty cell or a cell holding the
// same letter. The cells just before and after the word must be empty. A
// newly written letter may not touch a letter on either side across the
// axis, and the word may not run over two consecutive existing letters,
// which would merge it with a parallel word.
func (g *Grid) CanPlace(word string, row, col int, dir Direction) bool {
	n := len(word)
	if n == 0 {
		return false
	}
	dr, dc := dir.step()
	if !g.inBounds(row, col) || !g.inBounds(row+dr*(n-1), col+dc*(n-1)) {
		return false
	}
	if g.filled(row-dr, col-dc) || g.filled(row+dr*n, col+dc*n) {
		return false
	}

	prevFilled := false
	for i := 0; i < n; i++ {
		r, c := row+dr*i, col+dc*i
		cur := g.cells[r*g.width+c]
		if cur == empty {
			// Perpendicular neighbours: (dc, dr) swaps the axis.
			if g.filled(r-dc, c-dr) || g.filled(r+dc, c+dr) {
				return false
			}
			prevFilled = false
			continue
		}
		if cur != word[i] || prevFilled {
			return false
		}
		prevFilled = true
	}
	return true
}

// Commit writes word at (row, col) along dir. It panics if the placement is
// out of bounds or conflicts with an existing letter, so callers check
// CanPlace first.
func (g *Grid) Commit(word string, row, col int, dir Direction) {
	dr, dc := dir.step()
	for i := 0; i < len(word); i++ {
		r, c := row+dr*i, col+dc*i
		if !g.inBounds(r, c) {
			panic(fmt.Sprintf("crossword: commit %q out of bounds at (%d,%d)", word, r, c))
		}
		idx := r*g.width + c
		if cur := g.cells[idx]; cur != empty && cur != word[i] {
			panic(fmt.Sprintf("crossword: commit %q conflicts at (%d,%d): %c != %c", word, r, c, cur, word[i]))
		}
		g.cells[idx] = word[i]
	}
}

// Read returns the n letters starting at (row, col) along dir. Empty or
// out-of-bounds cells read as '.'.
func (g *Grid) Read(row, col int, dir Direction, n int) string {
	dr, dc := dir.step()
	b := make([]byte, n)
	for i := range b {
		if l, ok := g.Peek(row+dr*i, col+dc*i); ok {
			b[i] = l
		} else {
			b[i] = '.'
		}
	}
	return string(b)
}

// Resize changes the grid dimensions, keeping letters at their coordinates.
// It fails rather than drop a letter.
func (g *Grid) Resize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("resize to %dx%d: negative dimension", width, height)
	}
	for r := 0; r < g.height; r++ {
		for c := 0; c < g.width; c++ {
			if g.filled(r, c) && (r >= height || c >= width) {
				return fmt.Errorf("resize to %dx%d would drop letter at (%d,%d): %w",
					width, height, r, c, ErrFatalPlacement)
			}
		}
	}
	cells := make([]byte, width*height)
	for r := 0; r < min(height, g.height); r++ {
		for c := 0; c < min(width, g.width); c++ {
			cells[r*width+c] = g.cells[r*g.width+c]
		}
	}
	g.width, g.height, g.cells = width, height, cells
	return nil
}

// Bounds returns the smallest box containing every letter. ok is false for
// an empty grid.
func (g *Grid) Bounds() (top, left, bottom, right int, ok bool) {
	top, left = g.height, g.width
	bottom, right = -1, -1
	for r := 0; r < g.height; r++ {
		for c := 0; c < g.width; c++ {
			if !g.filled(r, c) {
				continue
			}
			top, left = min(top, r), min(left, c)
			bottom, right = max(bottom, r), max(right, c)
		}
	}
	if bottom < 0 {
		return 0, 0, 0, 0, false
	}
	return top, left, bottom, right, true
}

// Crop returns a copy of g limited to its letters' bounding box, along with
// the offset that was subtracted from every coordinate.
func (g *Grid) Crop() (cropped *Grid, rowOffset, colOffset int) {
	top, left, bottom, right, ok := g.Bounds()
	if !ok {
		return NewGrid(0, 0), 0, 0
	}
	out := NewGrid(right-left+1, bottom-top+1)
	for r := 0; r < out.height; r++ {
		copy(out.cells[r*out.width:(r+1)*out.width], g.cells[(r+top)*g.width+left:(r+top)*g.width+right+1])
	}
	return out, top, left
}

// String renders the grid one row per line with '.' for empty cells.
func (g *Grid) String() string {
	var b strings.Builder
	for r := 0; r < g.height; r++ {
		b.WriteString(g.Read(r, 0, Across, g.width))
		b.WriteByte('\n')
	}
	return b.String()
}
