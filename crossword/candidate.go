package crossword

import (
	"context"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// candidate is a possible origin for a word, anchored on a placed word.
type candidate struct {
	row, col  int
	dir       Direction
	crossings int
}

type candKey struct {
	row, col int
	dir      Direction
}

// enumerate lists every origin that lines w up with a shared letter of a
// placed word, perpendicular to it. Duplicates reached through different
// anchors are dropped.
func enumerate(board []placed, w WordEntry) []candidate {
	seen := make(map[candKey]bool)
	var out []candidate
	for _, p := range board {
		dir := p.Direction.Perpendicular()
		for i := 0; i < len(p.entry.Text); i++ {
			for j := 0; j < len(w.Text); j++ {
				if p.entry.Text[i] != w.Text[j] {
					continue
				}
				var k candKey
				if p.Direction == Across {
					k = candKey{row: p.Row - j, col: p.Col + i, dir: dir}
				} else {
					k = candKey{row: p.Row + i, col: p.Col - j, dir: dir}
				}
				if seen[k] {
					continue
				}
				seen[k] = true
				out = append(out, candidate{row: k.row, col: k.col, dir: k.dir})
			}
		}
	}
	return out
}

// filter keeps the candidates the grid accepts and scores each by the number
// of existing letters it crosses. Large candidate sets are checked in
// parallel; the grid is only read while checks run.
func (s *Solver) filter(ctx context.Context, g *Grid, word string, cands []candidate) ([]candidate, error) {
	ok := make([]bool, len(cands))
	check := func(i int) {
		c := &cands[i]
		if !g.CanPlace(word, c.row, c.col, c.dir) {
			return
		}
		ok[i] = true
		c.crossings = crossings(g, word, c.row, c.col, c.dir)
	}

	if s.parallelThreshold > 0 && len(cands) >= s.parallelThreshold {
		eg, ctx := errgroup.WithContext(ctx)
		workers := runtime.GOMAXPROCS(0)
		chunk := (len(cands) + workers - 1) / workers
		for lo := 0; lo < len(cands); lo += chunk {
			hi := min(lo+chunk, len(cands))
			eg.Go(func() error {
				for i := lo; i < hi; i++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					check(i)
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range cands {
			check(i)
		}
	}

	valid := cands[:0]
	for i, c := range cands {
		if ok[i] {
			valid = append(valid, c)
		}
	}
	return valid, nil
}

func crossings(g *Grid, word string, row, col int, dir Direction) int {
	dr, dc := dir.step()
	n := 0
	for i := 0; i < len(word); i++ {
		if g.filled(row+dr*i, col+dc*i) {
			n++
		}
	}
	return n
}

// choose picks the candidate with the most crossings. Candidates are first
// put in a stable order so the seeded tie-break does not depend on how they
// were produced.
func choose(cands []candidate, rng *rand.Rand) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.crossings != b.crossings {
			return a.crossings > b.crossings
		}
		if a.row != b.row {
			return a.row < b.row
		}
		if a.col != b.col {
			return a.col < b.col
		}
		return a.dir < b.dir
	})
	top := 1
	for top < len(cands) && cands[top].crossings == cands[0].crossings {
		top++
	}
	if top == 1 {
		return cands[0], true
	}
	return cands[rng.Intn(top)], true
}
