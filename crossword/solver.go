package crossword

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSeed keeps generation reproducible when the caller supplies no entropy.
	DefaultSeed int64 = 20240101
	// DefaultMaxPasses bounds the retry passes over deferred words.
	DefaultMaxPasses = 3
	// DefaultParallelThreshold is the candidate count at which placement checks fan out.
	DefaultParallelThreshold = 256
)

// Options tunes a Solver. Zero values select the defaults.
type Options struct {
	// Seed drives tie-breaks. 0 selects DefaultSeed.
	Seed              int64
	MaxPasses         int
	ParallelThreshold int // <0 disables parallel checks
	Logger            *zap.Logger
}

// Stats describes one Solve run.
type Stats struct {
	Placed        int           `json:"placed"`
	Skipped       int           `json:"skipped"`
	Intersections int           `json:"intersections"`
	Passes        int           `json:"passes"`
	Attempts      int           `json:"attempts,omitempty"`
	Candidates    int           `json:"candidates"`
	Duration      time.Duration `json:"duration"`
}

// Solution is the outcome of Solve. Placements are in commit order.
type Solution struct {
	Grid       *Grid
	Placements []Placement
	Skipped    []WordEntry
	Stats      Stats
}

// Solver places words on a grid by anchoring each new word on a letter it
// shares with an already placed word.
type Solver struct {
	seed              int64
	maxPasses         int
	parallelThreshold int
	log               *zap.Logger
}

// NewSolver returns a Solver configured by opts.
func NewSolver(opts Options) *Solver {
	s := &Solver{
		seed:              opts.Seed,
		maxPasses:         opts.MaxPasses,
		parallelThreshold: opts.ParallelThreshold,
		log:               opts.Logger,
	}
	if s.seed == 0 {
		s.seed = DefaultSeed
	}
	if s.maxPasses <= 0 {
		s.maxPasses = DefaultMaxPasses
	}
	if s.parallelThreshold == 0 {
		s.parallelThreshold = DefaultParallelThreshold
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// placed is a committed word kept alongside its placement for anchoring.
type placed struct {
	entry WordEntry
	Placement
}

// Solve places words onto g in input order. The first word goes across near
// the centre; failing that is fatal. Every later word must cross an already
// placed word; words that cannot are retried in up to maxPasses further
// passes and finally reported as skipped. g is owned by the solver for the
// duration of the call.
func (s *Solver) Solve(ctx context.Context, g *Grid, words []WordEntry) (*Solution, error) {
	start := time.Now()
	if len(words) == 0 {
		return nil, fmt.Errorf("solve: %w", ErrTooFewWords)
	}

	rng := rand.New(rand.NewSource(s.seed))
	sol := &Solution{Grid: g}
	var board []placed

	first := words[0]
	row, col := g.Height()/2, (g.Width()-first.Len())/2
	if !g.CanPlace(first.Text, row, col, Across) {
		return nil, &FatalPlacementError{Word: first.Text, Width: g.Width(), Height: g.Height()}
	}
	board = append(board, s.commit(g, first, candidate{row: row, col: col, dir: Across}))

	deferred := make([]WordEntry, 0, len(words)-1)
	for _, w := range words[1:] {
		ok, err := s.tryPlace(ctx, g, rng, &board, w, &sol.Stats)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Debug("deferring word", zap.String("word", w.Text))
			deferred = append(deferred, w)
		}
	}

	for pass := 0; pass < s.maxPasses && len(deferred) > 0; pass++ {
		sol.Stats.Passes++
		remaining := deferred[:0:0]
		for _, w := range deferred {
			ok, err := s.tryPlace(ctx, g, rng, &board, w, &sol.Stats)
			if err != nil {
				return nil, err
			}
			if !ok {
				remaining = append(remaining, w)
			}
		}
		progressed := len(remaining) < len(deferred)
		deferred = remaining
		if !progressed {
			break
		}
	}

	for _, p := range board {
		sol.Placements = append(sol.Placements, p.Placement)
	}
	sol.Skipped = deferred
	sol.Stats.Placed = len(board)
	sol.Stats.Skipped = len(deferred)
	sol.Stats.Intersections = countIntersections(sol.Placements)
	sol.Stats.Duration = time.Since(start)

	s.log.Debug("solve finished",
		zap.Int("placed", sol.Stats.Placed),
		zap.Int("skipped", sol.Stats.Skipped),
		zap.Int("passes", sol.Stats.Passes),
		zap.Duration("duration", sol.Stats.Duration))
	return sol, nil
}

// tryPlace commits w at its best crossing, if any.
func (s *Solver) tryPlace(ctx context.Context, g *Grid, rng *rand.Rand, board *[]placed, w WordEntry, st *Stats) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	cands := enumerate(*board, w)
	st.Candidates += len(cands)
	valid, err := s.filter(ctx, g, w.Text, cands)
	if err != nil {
		return false, err
	}
	best, ok := choose(valid, rng)
	if !ok {
		return false, nil
	}
	*board = append(*board, s.commit(g, w, best))
	return true, nil
}

func (s *Solver) commit(g *Grid, w WordEntry, c candidate) placed {
	g.Commit(w.Text, c.row, c.col, c.dir)
	s.log.Debug("placed word",
		zap.String("word", w.Text),
		zap.Int("row", c.row),
		zap.Int("col", c.col),
		zap.Stringer("direction", c.dir),
		zap.Int("crossings", c.crossings))
	return placed{
		entry: w,
		Placement: Placement{
			WordID:    w.ID,
			Row:       c.row,
			Col:       c.col,
			Direction: c.dir,
			Length:    w.Len(),
		},
	}
}

// countIntersections counts cells covered by both an across and a down placement.
func countIntersections(ps []Placement) int {
	type cell struct{ r, c int }
	across := make(map[cell]bool)
	for _, p := range ps {
		if p.Direction == Across {
			p.cells(func(_, r, c int) { across[cell{r, c}] = true })
		}
	}
	n := 0
	for _, p := range ps {
		if p.Direction == Down {
			p.cells(func(_, r, c int) {
				if across[cell{r, c}] {
					n++
				}
			})
		}
	}
	return n
}
