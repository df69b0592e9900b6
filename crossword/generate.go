package crossword

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DefaultMargin is added to twice the longest word when sizing the grid.
const DefaultMargin = 4

// DefaultAttempts is the number of seeded layouts tried by Generate.
const DefaultAttempts = 8

// attemptSeedStride spreads the seeds of successive attempts.
const attemptSeedStride int64 = 0x5851F42D4C957F2D

// Config controls Generate. Zero values select the defaults.
type Config struct {
	Width  int `yaml:"width" json:"width,omitempty" validate:"gte=0,lte=200"`
	Height int `yaml:"height" json:"height,omitempty" validate:"gte=0,lte=200"`
	Margin int `yaml:"margin" json:"margin,omitempty" validate:"gte=0,lte=50"`
	// Seed drives every tie-break. 0 selects DefaultSeed.
	Seed      int64 `yaml:"seed" json:"seed,omitempty"`
	MaxPasses int   `yaml:"max_passes" json:"max_passes,omitempty" validate:"gte=0,lte=100"`
	// Attempts is how many independently seeded layouts are tried; the one
	// skipping the fewest words wins, the earliest on ties.
	Attempts          int `yaml:"attempts" json:"attempts,omitempty" validate:"gte=0,lte=100"`
	MaxWords          int `yaml:"max_words" json:"max_words,omitempty" validate:"gte=0"`
	ParallelThreshold int `yaml:"parallel_threshold" json:"parallel_threshold,omitempty"`
	// NoCrop keeps the full working grid instead of its letters' bounding box.
	NoCrop bool        `yaml:"no_crop" json:"no_crop,omitempty"`
	Logger *zap.Logger `yaml:"-" json:"-" validate:"-"`
}

// Dimensions returns the grid size for entries: explicit sizes win,
// otherwise 2*longest+margin on each side.
func (c Config) Dimensions(entries []WordEntry) (width, height int) {
	longest := 0
	for _, e := range entries {
		longest = max(longest, e.Len())
	}
	margin := c.Margin
	if margin == 0 {
		margin = DefaultMargin
	}
	width, height = c.Width, c.Height
	if width == 0 {
		width = 2*longest + margin
	}
	if height == 0 {
		height = 2*longest + margin
	}
	return width, height
}

// Result is a generated crossword together with everything that was left out.
type Result struct {
	Puzzle     *Puzzle             `json:"puzzle"`
	Layout     *Layout             `json:"layout"`
	Placements []Placement         `json:"placements"`
	Entries    []WordEntry         `json:"entries"`
	Skipped    []WordEntry         `json:"skipped,omitempty"`
	Invalid    []*InvalidWordError `json:"invalid,omitempty"`
	Incomplete bool                `json:"incomplete,omitempty"`
	Stats      Stats               `json:"stats"`
	Grid       *Grid               `json:"-"`
}

// Warnings joins the non-fatal problems of the run; nil means every entry
// made it into a complete puzzle.
func (r *Result) Warnings() error {
	var errs []error
	for _, ie := range r.Invalid {
		errs = append(errs, ie)
	}
	if len(r.Skipped) > 0 {
		errs = append(errs, &SkippedWordsError{Words: r.Skipped})
	}
	if r.Incomplete {
		errs = append(errs, ErrIncompletePuzzle)
	}
	return errors.Join(errs...)
}

// Generate normalizes raw, solves the layout, numbers it and assembles the
// puzzle. It fails with ErrTooFewWords or ErrFatalPlacement; any other
// shortfall is reported on the Result.
func Generate(ctx context.Context, raw []RawEntry, cfg Config) (*Result, error) {
	entries, invalid := NormalizeAll(raw, cfg.MaxWords)
	if len(entries) < MinEntries {
		errs := []error{fmt.Errorf("%w: %d valid of %d entries", ErrTooFewWords, len(entries), len(raw))}
		for _, ie := range invalid {
			errs = append(errs, ie)
		}
		return nil, errors.Join(errs...)
	}

	width, height := cfg.Dimensions(entries)
	for _, e := range entries {
		if e.Len() > max(width, height) {
			return nil, &FatalPlacementError{Word: e.Text, Width: width, Height: height}
		}
	}

	sol, err := bestOf(ctx, cfg, entries, width, height)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	g := sol.Grid

	placements := sol.Placements
	if !cfg.NoCrop {
		var dr, dc int
		g, dr, dc = g.Crop()
		placements = make([]Placement, len(sol.Placements))
		for i, p := range sol.Placements {
			placements[i] = p.shift(dr, dc)
		}
	}

	num, err := Number(g, placements)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Layout:     NewLayout(g, num),
		Placements: placements,
		Entries:    entries,
		Skipped:    sol.Skipped,
		Invalid:    invalid,
		Stats:      sol.Stats,
		Grid:       g,
	}
	res.Puzzle, err = Assemble(g, entries, placements, num)
	switch {
	case errors.Is(err, ErrIncompletePuzzle):
		res.Incomplete = true
	case err != nil:
		return nil, err
	}
	return res, nil
}

// AttemptSeed returns the solver seed of the given attempt. Attempt 0 uses
// seed itself.
func AttemptSeed(seed int64, attempt int) int64 {
	if seed == 0 {
		seed = DefaultSeed
	}
	return seed + int64(attempt)*attemptSeedStride
}

// bestOf solves entries on a fresh grid once per attempt and keeps the
// solution that skips the fewest words. It stops early once nothing is
// skipped.
func bestOf(ctx context.Context, cfg Config, entries []WordEntry, width, height int) (*Solution, error) {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var best *Solution
	ran := 0
	for i := 0; i < attempts; i++ {
		solver := NewSolver(Options{
			Seed:              AttemptSeed(cfg.Seed, i),
			MaxPasses:         cfg.MaxPasses,
			ParallelThreshold: cfg.ParallelThreshold,
			Logger:            cfg.Logger,
		})
		sol, err := solver.Solve(ctx, NewGrid(width, height), entries)
		if err != nil {
			return nil, err
		}
		ran++
		if best == nil || len(sol.Skipped) < len(best.Skipped) {
			best = sol
		}
		if len(best.Skipped) == 0 {
			break
		}
	}
	best.Stats.Attempts = ran
	return best, nil
}
