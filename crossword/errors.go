package crossword

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidWord is matched by every *InvalidWordError.
	ErrInvalidWord = errors.New("invalid word")
	// ErrTooFewWords is returned when fewer than MinEntries entries survive normalization.
	ErrTooFewWords = errors.New("at least two valid words are required")
	// ErrFatalPlacement means the grid cannot hold the input at all.
	ErrFatalPlacement = errors.New("fatal placement error")
	// ErrSkippedWords is matched by *SkippedWordsError.
	ErrSkippedWords = errors.New("some words could not be placed")
	// ErrIncompletePuzzle is a warning: the puzzle lacks an across or a down entry.
	ErrIncompletePuzzle = errors.New("incomplete puzzle")
	// ErrNumberingMismatch means the grid contains a run that no placement accounts for,
	// or a placement whose start is not a clue start.
	ErrNumberingMismatch = errors.New("numbering does not match placements")
)

// InvalidWordError reports one raw entry rejected by normalization.
type InvalidWordError struct {
	Index  int    `json:"index"`
	Word   string `json:"word"`
	Reason string `json:"reason"`
}

func (e *InvalidWordError) Error() string {
	return fmt.Sprintf("entry %d %q: %s", e.Index, e.Word, e.Reason)
}

func (e *InvalidWordError) Is(target error) bool { return target == ErrInvalidWord }

// FatalPlacementError reports a word that cannot fit the grid in any direction.
type FatalPlacementError struct {
	Word   string
	Width  int
	Height int
}

func (e *FatalPlacementError) Error() string {
	return fmt.Sprintf("cannot place %q on a %dx%d grid", e.Word, e.Width, e.Height)
}

func (e *FatalPlacementError) Is(target error) bool { return target == ErrFatalPlacement }

// SkippedWordsError lists the words left out of a finished puzzle.
type SkippedWordsError struct {
	Words []WordEntry
}

func (e *SkippedWordsError) Error() string {
	names := make([]string, len(e.Words))
	for i, w := range e.Words {
		names[i] = w.Text
	}
	return fmt.Sprintf("%d word(s) not placed: %s", len(e.Words), strings.Join(names, ", "))
}

func (e *SkippedWordsError) Is(target error) bool { return target == ErrSkippedWords }
