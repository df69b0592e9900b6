package crossword

import (
	"fmt"
	"strings"
)

// MinWordLength is the shortest answer a crossword entry may have.
const MinWordLength = 2

// MinEntries is the minimum number of valid entries needed to build a puzzle.
const MinEntries = 2

// RawEntry is one unvalidated word/clue pair as typed by a user. Only length
// is bounded here; empty or unusable pairs are rejected by NormalizeAll.
type RawEntry struct {
	Word string `json:"word" yaml:"word" validate:"max=64"`
	Clue string `json:"clue" yaml:"clue" validate:"max=500"`
}

// WordEntry is a validated, placeable answer with its clue.
type WordEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Clue string `json:"clue"`
}

// Len returns the number of letters in the answer.
func (w WordEntry) Len() int { return len(w.Text) }

// Normalize strips everything but ASCII letters from word, upper-cases the rest
// and trims the clue.
func Normalize(id, word, clue string) (WordEntry, error) {
	var b strings.Builder
	b.Grow(len(word))
	for i := 0; i < len(word); i++ {
		c := word[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c)
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		}
	}
	text := b.String()
	clue = strings.TrimSpace(clue)

	if len(text) < MinWordLength {
		return WordEntry{}, &InvalidWordError{Word: word, Reason: fmt.Sprintf("fewer than %d letters", MinWordLength)}
	}
	if clue == "" {
		return WordEntry{}, &InvalidWordError{Word: word, Reason: "empty clue"}
	}
	return WordEntry{ID: id, Text: text, Clue: clue}, nil
}

// NormalizeAll normalizes raw in order. Entries get the id "word-<index>".
// Rejected entries, including repeated answers and entries past maxWords
// (when maxWords > 0), are returned as invalid and never reach the solver.
func NormalizeAll(raw []RawEntry, maxWords int) ([]WordEntry, []*InvalidWordError) {
	var (
		entries []WordEntry
		invalid []*InvalidWordError
		seen    = make(map[string]bool, len(raw))
	)
	for i, r := range raw {
		e, err := Normalize(fmt.Sprintf("word-%d", i), r.Word, r.Clue)
		if err != nil {
			ie := err.(*InvalidWordError)
			ie.Index = i
			invalid = append(invalid, ie)
			continue
		}
		if seen[e.Text] {
			invalid = append(invalid, &InvalidWordError{Index: i, Word: r.Word, Reason: "duplicate"})
			continue
		}
		if maxWords > 0 && len(entries) >= maxWords {
			invalid = append(invalid, &InvalidWordError{Index: i, Word: r.Word, Reason: "limit"})
			continue
		}
		seen[e.Text] = true
		entries = append(entries, e)
	}
	return entries, invalid
}
