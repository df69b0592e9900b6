// Package crossword builds numbered crossword puzzles from word/clue lists.
//
// Generation runs in four steps: entries are normalized to upper-case A-Z
// answers, a seeded solver places each answer across a shared letter of an
// already placed one, the finished grid is numbered in row-major order, and
// the placements are assembled into an across/down clue index. The same
// input, seed and grid size always yield the same puzzle.
package crossword
