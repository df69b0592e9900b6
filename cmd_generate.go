package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bodul/crossgrid/crossword"
)

func newGenerateCmd() *cobra.Command {
	var (
		seed     int64
		format   string
		width    int
		height   int
		attempts int
	)
	cmd := &cobra.Command{
		Use:   "generate <words.yaml>",
		Short: "Generate a crossword from a word list file",
		Long: `Reads a YAML or JSON list of {word, clue} pairs ("-" for stdin) and prints
the puzzle. Words that could not be placed are reported on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			raw, err := readWordList(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			gen := cfg.Generator
			if cmd.Flags().Changed("seed") {
				gen.Seed = seed
			}
			if width > 0 {
				gen.Width = width
			}
			if height > 0 {
				gen.Height = height
			}
			if attempts > 0 {
				gen.Attempts = attempts
			}

			res, err := crossword.Generate(cmd.Context(), raw, gen)
			if err != nil {
				return err
			}
			if warn := res.Warnings(); warn != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", warn)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			case "text":
				return writeText(out, res)
			default:
				return fmt.Errorf("unknown format %q (json, text)", format)
			}
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", crossword.DefaultSeed, "random seed for tie-breaks (0 selects the default)")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "seeded layouts to try, keeping the one that skips fewest words")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	cmd.Flags().IntVar(&width, "width", 0, "grid width (default 2*longest word + margin)")
	cmd.Flags().IntVar(&height, "height", 0, "grid height (default 2*longest word + margin)")
	return cmd
}

// readWordList parses a YAML (or JSON) sequence of entries from path.
func readWordList(stdin io.Reader, path string) ([]crossword.RawEntry, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	var raw []crossword.RawEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse word list %s: %w", path, err)
	}
	return raw, nil
}

// writeText prints the solved grid followed by the numbered clues.
func writeText(w io.Writer, res *crossword.Result) error {
	var b strings.Builder
	b.WriteString(res.Grid.String())
	for _, sec := range []struct {
		name  string
		clues map[int]crossword.NumberedClue
	}{
		{"Across", res.Puzzle.Across},
		{"Down", res.Puzzle.Down},
	} {
		fmt.Fprintf(&b, "\n%s\n", sec.name)
		nums := make([]int, 0, len(sec.clues))
		for n := range sec.clues {
			nums = append(nums, n)
		}
		sort.Ints(nums)
		for _, n := range nums {
			c := sec.clues[n]
			fmt.Fprintf(&b, "%3d. %s (%d)\n", n, c.Clue, len(c.Answer))
		}
	}
	fmt.Fprintf(&b, "\n%d placed, %d skipped, %d intersections (%d attempts)\n",
		res.Stats.Placed, res.Stats.Skipped, res.Stats.Intersections, res.Stats.Attempts)
	_, err := io.WriteString(w, b.String())
	return err
}
