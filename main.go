package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "crossgrid",
	Short: "Build numbered crossword puzzles from word and clue lists",
	Long: `crossgrid lays out a list of words on a shared grid so that crossing
words agree on their letters, numbers the grid the usual way and serves the
resulting across/down clue index.

Run "crossgrid serve" for the HTTP API or "crossgrid generate" for a one-off
puzzle from a file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.AddCommand(newServeCmd(), newGenerateCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
