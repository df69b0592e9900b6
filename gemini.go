package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/bodul/crossgrid/crossword"
)

const scanPrompt = `This photo shows a vocabulary list: each line pairs a word with its
definition, translation or clue.

Transcribe every pair exactly as written into this JSON format:
[
  {"word": "<word>", "clue": "<definition or translation>"},
  ...
]

Rules:
- Copy text as printed; do not invent, translate or complete missing clues.
- Skip lines that have a word but no clue, or a clue but no word.
- Keep the order of the list.
- Reply ONLY with the JSON array, no comment or markdown.`

var errEmptyScan = errors.New("no word/clue pairs found")

// WordListScanner turns a photographed vocabulary list into raw entries.
type WordListScanner interface {
	ScanWordList(ctx context.Context, imageData []byte, mimeType string) ([]crossword.RawEntry, error)
}

// ScanWordList sends an image to Gemini and returns the transcribed pairs.
func (g *GeminiClient) ScanWordList(ctx context.Context, imageData []byte, mimeType string) ([]crossword.RawEntry, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: scanPrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: imageData}},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return parseScan(resp.Text())
}

// parseScan decodes the model's JSON reply, dropping incomplete pairs.
func parseScan(text string) ([]crossword.RawEntry, error) {
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}

	var raw []crossword.RawEntry
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse word list JSON: %w\nraw response: %s", err, text)
	}

	out := raw[:0]
	for _, e := range raw {
		if e.Word != "" && e.Clue != "" {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, errEmptyScan
	}
	return out, nil
}
