package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossgrid_generations_total",
		Help: "Crossword generations by outcome (ok, warning, too_few_words, fatal_placement, error).",
	}, []string{"outcome"})

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossgrid_generation_duration_seconds",
		Help:    "Time spent generating a crossword.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	skippedWordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossgrid_skipped_words_total",
		Help: "Words that could not be placed in a generated crossword.",
	})

	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossgrid_wordlist_scans_total",
		Help: "Word list image scans by outcome.",
	}, []string{"outcome"})

	sseClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossgrid_sse_clients",
		Help: "Connected game event streams.",
	})
)
