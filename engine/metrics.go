package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passagesPlayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tale_passages_played_total",
		Help: "Passages played, by story",
	}, []string{"story"})

	// macroErrors counts errors rendered inline, by macro.
	macroErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tale_macro_errors_total",
		Help: "Macro errors rendered inline",
	}, []string{"story", "macro"})

	sessionsRestored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tale_sessions_restored_total",
		Help: "Sessions restored from a checkpoint",
	}, []string{"story"})

	renderSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tale_render_duration_seconds",
		Help:    "Time to show a passage, including special passages",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
	})
)
