package editor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pensieri_editor_sessions_active",
		Help: "Number of open editor sessions.",
	})

	blockOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pensieri_editor_block_ops_total",
		Help: "Block edits applied to editor sessions, by operation.",
	}, []string{"op"})
)
