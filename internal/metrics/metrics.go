// Package metrics exposes the chat engine's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finchat_turns_total",
		Help: "Chat turns handled, by resulting plan kind and plan source",
	}, []string{"plan_kind", "source"})

	confidenceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finchat_plan_confidence_total",
		Help: "Scored tool plans by confidence level",
	}, []string{"level"})

	guardianVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finchat_guardian_verdicts_total",
		Help: "Guardian outcomes by verdict; fallback is true when no verifier answered",
	}, []string{"verdict", "fallback"})

	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finchat_tool_calls_total",
		Help: "Tool router calls by tool and outcome code",
	}, []string{"tool", "outcome"})

	toolLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finchat_tool_call_duration_seconds",
		Help:    "Tool router call latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"tool"})

	stateSaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finchat_state_save_failures_total",
		Help: "Chat state saves that failed after a turn",
	})
)

func ObserveTurn(planKind, source string) {
	if source == "" {
		source = "none"
	}
	turnsTotal.WithLabelValues(planKind, source).Inc()
}

func ObserveConfidence(level string) {
	confidenceTotal.WithLabelValues(level).Inc()
}

func ObserveGuardian(verdict string, fallback bool) {
	label := "false"
	if fallback {
		label = "true"
	}
	guardianVerdicts.WithLabelValues(verdict, label).Inc()
}

// ObserveToolCall records one router call. outcome is "ok" or the tool error code.
func ObserveToolCall(tool, outcome string, elapsed time.Duration) {
	toolCalls.WithLabelValues(tool, outcome).Inc()
	toolLatency.WithLabelValues(tool).Observe(elapsed.Seconds())
}

func ObserveStateSaveFailure() {
	stateSaveFailures.Inc()
}
