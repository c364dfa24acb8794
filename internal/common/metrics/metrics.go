// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantflow_transitions_total",
			Help: "Total number of lifecycle transitions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	BudgetWarningsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grantflow_budget_warnings_total",
			Help: "Total number of approvals blocked pending budget confirmation",
		},
	)

	RankingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantflow_ranking_runs_total",
			Help: "Total number of ranking runs by outcome",
		},
		[]string{"outcome"},
	)

	OracleCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantflow_oracle_calls_total",
			Help: "Total number of oracle calls by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	OracleCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "grantflow_oracle_call_duration_seconds",
			Help: "Duration of oracle calls in seconds",
		},
		[]string{"kind"},
	)
)
