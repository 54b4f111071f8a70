package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LawUpdateTransitions counts law-update status transitions by target status.
	LawUpdateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxengine",
		Name:      "law_update_transitions_total",
		Help:      "Law update status transitions by target status.",
	}, []string{"status"})

	// RuleEvaluations counts evaluation harness runs by rule type and outcome.
	RuleEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxengine",
		Name:      "rule_evaluations_total",
		Help:      "Rule evaluation harness runs by rule type and outcome.",
	}, []string{"rule_type", "outcome"})

	// ThresholdChecks counts threshold test requests by check name.
	ThresholdChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxengine",
		Name:      "threshold_checks_total",
		Help:      "Threshold check requests by check name.",
	}, []string{"check"})

	// MigrationRuns counts legacy migration invocations.
	MigrationRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxengine",
		Name:      "legacy_migration_runs_total",
		Help:      "Legacy migration invocations.",
	})
)
