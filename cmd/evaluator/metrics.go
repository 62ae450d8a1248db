package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/notification"
	"github.com/davidleathers/compliance-risk-backend/internal/service/evaluation"
)

// Metric definitions for the compliance evaluator

var (
	evaluationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crp",
			Subsystem: "evaluation",
			Name:      "runs_total",
			Help:      "Total number of evaluation runs",
		},
		[]string{"outcome"},
	)

	evaluationRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "crp",
			Subsystem: "evaluation",
			Name:      "run_duration_seconds",
			Help:      "Evaluation run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	highRiskPolicies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crp",
			Subsystem: "evaluation",
			Name:      "high_risk_policies",
			Help:      "Number of policies above threshold in the last run",
		},
	)

	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crp",
			Subsystem: "alerting",
			Name:      "deliveries_total",
			Help:      "Total number of channel delivery attempts",
		},
		[]string{"channel", "outcome"},
	)

	ticketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crp",
			Subsystem: "escalation",
			Name:      "tickets_total",
			Help:      "Total number of ticket-creation attempts",
		},
		[]string{"tracker", "outcome"},
	)
)

// prometheusMetrics implements evaluation.MetricsCollector
type prometheusMetrics struct{}

func (prometheusMetrics) RecordRun(ctx context.Context, report *evaluation.RunReport) {
	outcome := "success"
	if report.Aborted {
		outcome = "aborted"
	}
	evaluationRunsTotal.WithLabelValues(outcome).Inc()
	evaluationRunDuration.Observe(report.Duration.Seconds())
	highRiskPolicies.Set(float64(report.HighRiskPolicies))
}

func (prometheusMetrics) RecordDelivery(ctx context.Context, channel notification.Channel, success bool) {
	deliveriesTotal.WithLabelValues(channel.String(), outcomeLabel(success)).Inc()
}

func (prometheusMetrics) RecordTicket(ctx context.Context, tracker string, success bool) {
	ticketsTotal.WithLabelValues(tracker, outcomeLabel(success)).Inc()
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
