package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	answersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agrimarket",
			Name:      "answers_total",
			Help:      "Total answers by kind and status",
		},
		[]string{"kind", "status"},
	)

	rulesMatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agrimarket",
			Name:      "dispatch_rules_matched_total",
			Help:      "Total queries routed by each decision rule",
		},
		[]string{"rule", "action"},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agrimarket",
			Name:      "dispatch_fallbacks_total",
			Help:      "Total fallbacks from one action to another",
		},
		[]string{"from", "to"},
	)

	answerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agrimarket",
			Name:      "answer_duration_seconds",
			Help:      "Duration of answering a query in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)
