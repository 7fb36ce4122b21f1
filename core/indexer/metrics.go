package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsIndexedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agrimarket",
			Name:      "indexer_documents_total",
			Help:      "Total source documents added to the index",
		},
	)

	chunksInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agrimarket",
			Name:      "indexer_chunks_total",
			Help:      "Total chunks inserted into the document store",
		},
	)

	indexRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agrimarket",
			Name:      "indexer_runs_total",
			Help:      "Total indexing runs by outcome",
		},
		[]string{"status"},
	)
)
