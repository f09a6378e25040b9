package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreHits tracks lookups that found a record, by layer (redis)
	StoreHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewery_store_hits_total",
			Help: "Total number of brewery store lookups that found a record",
		},
		[]string{"layer"}, // "redis"
	)

	// StoreMisses tracks lookups that found nothing
	StoreMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brewery_store_misses_total",
			Help: "Total number of brewery store lookups that found nothing",
		},
	)

	// StoreErrors tracks Redis operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewery_store_errors_total",
			Help: "Total number of brewery store operation errors",
		},
		[]string{"operation"}, // "get", "upsert", "query", "freshness", "clear"
	)
)
