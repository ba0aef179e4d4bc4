package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeErrorsTotal tracks store operation errors by backend and operation.
var storeErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "responses_store_errors_total",
		Help: "Total number of response store errors",
	},
	[]string{"backend", "operation"}, // "redis"/"sqlite", "append"/"count"/"range"
)
