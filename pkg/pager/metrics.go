package pager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// viewFetchesTotal counts fetches by operation (initialize, load_more) and outcome.
	viewFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "responses_view_fetches_total",
		Help: "Total view fetches by operation and outcome",
	}, []string{"operation", "outcome"})

	// viewFetchesDiscarded counts completed fetches dropped because a newer one was issued.
	viewFetchesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "responses_view_fetches_discarded_total",
		Help: "Total fetch results discarded because they were superseded",
	})

	// viewNavigationsTotal counts navigation attempts by direction and whether the window moved.
	viewNavigationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "responses_view_navigations_total",
		Help: "Total window navigations by direction and result",
	}, []string{"direction", "moved"})
)
