package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cartOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

func recordOperation(operation string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "rejected"
	}
	cartOperations.WithLabelValues(operation, outcome).Inc()
}
