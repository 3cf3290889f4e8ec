package deal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "topar",
		Subsystem: "deals",
		Name:      "transitions_total",
		Help:      "Successful deal status transitions by resulting status.",
	},
	[]string{"status"},
)
