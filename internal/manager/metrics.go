package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	engineLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phrased",
			Subsystem: "engine",
			Name:      "loads_total",
			Help:      "Model loads by outcome",
		},
		[]string{"outcome"},
	)

	generateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "phrased",
			Name:      "generate_duration_seconds",
			Help:      "Generation latency by outcome",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(engineLoadsTotal, generateDuration)
}
