package acquire

import "github.com/prometheus/client_golang/prometheus"

var (
	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phrased",
			Subsystem: "acquire",
			Name:      "attempts_total",
			Help:      "Acquisition attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	bytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "phrased",
			Subsystem: "acquire",
			Name:      "bytes_total",
			Help:      "Bytes written by direct transfers",
		},
	)

	toolLaunchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "phrased",
			Subsystem: "acquire",
			Name:      "tool_launches_total",
			Help:      "External downloader processes started",
		},
	)
)

func init() {
	prometheus.MustRegister(attemptsTotal, bytesTotal, toolLaunchesTotal)
}
