package services

import "github.com/prometheus/client_golang/prometheus"

var (
	generationAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_generation_attempts_total",
			Help: "Total number of calls made to the text generation API",
		},
	)
	generationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_generation_failures_total",
			Help: "Total number of challenge generations that exhausted all retries",
		},
	)
	levelUpsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "level_ups_total",
			Help: "Total number of level-ups across all profiles",
		},
	)
)

// InitMetrics registers the service-level metrics. Call this from main.go
// alongside middleware.InitPrometheus.
func InitMetrics() {
	prometheus.MustRegister(generationAttemptsTotal)
	prometheus.MustRegister(generationFailuresTotal)
	prometheus.MustRegister(levelUpsTotal)
}
