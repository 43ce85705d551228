package pyentropy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	estimatesRun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyentropy_estimates_total",
		Help: "The total number of entropy estimates run",
	})

	estimateTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyentropy_estimate_time",
		Help:    "Time spent running entropy estimates",
		Buckets: prometheus.DefBuckets,
	})

	diagnosticErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyentropy_diagnostic_errors_total",
		Help: "The total number of error diagnostics the estimator emitted",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyentropy_cache_hits",
		Help: "Number of times an estimate was served from the result cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyentropy_cache_miss",
		Help: "Number of times the result cache did not contain the estimate",
	})
)
