package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "floodsim"

// Metrics holds the Prometheus counters, histograms, and gauges for the simulation service.
type Metrics struct {
	SimulationsTotal   prometheus.Counter
	SimulationDuration prometheus.Histogram
	OverallScore       prometheus.Histogram

	// Recommendation generator metrics.
	GeneratorRequests    *prometheus.CounterVec // labels: outcome={success,empty,disabled,timeout,error}
	GeneratorCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeneratorAPIDuration prometheus.Histogram
	GeneratorEnabled     prometheus.Gauge

	// Cost matcher metrics.
	RecommendationsClassified *prometheus.CounterVec // labels: rule

	// Result publishing metrics.
	ResultsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates all service metrics and registers them with reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics(true)

	reg.MustRegister(
		m.SimulationsTotal,
		m.SimulationDuration,
		m.OverallScore,
		m.GeneratorRequests,
		m.GeneratorCache,
		m.GeneratorAPIDuration,
		m.GeneratorEnabled,
		m.RecommendationsClassified,
		m.ResultsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		SimulationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      help("Total simulations completed."),
		}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      help("Duration of one simulation, including recommendation generation."),
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		OverallScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      help("Overall resilience score at the target year."),
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		GeneratorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_requests_total",
			Help:      help("Recommendation generator requests by outcome."),
		}, []string{"outcome"}),
		GeneratorCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_cache_total",
			Help:      help("Recommendation cache lookups by result."),
		}, []string{"result"}),
		GeneratorAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_api_duration_seconds",
			Help:      help("Chat completions API request duration in seconds."),
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		GeneratorEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generator_enabled",
			Help:      help("1 when AI recommendations are enabled, 0 otherwise."),
		}),
		RecommendationsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_classified_total",
			Help:      help("Recommendations priced by the cost matcher, by rule."),
		}, []string{"rule"}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_published_total",
			Help:      help("Simulation results written to Kafka."),
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      help("Failed attempts to write simulation results to Kafka."),
		}),
	}
}
