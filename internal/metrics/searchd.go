package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/searchd/internal/datareader"
)

// Query and storage Prometheus metrics.
var (
	StatementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "statements_total",
			Help:      "Total number of parsed statements",
		},
		[]string{"kind"},
	)

	ParseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "parse_errors_total",
			Help:      "Total number of rejected queries",
		},
		[]string{"kind"}, // "syntax" / "semantic"
	)

	ParseDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "searchd",
			Name:      "parse_duration_seconds",
			Help:      "Query parse duration in seconds",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	ReadBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "read_bytes_total",
			Help:      "Bytes read from index files by file-backed readers",
		},
		[]string{"kind"},
	)

	ReadWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchd",
			Name:      "read_wait_seconds",
			Help:      "Time spent waiting on index file reads",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"kind"},
	)

	OptimizeTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "optimize_tasks_total",
			Help:      "Optimize tasks by outcome",
		},
		[]string{"status"}, // "done" / "failed" / "skipped" / "rejected"
	)
)

var registerOnce sync.Once

// Register registers the searchd metrics with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			StatementsTotal,
			ParseErrorsTotal,
			ParseDuration,
			ReadBytesTotal,
			ReadWait,
			OptimizeTasksTotal,
		)
	})
}

// Profiler feeds datareader timings into ReadBytesTotal and ReadWait.
type Profiler struct{}

var _ datareader.Profiler = Profiler{}

// ObserveRead implements datareader.Profiler.
func (Profiler) ObserveRead(kind datareader.Kind, bytes int, wait time.Duration) {
	k := kind.String()
	ReadBytesTotal.WithLabelValues(k).Add(float64(bytes))
	ReadWait.WithLabelValues(k).Observe(wait.Seconds())
}
