package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Container counters, one gauge per terminal/in-flight bucket (§3.3 of
	// the cluster description document).
	ContainersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "appmaster_containers_total",
			Help: "Current container counts by bucket (requested, allocated, completed, failed, released)",
		},
		[]string{"bucket"},
	)

	ContainerAllocationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appmaster_container_allocations_total",
			Help: "Total number of container allocations received from the resource manager",
		},
	)

	ContainerReleasesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appmaster_container_releases_total",
			Help: "Total number of containers released back to the resource manager due to over-allocation",
		},
	)

	ContainerLaunchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appmaster_container_launch_duration_seconds",
			Help:    "Time taken for the container launcher to build a launch context and submit it",
			Buckets: prometheus.DefBuckets,
		},
	)

	ContainerStartDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appmaster_container_start_duration_seconds",
			Help:    "Time from startContainer submission to the onContainerStarted callback",
			Buckets: prometheus.DefBuckets,
		},
	)

	ContainerStopDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appmaster_container_stop_duration_seconds",
			Help:    "Time from stopContainer submission to the onContainerStopped callback",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Reconciliation Engine metrics.
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appmaster_reconciliation_event_duration_seconds",
			Help:    "Time taken to process one event in the reconciliation engine's queue",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appmaster_reconciliation_events_total",
			Help: "Total number of events processed by the reconciliation engine, by kind",
		},
		[]string{"kind"},
	)

	RequestContainersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appmaster_request_containers_total",
			Help: "Total number of containers asked of the resource manager by the reconciliation engine's refill",
		},
	)

	// Control RPC Server metrics.
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appmaster_rpc_requests_total",
			Help: "Total number of control RPC requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appmaster_rpc_request_duration_seconds",
			Help:    "Control RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Process Supervisor metrics.
	SupervisedProcessRestarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appmaster_supervised_process_restarts_total",
			Help: "Total number of times the supervised master process was spawned",
		},
	)

	SupervisedProcessExitCode = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "appmaster_supervised_process_last_exit_code",
			Help: "Exit code of the most recent supervised process termination",
		},
	)
)

func init() {
	prometheus.MustRegister(ContainersTotal)
	prometheus.MustRegister(ContainerAllocationsTotal)
	prometheus.MustRegister(ContainerReleasesTotal)
	prometheus.MustRegister(ContainerLaunchDuration)
	prometheus.MustRegister(ContainerStartDuration)
	prometheus.MustRegister(ContainerStopDuration)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationEventsTotal)
	prometheus.MustRegister(RequestContainersTotal)
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
	prometheus.MustRegister(SupervisedProcessRestarts)
	prometheus.MustRegister(SupervisedProcessExitCode)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
