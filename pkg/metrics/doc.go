/*
Package metrics exposes the application master's Prometheus metric
catalog and a small Timer helper for instrumenting event-processing and
RPC latencies.

# Catalog

  - appmaster_containers_total{bucket} — current counts for the
    requested/allocated/completed/failed/released buckets (§3.3).
  - appmaster_container_allocations_total,
    appmaster_container_releases_total — lifetime counters.
  - appmaster_container_launch_duration_seconds — per-container launch
    timing. appmaster_container_start_duration_seconds and
    appmaster_container_stop_duration_seconds are registered, but no
    component observes them.
  - appmaster_reconciliation_event_duration_seconds,
    appmaster_reconciliation_events_total{kind} — reconciliation engine
    throughput and latency.
  - appmaster_rpc_requests_total{operation,outcome},
    appmaster_rpc_request_duration_seconds{operation} — control RPC
    server instrumentation.
  - appmaster_supervised_process_restarts_total,
    appmaster_supervised_process_last_exit_code — process supervisor
    state.

# Usage

	timer := metrics.NewTimer()
	// ... do work ...
	timer.ObserveDuration(metrics.ReconciliationDuration)

Handler returns the standard promhttp handler for mounting under
"/metrics" in the metrics HTTP server started by the AM lifecycle.
*/
package metrics
