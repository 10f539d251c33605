// Package metrics exposes the Prometheus instrumentation SPEC_FULL.md's
// DOMAIN STACK allocates to the orchestration core: retry-attempt counters
// (C1), cache hit/miss and lock-wait observability (C5), and pool
// concurrency (C5). Grounded on internal/observability/metrics.go's
// promauto-registered CounterVec/HistogramVec/GaugeVec pattern, trimmed to
// the handful of series this core's components actually produce.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RetryAttempts counts each attempt `retry.Do` makes, labelled by preset
// and outcome (spec §4.1, testable property 7: "at most max_retries+1
// invocations").
var RetryAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "krustycore_retry_attempts_total",
		Help: "Retry attempts made by internal/retry.Do, by preset and outcome.",
	},
	[]string{"preset", "outcome"},
)

// CacheResults counts SharedExploreCache reads, labelled by cache kind
// (file|glob) and result (hit|miss) (spec §3 Shared explore cache).
var CacheResults = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "krustycore_subagent_cache_results_total",
		Help: "Shared explore cache lookups, by cache kind and hit/miss.",
	},
	[]string{"kind", "result"},
)

// LockWait observes the time a builder spent waiting for a file lock
// before acquiring it or giving up (spec §4.5.4 lock-wait histogram).
var LockWait = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "krustycore_subagent_lock_wait_seconds",
		Help:    "Time spent waiting to acquire a shared-build-context file lock.",
		Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4},
	},
	[]string{"outcome"},
)

// PoolConcurrency gauges the number of sub-agents currently running
// in-flight inside a Pool.Execute call (spec §4.5.1 bounded semaphore).
var PoolConcurrency = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "krustycore_subagent_pool_in_flight",
		Help: "Sub-agents currently executing inside a pool invocation, by role.",
	},
	[]string{"role"},
)

// ToolExecutionDuration measures orchestrator tool-dispatch latency,
// labelled by tool name and outcome (spec §4.6.2 C6 tool dispatch).
var ToolExecutionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "krustycore_tool_execution_seconds",
		Help:    "Tool dispatch latency by tool name and outcome.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	},
	[]string{"tool", "outcome"},
)

// ActiveProcesses gauges shell commands the bash tool currently has
// running, tracked via internal/shellproc.ProcessRegistry.
var ActiveProcesses = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "krustycore_bash_active_processes",
		Help: "Shell commands currently running via the bash tool.",
	},
)
