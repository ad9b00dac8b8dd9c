// Package metrics exposes the scheduler's step-count, active-flow, and
// control-queue-depth instrumentation, grounded on KartikBazzad-bunbase's
// bun-kms/internal/metrics package: package-level promauto vars rather
// than a struct threaded through constructors, since these counters are
// process-global by nature (one scheduler per process).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StepsTotal counts every take_event call the scheduler's data-work
	// loop performs, across all flows, per spec.md §4.5's step budget.
	StepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtengine_scheduler_steps_total",
		Help: "Total number of operator take_event calls processed by the scheduler.",
	})

	// ActiveFlows tracks the number of flows currently in the scheduler's
	// active-flows map (DEPLOYING through CANCELING).
	ActiveFlows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rtengine_active_flows",
		Help: "Number of flows currently registered in the scheduler.",
	})

	// ControlQueueDepth samples the bounded control queue's pending
	// length each time an op is dequeued, surfacing backpressure per spec.md §5.
	ControlQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rtengine_control_queue_depth",
		Help: "Number of control operations currently queued.",
	})

	// RuntimeErrorsTotal counts per-event RuntimeErrors logged and
	// dropped by the scheduler's data-work loop, per spec.md §7.
	RuntimeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtengine_runtime_errors_total",
			Help: "Total number of per-event RuntimeErrors encountered during data processing.",
		},
		[]string{"flow_id"},
	)
)
