/*
metrics.go - Prometheus instrumentation

PURPOSE:
  Counters for payment application and the scheduler loop. Exposed on
  GET /metrics (see server.go).
*/
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kopichu_payments_applied_total",
		Help: "Payments applied to subscription ledgers, by source.",
	}, []string{"source"})

	schedulerTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kopichu_scheduler_ticks_total",
		Help: "Scheduler sweeps over due subscriptions.",
	})

	schedulerSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kopichu_scheduler_skips_total",
		Help: "Due subscriptions skipped because the cycle was already collected.",
	})

	schedulerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kopichu_scheduler_failures_total",
		Help: "Due subscriptions that failed to collect.",
	})
)
