package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	ticks   prometheus.Counter
	fired   *prometheus.CounterVec
	deduped *prometheus.CounterVec
	errors  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_ticks_total",
			Help: "Total number of poll ticks",
		}),
		fired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_fired_total",
				Help: "Notifications fired per category",
			},
			[]string{"category"},
		),
		deduped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_deduped_total",
				Help: "Firings suppressed by the dedupe ledger per category",
			},
			[]string{"category"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_check_errors_total",
				Help: "Failed category checks",
			},
			[]string{"category"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.ticks, m.fired, m.deduped, m.errors)
	}
	return m
}
