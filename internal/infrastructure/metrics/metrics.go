package metrics

import "github.com/prometheus/client_golang/prometheus"

// SweepMetrics counts the work done by the periodic sweeps.
type SweepMetrics struct {
	TasksPenalized prometheus.Counter
	GroupsReset    prometheus.Counter
	ItemsSkipped   *prometheus.CounterVec
}

// NewSweepMetrics registers the sweep counters on the given registry.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	m := &SweepMetrics{
		TasksPenalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweep_tasks_penalized_total",
			Help: "Total number of overdue tasks penalized",
		}),
		GroupsReset: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweep_groups_reset_total",
			Help: "Total number of group coin resets performed",
		}),
		ItemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweep_items_skipped_total",
			Help: "Total number of sweep items skipped due to per-item failures",
		}, []string{"sweep"}),
	}

	reg.MustRegister(m.TasksPenalized, m.GroupsReset, m.ItemsSkipped)
	return m
}
