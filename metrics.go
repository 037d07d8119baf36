package quartermaster

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts store activity. A nil *Metrics records nothing.
type Metrics struct {
	operations    *prometheus.CounterVec
	regenerations prometheus.Counter
	goals         prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quartermaster_store_operations_total",
			Help: "Store operations by name and result.",
		}, []string{"op", "result"}),
		regenerations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quartermaster_goal_regenerations_total",
			Help: "Committed goal replacements.",
		}),
		goals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quartermaster_goals_generated",
			Help: "Goal records written by the last replacement.",
		}),
	}
	reg.MustRegister(m.operations, m.regenerations, m.goals)
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) goalsReplaced(n int) {
	if m == nil {
		return
	}
	m.regenerations.Inc()
	m.goals.Set(float64(n))
}
