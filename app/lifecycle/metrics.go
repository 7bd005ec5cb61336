package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"

	"fiber/responta/app/policy"
	"fiber/responta/apperror"
)

// Metrics counts transitions by action and outcome. A nil *Metrics records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "responta_aduan_transitions_total",
				Help: "Complaint lifecycle actions by outcome.",
			},
			[]string{"action", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.transitions)
	}
	return m
}

func (m *Metrics) observe(action policy.Action, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = apperror.KindOf(err).String()
	}
	m.transitions.WithLabelValues(action.String(), result).Inc()
}
