package metrics

import (
	"hearth/contexts/household-governance/escalation-engine/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus exports engine observations as counters labelled by workflow.
type Prometheus struct {
	Retries        *prometheus.CounterVec
	Resolutions    *prometheus.CounterVec
	CooldownBlocks *prometheus.CounterVec
}

// NewPrometheus registers the engine collectors with registry. A nil
// registry leaves the collectors unregistered but usable.
func NewPrometheus(registry prometheus.Registerer) *Prometheus {
	factory := promauto.With(registry)
	return &Prometheus{
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_escalation_tx_retries_total",
			Help: "Transactions re-run after a write-write conflict",
		}, []string{"workflow"}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_escalation_resolutions_total",
			Help: "Counters that reached a terminal status",
		}, []string{"workflow", "status"}),
		CooldownBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_escalation_cooldown_blocks_total",
			Help: "Requests rejected because the subject's cooldown was active",
		}, []string{"workflow"}),
	}
}

func (m *Prometheus) ObserveRetry(workflow string) {
	m.Retries.WithLabelValues(workflow).Inc()
}

func (m *Prometheus) ObserveResolution(workflow string, status string) {
	m.Resolutions.WithLabelValues(workflow, status).Inc()
}

func (m *Prometheus) ObserveCooldownBlock(workflow string) {
	m.CooldownBlocks.WithLabelValues(workflow).Inc()
}

// Noop discards observations.
type Noop struct{}

func (Noop) ObserveRetry(string)              {}
func (Noop) ObserveResolution(string, string) {}
func (Noop) ObserveCooldownBlock(string)      {}

var _ ports.Metrics = (*Prometheus)(nil)
var _ ports.Metrics = Noop{}
