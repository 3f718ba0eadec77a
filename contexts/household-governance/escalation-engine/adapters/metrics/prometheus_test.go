package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCountsByWorkflow(t *testing.T) {
	registry := prometheus.NewRegistry()
	observed := NewPrometheus(registry)

	observed.ObserveRetry("deceased_vote")
	observed.ObserveRetry("deceased_vote")
	observed.ObserveResolution("asset_unlock", "auto_resolved")
	observed.ObserveCooldownBlock("role_promotion")

	require.Equal(t, float64(2), testutil.ToFloat64(observed.Retries.WithLabelValues("deceased_vote")))
	require.Equal(t, float64(1), testutil.ToFloat64(observed.Resolutions.WithLabelValues("asset_unlock", "auto_resolved")))
	require.Equal(t, float64(1), testutil.ToFloat64(observed.CooldownBlocks.WithLabelValues("role_promotion")))

	count, err := testutil.GatherAndCount(registry,
		"hearth_escalation_tx_retries_total",
		"hearth_escalation_resolutions_total",
		"hearth_escalation_cooldown_blocks_total",
	)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestPrometheusWithoutRegistry(t *testing.T) {
	observed := NewPrometheus(nil)
	observed.ObserveRetry("investment_unlock")
	require.Equal(t, float64(1), testutil.ToFloat64(observed.Retries.WithLabelValues("investment_unlock")))

	Noop{}.ObserveResolution("investment_unlock", "approved")
}
