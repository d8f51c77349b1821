package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("cleaning", reg)

	m.PricingCalculations.WithLabelValues("BEDROOM_BASED", "success").Inc()
	m.PricingCalculations.WithLabelValues("BEDROOM_BASED", "success").Inc()
	m.QuotesExpired.Add(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PricingCalculations.WithLabelValues("BEDROOM_BASED", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.QuotesExpired))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "cleaning_pricing_calculations_total")
	assert.Contains(t, names, "cleaning_quotes_expired_total")
}

func TestTwoRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics("cleaning", prometheus.NewRegistry())
		NewMetrics("cleaning", prometheus.NewRegistry())
	})
}
