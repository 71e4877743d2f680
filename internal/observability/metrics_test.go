package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.RecordsProduced.Add(3)
	a.ValuesRepaired.WithLabelValues("filled").Inc()

	assert.InDelta(t, 3.0, testutil.ToFloat64(a.RecordsProduced), 0.0001)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.RecordsProduced), 0.0001)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.ValuesRepaired.WithLabelValues("filled")), 0.0001)
}

func TestMetricsRegisterCleanly(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()

	require.NoError(t, reg.Register(m.BundlesConsumed))
	require.NoError(t, reg.Register(m.StationsFinished))
	require.NoError(t, reg.Register(m.GeocodeAPIDuration))

	m.StationsFinished.WithLabelValues("success").Inc()
	assert.Equal(t, 1, testutil.CollectAndCount(m.StationsFinished))
}
