package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	return pb.GetCounter().GetValue()
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDecrypt("msg", nil)
		m.ObserveFatal("ParsingError")
		m.ObserveMigration("migrated")
		m.ObserveMappingLookup(true)
		m.ObserveDirectory(errors.New("boom"))
	})
}

func TestCountersIncrement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDecrypt("pkmsg", nil)
	m.ObserveDecrypt("pkmsg", errors.New("bad mac"))
	m.ObserveDecrypt("pkmsg", errors.New("bad mac"))
	m.ObserveMappingLookup(false)
	m.ObserveDirectory(nil)

	assert.Equal(t, 1.0, counterValue(t, m.DecryptOutcomes.WithLabelValues("pkmsg", "ok")))
	assert.Equal(t, 2.0, counterValue(t, m.DecryptOutcomes.WithLabelValues("pkmsg", "error")))
	assert.Equal(t, 1.0, counterValue(t, m.MappingLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, counterValue(t, m.DirectoryLookups.WithLabelValues("ok")))
}
