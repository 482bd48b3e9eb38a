package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Resolutions.Inc()
	m.SegmentCorrections.Inc()
	m.SegmentCorrections.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SegmentCorrections))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ResolutionMisses))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Inconsistencies))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

// A nil registerer still yields working counters so library callers
// never need to guard metric updates.
func TestNew_NilRegisterer(t *testing.T) {
	m := New(nil)
	m.Inconsistencies.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Inconsistencies))
}
