package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSockets(t *testing.T) {
	reg := prometheus.NewRegistry()
	live := 3
	require.NoError(t, ObserveSockets(reg, func() int { return live }))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "coach_ws_connected_learners", families[0].GetName())
	assert.Equal(t, 3.0, families[0].GetMetric()[0].GetGauge().GetValue())

	live = 0
	families, err = reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, 0.0, families[0].GetMetric()[0].GetGauge().GetValue())

	assert.Error(t, ObserveSockets(reg, func() int { return 0 }))
}
