package signaling

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageCounts(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, f := range families {
		if f.GetName() != "test_messages_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "type" {
					counts[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	return counts
}

func TestMetrics_MessageLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.message(MessageTypeOpen)
	m.message(MessageTypeSignal)
	m.message(MessageTypeSignal)
	for _, junk := range []string{"x1", "x2", "opened", ""} {
		m.message(junk)
	}

	assert.Equal(t, map[string]float64{
		MessageTypeOpen:   1,
		MessageTypeSignal: 2,
		"invalid":         4,
	}, messageCounts(t, reg))
}

func TestMetrics_NilRecordsNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.message(MessageTypeOpen)
		m.connected(1)
		m.registered(1)
		m.failed(CodeInvalidID)
	})
}
