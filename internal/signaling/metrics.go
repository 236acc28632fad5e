package signaling

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks the signaling hub. A nil *Metrics records nothing.
type Metrics struct {
	Connections prometheus.Gauge
	Peers       prometheus.Gauge
	Messages    *prometheus.CounterVec
	Errors      *prometheus.CounterVec
}

// NewMetrics creates the hub metrics and registers them on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Number of open signaling websockets",
		}),
		Peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_peers",
			Help:      "Number of identities currently claimed",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Signaling messages received, by type",
		}, []string{"type"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors returned to peers, by code",
		}, []string{"code"}),
	}

	if reg != nil {
		reg.MustRegister(m.Connections, m.Peers, m.Messages, m.Errors)
	}
	return m
}

func (m *Metrics) connected(delta float64) {
	if m != nil {
		m.Connections.Add(delta)
	}
}

func (m *Metrics) registered(delta float64) {
	if m != nil {
		m.Peers.Add(delta)
	}
}

// message counts an inbound message. Unknown types share one label so a
// client cannot grow the series.
func (m *Metrics) message(kind string) {
	if m == nil {
		return
	}
	switch kind {
	case MessageTypeOpen, MessageTypeSignal:
	default:
		kind = "invalid"
	}
	m.Messages.WithLabelValues(kind).Inc()
}

func (m *Metrics) failed(code string) {
	if m != nil {
		m.Errors.WithLabelValues(code).Inc()
	}
}
