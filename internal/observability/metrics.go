package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the IVR counters exported on /metrics.
type Metrics struct {
	CallsTotal               *prometheus.CounterVec
	BridgeFailures           prometheus.Counter
	VoicemailPersistFailures prometheus.Counter
	CallPersistFailures      prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			CallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ivr_calls_total",
				Help: "Inbound calls handled, by menu decision",
			}, []string{"decision"}),
			BridgeFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ivr_bridge_failures_total",
				Help: "Bridge calls that could not be placed",
			}),
			VoicemailPersistFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ivr_voicemail_persist_failures_total",
				Help: "Voicemail records that could not be stored",
			}),
			CallPersistFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ivr_call_persist_failures_total",
				Help: "Call records that could not be stored",
			}),
		}
	})
	return metricsInstance
}

func (m *Metrics) RecordCall(decision string) {
	if m == nil || m.CallsTotal == nil {
		return
	}
	m.CallsTotal.WithLabelValues(decision).Inc()
}

func (m *Metrics) RecordBridgeFailure() {
	if m == nil || m.BridgeFailures == nil {
		return
	}
	m.BridgeFailures.Inc()
}

func (m *Metrics) RecordVoicemailPersistFailure() {
	if m == nil || m.VoicemailPersistFailures == nil {
		return
	}
	m.VoicemailPersistFailures.Inc()
}

func (m *Metrics) RecordCallPersistFailure() {
	if m == nil || m.CallPersistFailures == nil {
		return
	}
	m.CallPersistFailures.Inc()
}
