package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_Singleton(t *testing.T) {
	if NewMetrics() != NewMetrics() {
		t.Fatalf("expected a single registered instance")
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	before := testutil.ToFloat64(m.CallsTotal.WithLabelValues("bridge"))
	m.RecordCall("bridge")
	if got := testutil.ToFloat64(m.CallsTotal.WithLabelValues("bridge")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	before = testutil.ToFloat64(m.BridgeFailures)
	m.RecordBridgeFailure()
	if got := testutil.ToFloat64(m.BridgeFailures); got != before+1 {
		t.Fatalf("expected bridge failure counted")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordCall("bridge")
	m.RecordBridgeFailure()
	m.RecordVoicemailPersistFailure()
	m.RecordCallPersistFailure()
}
