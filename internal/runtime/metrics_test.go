package runtime

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeInstall("svc", installResultOK)
	m.observeInstall("svc", installResultBindFailed)
	m.observeIntercepted("svc")
	m.observeIntercepted("svc")
	m.observeWithdrawal("svc", withdrawalReasonClient)
	m.observeReattach("svc")
	m.observeBroadcast("events")
	m.relayOpened()
	m.relayOpened()
	m.relayClosed()

	if got := testutil.ToFloat64(m.installs.WithLabelValues("svc", installResultOK)); got != 1 {
		t.Fatalf("installs{ok} = %v", got)
	}
	if got := testutil.ToFloat64(m.installs.WithLabelValues("svc", installResultBindFailed)); got != 1 {
		t.Fatalf("installs{bind_failed} = %v", got)
	}
	if got := testutil.ToFloat64(m.intercepted.WithLabelValues("svc")); got != 2 {
		t.Fatalf("intercepted = %v", got)
	}
	if got := testutil.ToFloat64(m.withdrawals.WithLabelValues("svc", withdrawalReasonClient)); got != 1 {
		t.Fatalf("withdrawals = %v", got)
	}
	// One attach and one withdrawal cancel out.
	if got := testutil.ToFloat64(m.activeTaps.WithLabelValues("svc")); got != 0 {
		t.Fatalf("active_taps = %v", got)
	}
	if got := testutil.ToFloat64(m.reattaches.WithLabelValues("svc")); got != 1 {
		t.Fatalf("reattaches = %v", got)
	}
	if got := testutil.ToFloat64(m.broadcasts.WithLabelValues("events")); got != 1 {
		t.Fatalf("broadcasts = %v", got)
	}
	if got := testutil.ToFloat64(m.openRelays); got != 1 {
		t.Fatalf("open_relays = %v", got)
	}
}

func TestMetricsNilReceiverIsNoOp(t *testing.T) {
	var m *Metrics
	m.observeInstall("svc", installResultOK)
	m.observeIntercepted("svc")
	m.observeWithdrawal("svc", withdrawalReasonTarget)
	m.observeReattach("svc")
	m.observeBroadcast("svc")
	m.relayOpened()
	m.relayClosed()
}
