package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the Prometheus collectors maintained by a System. A
// nil *Metrics is a valid no-op receiver so call sites never branch on
// whether metrics are enabled.
type Metrics struct {
	installs    *prometheus.CounterVec
	intercepted *prometheus.CounterVec
	withdrawals *prometheus.CounterVec
	reattaches  *prometheus.CounterVec
	broadcasts  *prometheus.CounterVec
	activeTaps  *prometheus.GaugeVec
	openRelays  prometheus.Gauge
}

// Install result label values.
const (
	installResultOK         = "ok"
	installResultNotFound   = "target_not_found"
	installResultBindFailed = "bind_failed"
)

// Withdrawal reason label values.
const (
	withdrawalReasonClient = "client_terminated"
	withdrawalReasonTarget = "target_terminated"
)

// NewMetrics registers the wiretap collectors with reg and returns them.
// Registration conflicts panic, matching promauto behaviour.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wiretap",
			Name:      "installs_total",
			Help:      "Wiretap install attempts by result.",
		}, []string{"service", "result"}),
		intercepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wiretap",
			Name:      "messages_intercepted_total",
			Help:      "Messages seen by an active wiretap proxy.",
		}, []string{"service"}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wiretap",
			Name:      "withdrawals_total",
			Help:      "Proxy withdrawals by reason.",
		}, []string{"service", "reason"}),
		reattaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wiretap",
			Name:      "reattaches_total",
			Help:      "Successful hand-offs to a fresh proxy after a target restart.",
		}, []string{"service"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wiretap",
			Name:      "broadcasts_total",
			Help:      "Load events fanned out to subscribers.",
		}, []string{"service"}),
		activeTaps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wiretap",
			Name:      "active_taps",
			Help:      "Currently attached wiretap proxies.",
		}, []string{"service"}),
		openRelays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wiretap",
			Name:      "open_relays",
			Help:      "Reply relays currently waiting for a reply.",
		}),
	}

	reg.MustRegister(
		m.installs,
		m.intercepted,
		m.withdrawals,
		m.reattaches,
		m.broadcasts,
		m.activeTaps,
		m.openRelays,
	)
	return m
}

func (m *Metrics) observeInstall(service, result string) {
	if m == nil {
		return
	}
	m.installs.WithLabelValues(service, result).Inc()
	if result == installResultOK {
		m.activeTaps.WithLabelValues(service).Inc()
	}
}

func (m *Metrics) observeIntercepted(service string) {
	if m == nil {
		return
	}
	m.intercepted.WithLabelValues(service).Inc()
}

func (m *Metrics) observeWithdrawal(service, reason string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(service, reason).Inc()
	m.activeTaps.WithLabelValues(service).Dec()
}

func (m *Metrics) observeReattach(service string) {
	if m == nil {
		return
	}
	m.reattaches.WithLabelValues(service).Inc()
}

func (m *Metrics) observeBroadcast(service string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(service).Inc()
}

func (m *Metrics) relayOpened() {
	if m == nil {
		return
	}
	m.openRelays.Inc()
}

func (m *Metrics) relayClosed() {
	if m == nil {
		return
	}
	m.openRelays.Dec()
}
