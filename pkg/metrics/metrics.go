package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes classification and persistence counters for the station agent
type Metrics struct {
	registry *prometheus.Registry

	readingsTotal      *prometheus.CounterVec
	baseline           *prometheus.GaugeVec
	highStreak         prometheus.Gauge
	checkpointsTotal   *prometheus.CounterVec
	publishErrorsTotal *prometheus.CounterVec
	wsClients          prometheus.Gauge
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_readings_total",
			Help: "Readings classified, by ingest path and air quality verdict.",
		}, []string{"source", "air_quality"}),
		baseline: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "station_gas_baseline",
			Help: "Current adaptive gas sensor baseline by bucket (day, night).",
		}, []string{"bucket"}),
		highStreak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "station_air_quality_high_streak",
			Help: "Consecutive high-deviation readings feeding escalation.",
		}),
		checkpointsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_checkpoints_total",
			Help: "Baseline state checkpoints by result (ok, failed).",
		}, []string{"result"}),
		publishErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_publish_errors_total",
			Help: "Failed downstream publications by sink (mqtt, archive).",
		}, []string{"sink"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "station_websocket_clients",
			Help: "Connected live-feed clients.",
		}),
	}

	m.registry.MustRegister(
		m.readingsTotal,
		m.baseline,
		m.highStreak,
		m.checkpointsTotal,
		m.publishErrorsTotal,
		m.wsClients,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReading records a classified reading and the state it left behind
func (m *Metrics) ObserveReading(source, airQuality string, dayBaseline, nightBaseline *float64, streak int) {
	m.readingsTotal.WithLabelValues(source, airQuality).Inc()
	if dayBaseline != nil {
		m.baseline.WithLabelValues("day").Set(*dayBaseline)
	}
	if nightBaseline != nil {
		m.baseline.WithLabelValues("night").Set(*nightBaseline)
	}
	m.highStreak.Set(float64(streak))
}

// CheckpointSucceeded counts a successful state write
func (m *Metrics) CheckpointSucceeded() {
	m.checkpointsTotal.WithLabelValues("ok").Inc()
}

// CheckpointFailed counts a failed state write
func (m *Metrics) CheckpointFailed() {
	m.checkpointsTotal.WithLabelValues("failed").Inc()
}

// PublishFailed counts a failed publication to a downstream sink
func (m *Metrics) PublishFailed(sink string) {
	m.publishErrorsTotal.WithLabelValues(sink).Inc()
}

// ClientConnected tracks a live-feed connection
func (m *Metrics) ClientConnected() { m.wsClients.Inc() }

// ClientDisconnected tracks a live-feed disconnection
func (m *Metrics) ClientDisconnected() { m.wsClients.Dec() }
