// monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlineSessions   prometheus.Gauge
	ActiveRooms      prometheus.Gauge
	SeatedPlayers    *prometheus.GaugeVec
	MessagesReceived *prometheus.CounterVec
	MessageLatency   prometheus.Histogram
	RoundsStarted    prometheus.Counter
	RoundsEnded      *prometheus.CounterVec
	NumbersDrawn     prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		OnlineSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_sessions",
			Help:      "Number of connected websocket sessions",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms in the registry",
		}),
		SeatedPlayers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seated_players",
			Help:      "Number of seated players per room",
		}, []string{"room"}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}, []string{"msg_id"}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Total number of rounds started",
		}),
		RoundsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_ended_total",
			Help:      "Total number of rounds ended, by reason",
		}, []string{"reason"}),
		NumbersDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "numbers_drawn_total",
			Help:      "Total number of numbers drawn",
		}),
	}
}

// Monitor 持有一个独立的 registry，避免多次创建时重复注册到全局 registry
type Monitor struct {
	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	m := &Monitor{
		metrics:   NewMetrics(namespace),
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}
	m.registry.MustRegister(
		m.metrics.OnlineSessions,
		m.metrics.ActiveRooms,
		m.metrics.SeatedPlayers,
		m.metrics.MessagesReceived,
		m.metrics.MessageLatency,
		m.metrics.RoundsStarted,
		m.metrics.RoundsEnded,
		m.metrics.NumbersDrawn,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the server started",
		}, func() float64 { return time.Since(m.startTime).Seconds() }),
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the monitor's registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) IncOnlineSessions() {
	m.metrics.OnlineSessions.Inc()
}

func (m *Monitor) DecOnlineSessions() {
	m.metrics.OnlineSessions.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) IncMessagesReceived(msgID string) {
	m.metrics.MessagesReceived.WithLabelValues(msgID).Inc()
}

func (m *Monitor) ObserveMessageLatency(duration time.Duration) {
	m.metrics.MessageLatency.Observe(duration.Seconds())
}

// --- 实现 room.Observer 接口 ---

func (m *Monitor) RoundStarted(string) {
	m.metrics.RoundsStarted.Inc()
}

func (m *Monitor) RoundEnded(_ string, reason string) {
	m.metrics.RoundsEnded.WithLabelValues(reason).Inc()
}

func (m *Monitor) NumberDrawn(string) {
	m.metrics.NumbersDrawn.Inc()
}

func (m *Monitor) PlayersChanged(roomID string, count int) {
	m.metrics.SeatedPlayers.WithLabelValues(roomID).Set(float64(count))
}
