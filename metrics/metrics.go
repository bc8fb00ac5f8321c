// Package metrics exports the lifecycle of portal sockets as Prometheus
// metrics.
package metrics

import (
	"time"

	"github.com/karagenc/portal-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Config struct {
	// Default: "portal"
	Namespace string

	// Default: ""
	Subsystem string

	// Added to every metric.
	ConstLabels prometheus.Labels

	// Buckets of the connect duration and reconnect delay histograms.
	//
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Default: prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

// Collector holds the metrics shared by every instrumented socket.
type Collector struct {
	attempts        prometheus.Counter
	opens           prometheus.Counter
	closes          *prometheus.CounterVec
	openSockets     prometheus.Gauge
	connectDuration prometheus.Histogram
	reconnectDelay  prometheus.Histogram
	received        prometheus.Counter
}

// New creates the metrics and registers them. It panics if they are
// already registered to the registerer.
func New(config *Config) *Collector {
	c := Config{}
	if config != nil {
		c = *config
	}
	if c.Namespace == "" {
		c.Namespace = "portal"
	}
	if c.Buckets == nil {
		c.Buckets = prometheus.DefBuckets
	}
	if c.Registerer == nil {
		c.Registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(c.Registerer)

	return &Collector{
		attempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "connection_attempts_total",
			Help:        "Connection attempts that reached a transport.",
			ConstLabels: c.ConstLabels,
		}),
		opens: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "opens_total",
			Help:        "Connections that were opened.",
			ConstLabels: c.ConstLabels,
		}),
		closes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "closes_total",
			Help:        "Closed connections and attempts by reason.",
			ConstLabels: c.ConstLabels,
		}, []string{"reason"}),
		openSockets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "open_sockets",
			Help:        "Sockets that are currently opened.",
			ConstLabels: c.ConstLabels,
		}),
		connectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "connect_duration_seconds",
			Help:        "Time from connecting to opened.",
			ConstLabels: c.ConstLabels,
			Buckets:     c.Buckets,
		}),
		reconnectDelay: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "reconnect_delay_seconds",
			Help:        "Delays before reconnection attempts.",
			ConstLabels: c.ConstLabels,
			Buckets:     c.Buckets,
		}),
		received: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "events_received_total",
			Help:        "Inbound events.",
			ConstLabels: c.ConstLabels,
		}),
	}
}

// Instrument adds the handlers that feed the collector to s. Call it
// before opening the socket.
func (c *Collector) Instrument(s *portal.Socket) {
	// Handlers of a socket never run concurrently.
	var (
		connectingAt time.Time
		opened       bool
	)

	s.OnConnecting(func() {
		connectingAt = time.Now()
		c.attempts.Inc()
	})
	s.OnOpen(func() {
		opened = true
		c.opens.Inc()
		c.openSockets.Inc()
		if !connectingAt.IsZero() {
			c.connectDuration.Observe(time.Since(connectingAt).Seconds())
		}
	})
	s.OnClose(func(reason portal.Reason) {
		c.closes.WithLabelValues(string(reason)).Inc()
		if opened {
			opened = false
			c.openSockets.Dec()
		}
		connectingAt = time.Time{}
	})
	s.OnWaiting(func(delay time.Duration, _ int) {
		c.reconnectDelay.Observe(delay.Seconds())
	})
	s.OnAny(func(string, any) {
		c.received.Inc()
	})
}
