package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements the Collector interface using Prometheus metrics.
type PrometheusCollector struct {
	// Session metrics
	sessionsTotal  prometheus.Counter
	sessionsActive prometheus.Gauge

	// Authentication metrics
	authAttemptsTotal *prometheus.CounterVec

	// Command metrics
	commandsTotal *prometheus.CounterVec

	// Transfer metrics
	transfersTotal     *prometheus.CounterVec
	transferSizeBytes  prometheus.Histogram
	dataConnFailsTotal prometheus.Counter
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ftpd_sessions_total",
			Help: "Total number of control sessions opened.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ftpd_sessions_active",
			Help: "Number of currently active control sessions.",
		}),

		authAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ftpd_auth_attempts_total",
			Help: "Total number of authentication attempts.",
		}, []string{"result"}),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ftpd_commands_total",
			Help: "Total number of FTP commands processed.",
		}, []string{"command"}),

		transfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ftpd_transfers_total",
			Help: "Total number of data transfers.",
		}, []string{"kind", "result"}),
		transferSizeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ftpd_transfer_size_bytes",
			Help:    "Size of completed transfers in bytes.",
			Buckets: []float64{1024, 10240, 102400, 1048576, 10485760, 104857600, 1073741824},
		}),
		dataConnFailsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ftpd_data_connection_failures_total",
			Help: "Total number of failed active-mode data connections.",
		}),
	}

	// Register all metrics
	reg.MustRegister(
		c.sessionsTotal,
		c.sessionsActive,
		c.authAttemptsTotal,
		c.commandsTotal,
		c.transfersTotal,
		c.transferSizeBytes,
		c.dataConnFailsTotal,
	)

	return c
}

// SessionOpened increments the session counter and active gauge.
func (c *PrometheusCollector) SessionOpened() {
	c.sessionsTotal.Inc()
	c.sessionsActive.Inc()
}

// SessionClosed decrements the active sessions gauge.
func (c *PrometheusCollector) SessionClosed() {
	c.sessionsActive.Dec()
}

// AuthAttempt increments the authentication attempts counter.
// The username is intentionally not used as a label to keep cardinality bounded.
func (c *PrometheusCollector) AuthAttempt(username string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.authAttemptsTotal.WithLabelValues(result).Inc()
}

// CommandProcessed increments the command counter.
func (c *PrometheusCollector) CommandProcessed(command string) {
	c.commandsTotal.WithLabelValues(command).Inc()
}

// TransferCompleted increments the transfer counter and observes the size.
func (c *PrometheusCollector) TransferCompleted(kind string, sizeBytes int64, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.transfersTotal.WithLabelValues(kind, result).Inc()
	if success {
		c.transferSizeBytes.Observe(float64(sizeBytes))
	}
}

// DataConnectionFailed increments the data connection failure counter.
func (c *PrometheusCollector) DataConnectionFailed() {
	c.dataConnFailsTotal.Inc()
}
