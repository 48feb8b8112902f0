package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the IDN stream player and monitor
type Metrics struct {
	// Sender metrics
	PacketsSent   prometheus.Counter
	BytesSent     prometheus.Counter
	SendErrors    prometheus.Counter
	FramesSent    prometheus.Counter
	FragmentsSent prometheus.Counter
	Keepalives    prometheus.Counter
	ConfigSent    prometheus.Counter
	FrameSamples  prometheus.Histogram
	FrameBytes    prometheus.Histogram
	PacingSleep   prometheus.Histogram

	// Decoder metrics
	DecodeErrors *prometheus.CounterVec

	// Monitor metrics
	PacketsReceived   *prometheus.CounterVec
	ParseErrors       prometheus.Counter
	SequenceGaps      prometheus.Counter
	PacketsLost       prometheus.Counter
	ActiveSessions    prometheus.Gauge
	FramesReassembled prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// registers with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Sender metrics
		PacketsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_packets_sent_total",
			Help: "Total number of IDN-Hello packets sent",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_bytes_sent_total",
			Help: "Total number of UDP payload bytes sent",
		}),
		SendErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_send_errors_total",
			Help: "Total number of failed packet transmissions",
		}),
		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_frames_sent_total",
			Help: "Total number of frames pushed",
		}),
		FragmentsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_fragments_sent_total",
			Help: "Total number of frame fragments sent for oversized frames",
		}),
		Keepalives: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_keepalives_sent_total",
			Help: "Total number of void channel messages sent",
		}),
		ConfigSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_channel_config_sent_total",
			Help: "Total number of channel configuration announcements",
		}),
		FrameSamples: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "idn_frame_samples",
			Help:    "Number of samples per frame, color shift samples included",
			Buckets: prometheus.ExponentialBuckets(2, 2, 16), // 2 to 64k
		}),
		FrameBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "idn_frame_bytes",
			Help:    "Channel message bytes per frame before fragmentation",
			Buckets: prometheus.ExponentialBuckets(64, 2, 14), // 64B to ~512KB
		}),
		PacingSleep: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "idn_pacing_sleep_seconds",
			Help:    "Time spent waiting between frames to match the frame rate",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10), // 0.5ms to ~250ms
		}),

		// Decoder metrics
		DecodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ilda_decode_errors_total",
			Help: "Total number of ILDA decode errors by kind",
		}, []string{"kind"}),

		// Monitor metrics
		PacketsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idn_packets_received_total",
			Help: "Total number of IDN-Hello packets received by command",
		}, []string{"command"}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_parse_errors_total",
			Help: "Total number of packet parsing errors",
		}),
		SequenceGaps: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_sequence_gaps_total",
			Help: "Total number of sequence gaps detected",
		}),
		PacketsLost: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_packets_lost_total",
			Help: "Total number of packets missing from the sequence",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "idn_active_sessions",
			Help: "Current number of client sessions seen by the monitor",
		}),
		FramesReassembled: factory.NewCounter(prometheus.CounterOpts{
			Name: "idn_frames_received_total",
			Help: "Total number of complete frames received",
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idn_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idn_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// All Record methods are no-ops on a nil *Metrics so components can run without metrics.

// RecordPacketSent records one transmitted packet of n bytes
func (m *Metrics) RecordPacketSent(n int) {
	if m == nil {
		return
	}
	m.PacketsSent.Inc()
	m.BytesSent.Add(float64(n))
}

// RecordSendError increments the send errors counter
func (m *Metrics) RecordSendError() {
	if m == nil {
		return
	}
	m.SendErrors.Inc()
}

// RecordFrame records a pushed frame
func (m *Metrics) RecordFrame(samples, messageBytes, fragments int) {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
	m.FrameSamples.Observe(float64(samples))
	m.FrameBytes.Observe(float64(messageBytes))
	if fragments > 1 {
		m.FragmentsSent.Add(float64(fragments))
	}
}

// RecordKeepalive increments the keepalive counter
func (m *Metrics) RecordKeepalive() {
	if m == nil {
		return
	}
	m.Keepalives.Inc()
}

// RecordConfig increments the channel config counter
func (m *Metrics) RecordConfig() {
	if m == nil {
		return
	}
	m.ConfigSent.Inc()
}

// RecordPacingSleep records a pacing wait
func (m *Metrics) RecordPacingSleep(seconds float64) {
	if m == nil {
		return
	}
	m.PacingSleep.Observe(seconds)
}

// RecordDecodeError increments the decode error counter for kind
func (m *Metrics) RecordDecodeError(kind string) {
	if m == nil {
		return
	}
	m.DecodeErrors.WithLabelValues(kind).Inc()
}

// RecordPacketReceived increments the received packets counter
func (m *Metrics) RecordPacketReceived(command string) {
	if m == nil {
		return
	}
	m.PacketsReceived.WithLabelValues(command).Inc()
}

// RecordParseError increments the parse errors counter
func (m *Metrics) RecordParseError() {
	if m == nil {
		return
	}
	m.ParseErrors.Inc()
}

// RecordSequenceGap records a gap of lost packets
func (m *Metrics) RecordSequenceGap(lost int) {
	if m == nil {
		return
	}
	m.SequenceGaps.Inc()
	m.PacketsLost.Add(float64(lost))
}

// SetActiveSessions sets the current number of monitored sessions
func (m *Metrics) SetActiveSessions(count int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(count))
}

// RecordFrameReceived increments the received frames counter
func (m *Metrics) RecordFrameReceived() {
	if m == nil {
		return
	}
	m.FramesReassembled.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
