package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordPacketSent(100)
	m.RecordPacketSent(28)
	m.RecordSendError()
	m.RecordFrame(200, 1412, 1)
	m.RecordFrame(20000, 140012, 3)
	m.RecordKeepalive()
	m.RecordDecodeError("too_few_points")
	m.RecordSequenceGap(4)
	m.RecordPacketReceived("Message")
	m.SetActiveSessions(2)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"packets sent", testutil.ToFloat64(m.PacketsSent), 2},
		{"bytes sent", testutil.ToFloat64(m.BytesSent), 128},
		{"send errors", testutil.ToFloat64(m.SendErrors), 1},
		{"frames sent", testutil.ToFloat64(m.FramesSent), 2},
		{"fragments sent", testutil.ToFloat64(m.FragmentsSent), 3},
		{"keepalives", testutil.ToFloat64(m.Keepalives), 1},
		{"decode errors", testutil.ToFloat64(m.DecodeErrors.WithLabelValues("too_few_points")), 1},
		{"sequence gaps", testutil.ToFloat64(m.SequenceGaps), 1},
		{"packets lost", testutil.ToFloat64(m.PacketsLost), 4},
		{"packets received", testutil.ToFloat64(m.PacketsReceived.WithLabelValues("Message")), 1},
		{"active sessions", testutil.ToFloat64(m.ActiveSessions), 2},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.RecordPacketSent(1)
	m.RecordFrame(2, 30, 1)
	m.RecordPacingSleep(0.01)
	m.RecordHTTPRequest("GET", "/health", "200", 0.001)
}

func TestSeparateRegistries(t *testing.T) {
	// Each registry accepts its own set without a duplicate registration panic.
	NewMetrics(prometheus.NewRegistry())
	NewMetrics(prometheus.NewRegistry())
}
