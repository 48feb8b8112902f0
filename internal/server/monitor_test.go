package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/skypro1111/idn-stream-player/internal/config"
	"github.com/skypro1111/idn-stream-player/internal/ilda"
	"github.com/skypro1111/idn-stream-player/internal/player"
	"github.com/skypro1111/idn-stream-player/internal/protocol"
	"github.com/skypro1111/idn-stream-player/internal/stream"
	"github.com/skypro1111/idn-stream-player/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		BindAddress:    "127.0.0.1",
		UDPPort:        0,
		BufferSize:     config.DefaultBufferSize,
		SessionTimeout: 10,
	}
}

// capture collects the packets an encoder sends.
type capture struct {
	packets [][]byte
}

func (c *capture) Send(packet []byte) error {
	c.packets = append(c.packets, append([]byte(nil), packet...))
	return nil
}

type stepClock struct{ now uint32 }

func (c *stepClock) Now() uint32           { return c.now }
func (c *stepClock) Sleep(d time.Duration) { c.now += uint32(d / time.Microsecond) }

// encode produces the packets of frames with the given sample counts and a
// closing handshake.
func encode(t *testing.T, sampleCounts ...int) [][]byte {
	t.Helper()
	sender := &capture{}
	clock := &stepClock{now: 1000}
	session := stream.NewSession(sender, clock, 2, testLogger(), nil)
	enc := stream.NewEncoder(session, stream.EncoderConfig{
		ServiceID:   1,
		FramePeriod: time.Second / 30,
		ScanSpeed:   30000,
	}, testLogger(), nil)

	for _, n := range sampleCounts {
		if err := enc.OpenFrame(); err != nil {
			t.Fatalf("OpenFrame failed: %v", err)
		}
		for i := 0; i < n; i++ {
			if err := enc.PutSample(int16(i), int16(-i), 255, 128, 0); err != nil {
				t.Fatalf("PutSample failed: %v", err)
			}
		}
		if err := enc.PushFrame(); err != nil {
			t.Fatalf("PushFrame failed: %v", err)
		}
	}
	if err := enc.SendVoid(); err != nil {
		t.Fatalf("SendVoid failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return sender.packets
}

func feed(m *Monitor, from *net.UDPAddr, packets [][]byte) {
	for _, p := range packets {
		m.handlePacket(&incomingPacket{data: p, remoteAddr: from, timestamp: m.now()})
	}
}

var clientAddr = &net.UDPAddr{IP: net.IPv4(10, 0, 0, 7), Port: 40000}

func TestMonitorTracksSession(t *testing.T) {
	m := NewMonitor(testMonitorConfig(), testLogger(), nil)

	// Last packet is the session close.
	packets := encode(t, 10, 20000, 3)
	feed(m, clientAddr, packets[:len(packets)-1])

	stats := m.GetStatistics()
	if stats.ActiveSessions != 1 {
		t.Fatalf("Expected 1 active session, got %d", stats.ActiveSessions)
	}

	s := stats.Sessions[0]
	if s.ClientGroup != 2 || s.ServiceID != 1 {
		t.Errorf("Expected client group 2 and service 1, got %d and %d", s.ClientGroup, s.ServiceID)
	}
	if s.Frames != 3 || s.FragmentedFrames != 1 {
		t.Errorf("Expected 3 frames with 1 fragmented, got %d and %d", s.Frames, s.FragmentedFrames)
	}
	if s.Keepalives != 1 {
		t.Errorf("Expected 1 keepalive, got %d", s.Keepalives)
	}
	if s.LastFrameSamples != 3 {
		t.Errorf("Expected last frame of 3 samples, got %d", s.LastFrameSamples)
	}
	if s.ChannelOpen {
		t.Error("Expected channel closed after the channel close message")
	}
	if s.LostPackets != 0 || s.FragmentErrors != 0 {
		t.Errorf("Expected clean stream, got %d lost and %d fragment errors", s.LostPackets, s.FragmentErrors)
	}

	feed(m, clientAddr, packets[len(packets)-1:])
	stats = m.GetStatistics()
	if stats.ActiveSessions != 0 || stats.SessionsClosed != 1 {
		t.Errorf("Expected session closed, got %d active and %d closed", stats.ActiveSessions, stats.SessionsClosed)
	}
}

func TestMonitorSequenceTracking(t *testing.T) {
	packets := encode(t, 5, 5, 5, 5, 5)

	tests := []struct {
		name      string
		order     []int
		lost      uint64
		reordered uint64
	}{
		{"in order", []int{0, 1, 2, 3, 4}, 0, 0},
		{"one lost", []int{0, 1, 3, 4}, 1, 0},
		{"two lost in a row", []int{0, 3, 4}, 2, 0},
		{"late packet", []int{0, 2, 1, 3}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(testMonitorConfig(), testLogger(), nil)
			for _, i := range tt.order {
				feed(m, clientAddr, packets[i:i+1])
			}

			s := m.GetStatistics().Sessions[0]
			if s.LostPackets != tt.lost {
				t.Errorf("Expected %d lost, got %d", tt.lost, s.LostPackets)
			}
			if s.Reordered != tt.reordered {
				t.Errorf("Expected %d reordered, got %d", tt.reordered, s.Reordered)
			}
		})
	}
}

func TestMonitorSequenceWraps(t *testing.T) {
	m := NewMonitor(testMonitorConfig(), testLogger(), nil)
	packets := encode(t, 5, 5)

	for i, seq := range []uint16{0xFFFF, 0x0000} {
		p := append([]byte(nil), packets[i]...)
		binary.BigEndian.PutUint16(p[2:4], seq)
		feed(m, clientAddr, [][]byte{p})
	}

	s := m.GetStatistics().Sessions[0]
	if s.LostPackets != 0 || s.Reordered != 0 {
		t.Errorf("Expected wrap without loss, got %d lost and %d reordered", s.LostPackets, s.Reordered)
	}
}

func TestMonitorFragmentErrors(t *testing.T) {
	packets := encode(t, 20000)
	// Frame fragments are packets 0..2.
	if len(packets) < 3 || protocol.ChunkType(binary.BigEndian.Uint16(packets[1][6:8])) != protocol.ChunkFrameSequel {
		t.Fatalf("Expected a fragmented frame, got %d packets", len(packets))
	}

	m := NewMonitor(testMonitorConfig(), testLogger(), nil)
	feed(m, clientAddr, [][]byte{packets[0], packets[2]})
	// A sequel without a pending frame
	feed(m, clientAddr, [][]byte{packets[2]})

	s := m.GetStatistics().Sessions[0]
	if s.Frames != 0 {
		t.Errorf("Expected no complete frame, got %d", s.Frames)
	}
	if s.FragmentErrors != 2 {
		t.Errorf("Expected 2 fragment errors, got %d", s.FragmentErrors)
	}
}

func TestMonitorParseErrors(t *testing.T) {
	m := NewMonitor(testMonitorConfig(), testLogger(), nil)

	feed(m, clientAddr, [][]byte{
		{0x40},                         // Too short
		{0x77, 0x00, 0x00, 0x01},       // Unknown command
		{0x44, 0x00, 0x00, 0x01, 0xFF}, // Close with payload
	})

	stats := m.GetStatistics()
	if stats.ParseErrors != 3 {
		t.Errorf("Expected 3 parse errors, got %d", stats.ParseErrors)
	}
	if stats.ActiveSessions != 0 {
		t.Errorf("Expected no sessions, got %d", stats.ActiveSessions)
	}
}

func TestMonitorExpiresSessions(t *testing.T) {
	m := NewMonitor(testMonitorConfig(), testLogger(), nil)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	feed(m, clientAddr, encode(t, 5)[:1])

	m.expireSessions(start.Add(9 * time.Second))
	if m.GetStatistics().ActiveSessions != 1 {
		t.Fatal("Expected session to survive before the timeout")
	}

	m.expireSessions(start.Add(10 * time.Second))
	stats := m.GetStatistics()
	if stats.ActiveSessions != 0 || stats.SessionsExpired != 1 {
		t.Errorf("Expected session expired, got %d active and %d expired", stats.ActiveSessions, stats.SessionsExpired)
	}
}

func TestMonitorAnswersPing(t *testing.T) {
	m := NewMonitor(testMonitorConfig(), testLogger(), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	conn, err := net.DialUDP("udp", nil, m.Addr())
	if err != nil {
		t.Fatalf("DialUDP failed: %v", err)
	}
	defer conn.Close()

	ping := []byte{protocol.CmdPingRequest, 0x00, 0x12, 0x34, 0xDE, 0xAD}
	if _, err := conn.Write(ping); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Expected ping response, got %v", err)
	}

	want := []byte{protocol.CmdPingResponse, 0x00, 0x12, 0x34, 0xDE, 0xAD}
	if !bytes.Equal(buf[:n], want) {
		t.Errorf("Expected % X, got % X", want, buf[:n])
	}
}

// ildaFile builds frames of three true color points and a terminator.
func ildaFile(frames int) []byte {
	var buf bytes.Buffer
	header := func(records uint16) {
		h := make([]byte, ilda.SectionHeaderSize)
		copy(h, ilda.Signature)
		h[7] = ilda.Format2DTrueColor
		binary.BigEndian.PutUint16(h[24:26], records)
		buf.Write(h)
	}
	for i := 0; i < frames; i++ {
		header(3)
		for j := 0; j < 3; j++ {
			binary.Write(&buf, binary.BigEndian, int16(j*100))
			binary.Write(&buf, binary.BigEndian, int16(j*100))
			status := byte(0)
			if j == 2 {
				status = 0x80
			}
			buf.Write([]byte{status, 0, 0, 255})
		}
	}
	header(0)
	return buf.Bytes()
}

func TestPlayerToMonitorLoopback(t *testing.T) {
	m := NewMonitor(testMonitorConfig(), testLogger(), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	sender, err := transport.NewUDPSender("127.0.0.1", m.Addr().Port)
	if err != nil {
		t.Fatalf("NewUDPSender failed: %v", err)
	}
	defer sender.Close()

	cfg := config.Default()
	cfg.Stream.Server = "127.0.0.1"
	cfg.Stream.ClientGroup = 4
	cfg.Stream.FrameRate = 100
	cfg.Stream.Hold = 0

	p := player.New(cfg, sender, transport.NewMonotonicClock(), testLogger(), nil)
	if err := p.RunReader(context.Background(), bytes.NewReader(ildaFile(3))); err != nil {
		t.Fatalf("RunReader failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if m.GetStatistics().SessionsClosed == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats := m.GetStatistics()
	if stats.SessionsClosed != 1 {
		t.Fatalf("Expected the session close to arrive, got %+v", stats)
	}
	if stats.PacketsProcessed != 5 {
		t.Errorf("Expected 5 packets (3 frames and the close handshake), got %d", stats.PacketsProcessed)
	}
	if stats.ParseErrors != 0 {
		t.Errorf("Expected no parse errors, got %d", stats.ParseErrors)
	}
}
