package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skypro1111/idn-stream-player/internal/metrics"
	"github.com/skypro1111/idn-stream-player/internal/protocol"
)

// Encoder and session errors. Every error leaves the encoder idle.
var (
	ErrInvalidCallOrder   = errors.New("stream: frame already open")
	ErrNoOpenFrame        = errors.New("stream: no open frame")
	ErrInvalidSampleCount = errors.New("stream: invalid sample count")
	ErrSendFailed         = errors.New("stream: send failed")
)

const controlBufferSize = 0x1000

// Sender transmits one datagram. Implementations must not retain packet.
type Sender interface {
	Send(packet []byte) error
}

// Clock provides the monotonic microsecond time base and the pacing sleep.
type Clock interface {
	Now() uint32
	Sleep(d time.Duration)
}

// SessionStats is a snapshot of the session counters
type SessionStats struct {
	Frames          uint64 `json:"frames"`
	Packets         uint64 `json:"packets"`
	Fragments       uint64 `json:"fragments"`
	Bytes           uint64 `json:"bytes"`
	Keepalives      uint64 `json:"keepalives"`
	ConfigAnnounces uint64 `json:"config_announces"`
	SendErrors      uint64 `json:"send_errors"`
	LastSequence    uint16 `json:"last_sequence"`
	Closed          bool   `json:"closed"`
}

// Session owns the IDN-Hello sequence counter of one client. Send, SendVoid
// and Close must be called from one goroutine; Stats may be called from any.
type Session struct {
	sender      Sender
	clock       Clock
	clientGroup uint8
	logger      *slog.Logger
	metrics     *metrics.Metrics

	sequence uint16
	buf      Buffer

	mu    sync.RWMutex
	stats SessionStats
}

// NewSession creates a session sending through sender. m may be nil.
func NewSession(sender Sender, clock Clock, clientGroup uint8, logger *slog.Logger, m *metrics.Metrics) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		sender:      sender,
		clock:       clock,
		clientGroup: clientGroup & protocol.ClientGroupMask,
		logger:      logger,
		metrics:     m,
	}
}

// Send stamps the next sequence number into the packet header at the start of
// packet and transmits it. The counter advances even if the transmission fails.
func (s *Session) Send(packet []byte) error {
	seq := s.sequence
	s.sequence++
	packet[2] = byte(seq >> 8)
	packet[3] = byte(seq)

	if err := s.sender.Send(packet); err != nil {
		s.mu.Lock()
		s.stats.SendErrors++
		s.mu.Unlock()
		s.metrics.RecordSendError()
		return fmt.Errorf("%w: sequence %d: %w", ErrSendFailed, seq, err)
	}

	s.mu.Lock()
	s.stats.Packets++
	s.stats.Bytes += uint64(len(packet))
	s.stats.LastSequence = seq
	s.mu.Unlock()
	s.metrics.RecordPacketSent(len(packet))
	return nil
}

// SendVoid sends an empty channel message to keep the channel open.
func (s *Session) SendVoid() error {
	s.buf.Ensure(controlBufferSize)
	b := s.buf.Bytes()

	n := protocol.PacketHeaderSize + protocol.ChannelMessageHeaderSize
	s.putHeaders(b, protocol.CmdMessage, protocol.ChannelMessageHeader{
		TotalSize: protocol.ChannelMessageHeaderSize,
		ContentID: protocol.ContentIDChannelMsg | protocol.ChunkVoid,
		Timestamp: s.clock.Now(),
	})

	if err := s.Send(b[:n]); err != nil {
		return fmt.Errorf("failed to send keepalive: %w", err)
	}

	s.mu.Lock()
	s.stats.Keepalives++
	s.mu.Unlock()
	s.metrics.RecordKeepalive()
	return nil
}

// Close closes the channel and then the session. The session close is
// attempted even if the channel close fails.
func (s *Session) Close() error {
	s.buf.Ensure(controlBufferSize)
	b := s.buf.Bytes()

	var errs []error

	msgLen := protocol.ChannelMessageHeaderSize + protocol.ChannelConfigHeaderSize
	s.putHeaders(b, protocol.CmdMessage, protocol.ChannelMessageHeader{
		TotalSize: uint16(msgLen),
		ContentID: protocol.ContentIDChannelMsg | protocol.ContentIDConfigLastFragment | protocol.ChunkVoid,
		Timestamp: s.clock.Now(),
	})
	protocol.PutChannelConfig(b[protocol.PacketHeaderSize+protocol.ChannelMessageHeaderSize:], protocol.ChannelConfig{
		Flags: protocol.ConfigClose,
	})
	if err := s.Send(b[:protocol.PacketHeaderSize+msgLen]); err != nil {
		errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
	}

	protocol.PutPacketHeader(b, protocol.PacketHeader{Command: protocol.CmdMessageClose, Flags: s.clientGroup})
	if err := s.Send(b[:protocol.PacketHeaderSize]); err != nil {
		errs = append(errs, fmt.Errorf("failed to close session: %w", err))
	}

	s.mu.Lock()
	s.stats.Closed = true
	s.mu.Unlock()

	return errors.Join(errs...)
}

// Stats returns a snapshot of the session counters
func (s *Session) Stats() SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// putHeaders writes a packet header without sequence and a channel message header.
func (s *Session) putHeaders(b []byte, cmd uint8, msg protocol.ChannelMessageHeader) {
	protocol.PutPacketHeader(b, protocol.PacketHeader{Command: cmd, Flags: s.clientGroup})
	protocol.PutChannelMessageHeader(b[protocol.PacketHeaderSize:], msg)
}

func (s *Session) recordFrame(fragments int, config bool) {
	s.mu.Lock()
	s.stats.Frames++
	if fragments > 1 {
		s.stats.Fragments += uint64(fragments)
	}
	if config {
		s.stats.ConfigAnnounces++
	}
	s.mu.Unlock()
}
