package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skypro1111/idn-stream-player/internal/config"
	"github.com/skypro1111/idn-stream-player/internal/metrics"
	"github.com/skypro1111/idn-stream-player/internal/protocol"
)

const (
	packetQueueSize = 1000

	// Late packets further back than this are counted as reordered, not lost.
	sequenceWindow = 0x8000
)

// Monitor receives IDN-Hello packets, checks them and keeps per client
// statistics. It answers ping requests and understands the realtime stream
// commands only.
type Monitor struct {
	conn    *net.UDPConn
	config  config.MonitorConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	// Concurrency management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Packets of one client must be handled in order, so there is a single
	// processor.
	packetChan chan *incomingPacket

	sessions map[string]*clientSession
	now      func() time.Time

	packetsReceived  uint64
	packetsProcessed uint64
	packetsDropped   uint64
	parseErrors      uint64
	sessionsClosed   uint64
	sessionsExpired  uint64
	mu               sync.RWMutex
}

// incomingPacket represents a received UDP packet with metadata
type incomingPacket struct {
	data       []byte
	remoteAddr *net.UDPAddr
	timestamp  time.Time
}

// clientSession tracks one client address and client group.
type clientSession struct {
	SessionInfo

	expectedSeq uint16
	fragments   []byte // Reassembled payload of a fragmented frame
	inFrame     bool
}

// SessionInfo is a snapshot of one monitored client session
type SessionInfo struct {
	ID                string    `json:"id"`
	RemoteAddr        string    `json:"remote_addr"`
	ClientGroup       uint8     `json:"client_group"`
	FirstSeen         time.Time `json:"first_seen"`
	LastSeen          time.Time `json:"last_seen"`
	Packets           uint64    `json:"packets"`
	Bytes             uint64    `json:"bytes"`
	LostPackets       uint64    `json:"lost_packets"`
	Reordered         uint64    `json:"reordered"`
	Frames            uint64    `json:"frames"`
	FragmentedFrames  uint64    `json:"fragmented_frames"`
	FragmentErrors    uint64    `json:"fragment_errors"`
	Keepalives        uint64    `json:"keepalives"`
	ConfigAnnounces   uint64    `json:"config_announces"`
	ChannelOpen       bool      `json:"channel_open"`
	ServiceID         uint8     `json:"service_id"`
	ServiceMode       uint8     `json:"service_mode"`
	LastFrameSamples  int       `json:"last_frame_samples"`
	LastFrameDuration uint32    `json:"last_frame_duration_us"`
	LastFrameOnce     bool      `json:"last_frame_once"`
	LastSequence      uint16    `json:"last_sequence"`
}

// MonitorStatistics represents monitor counters and the open sessions
type MonitorStatistics struct {
	PacketsReceived  uint64        `json:"packets_received"`
	PacketsProcessed uint64        `json:"packets_processed"`
	PacketsDropped   uint64        `json:"packets_dropped"`
	ParseErrors      uint64        `json:"parse_errors"`
	SessionsClosed   uint64        `json:"sessions_closed"`
	SessionsExpired  uint64        `json:"sessions_expired"`
	ActiveSessions   int           `json:"active_sessions"`
	QueueSize        int           `json:"queue_size"`
	QueueCapacity    int           `json:"queue_capacity"`
	Sessions         []SessionInfo `json:"sessions"`
}

// NewMonitor creates a new monitor instance. m may be nil.
func NewMonitor(cfg config.MonitorConfig, logger *slog.Logger, m *metrics.Metrics) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		config:     cfg,
		logger:     logger,
		metrics:    m,
		ctx:        ctx,
		cancel:     cancel,
		packetChan: make(chan *incomingPacket, packetQueueSize),
		sessions:   make(map[string]*clientSession),
		now:        time.Now,
	}
}

// Start begins listening for UDP packets
func (s *Monitor) Start() error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(s.config.BindAddress, strconv.Itoa(s.config.UDPPort)))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP: %w", err)
	}
	s.conn = conn

	if err := s.conn.SetReadBuffer(s.config.BufferSize); err != nil {
		s.logger.Warn("Failed to set UDP read buffer size",
			slog.Int("buffer_size", s.config.BufferSize),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("IDN monitor started",
		slog.String("address", s.conn.LocalAddr().String()),
		slog.Int("buffer_size", s.config.BufferSize),
	)

	s.wg.Add(2)
	go s.packetProcessor()
	go s.receiveLoop()

	return nil
}

// Run starts the monitor and stops it when ctx is done.
func (s *Monitor) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Addr returns the local listening address, nil before Start.
func (s *Monitor) Addr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Stop gracefully stops the monitor
func (s *Monitor) Stop() error {
	s.logger.Info("Stopping IDN monitor...")

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("Error closing UDP connection", slog.String("error", err.Error()))
		}
	}

	// The receive loop is the only producer.
	s.wg.Wait()

	stats := s.GetStatistics()
	s.logger.Info("IDN monitor stopped",
		slog.Uint64("packets_received", stats.PacketsReceived),
		slog.Uint64("packets_processed", stats.PacketsProcessed),
		slog.Uint64("parse_errors", stats.ParseErrors),
	)

	return nil
}

// receiveLoop is the main packet receiving loop
func (s *Monitor) receiveLoop() {
	defer s.wg.Done()
	defer close(s.packetChan)

	buffer := make([]byte, s.config.BufferSize)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		// Set read deadline to check for context cancellation periodically
		if err := s.conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error("Failed to set read deadline", slog.String("error", err.Error()))
			continue
		}

		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("Failed to read UDP packet", slog.String("error", err.Error()))
				continue
			}
		}

		s.mu.Lock()
		s.packetsReceived++
		s.mu.Unlock()

		// The buffer is reused
		packetData := make([]byte, n)
		copy(packetData, buffer[:n])

		packet := &incomingPacket{
			data:       packetData,
			remoteAddr: remoteAddr,
			timestamp:  s.now(),
		}

		select {
		case s.packetChan <- packet:
		default:
			s.mu.Lock()
			s.packetsDropped++
			s.mu.Unlock()
			s.logger.Warn("Packet processing queue full, dropping packet",
				slog.String("remote_addr", remoteAddr.String()),
				slog.Int("packet_size", n),
			)
		}
	}
}

// packetProcessor handles queued packets and expires idle sessions
func (s *Monitor) packetProcessor() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case packet, ok := <-s.packetChan:
			if !ok {
				return
			}
			s.handlePacket(packet)
		case <-ticker.C:
			s.expireSessions(s.now())
		}
	}
}

// handlePacket processes a single incoming packet
func (s *Monitor) handlePacket(packet *incomingPacket) {
	parsed, err := protocol.ParsePacket(packet.data)
	if err != nil {
		s.mu.Lock()
		s.parseErrors++
		s.mu.Unlock()
		s.metrics.RecordParseError()

		s.logger.Warn("Failed to parse packet",
			slog.String("remote_addr", packet.remoteAddr.String()),
			slog.Int("packet_size", len(packet.data)),
			slog.String("error", err.Error()),
		)
		return
	}

	s.mu.Lock()
	s.packetsProcessed++
	s.mu.Unlock()
	s.metrics.RecordPacketReceived(protocol.CommandName(parsed.Header.Command))

	switch parsed.Header.Command {
	case protocol.CmdPingRequest:
		s.answerPing(packet)
	case protocol.CmdPingResponse:
		s.logger.Debug("Ignoring ping response", slog.String("remote_addr", packet.remoteAddr.String()))
	case protocol.CmdMessage, protocol.CmdMessageClose:
		s.processStreamPacket(packet, parsed)
	}
}

// answerPing echoes a ping request with the response command
func (s *Monitor) answerPing(packet *incomingPacket) {
	resp := make([]byte, len(packet.data))
	copy(resp, packet.data)
	resp[0] = protocol.CmdPingResponse

	if s.conn == nil {
		return
	}
	if _, err := s.conn.WriteToUDP(resp, packet.remoteAddr); err != nil {
		s.logger.Warn("Failed to answer ping",
			slog.String("remote_addr", packet.remoteAddr.String()),
			slog.String("error", err.Error()),
		)
	}
}

// processStreamPacket updates the session of the sending client
func (s *Monitor) processStreamPacket(packet *incomingPacket, parsed *protocol.Packet) {
	group := parsed.Header.Flags & protocol.ClientGroupMask
	key := sessionKey(packet.remoteAddr, group)

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[key]
	if !exists {
		if parsed.Header.Command == protocol.CmdMessageClose {
			s.logger.Debug("Session close for unknown session", slog.String("remote_addr", packet.remoteAddr.String()))
			return
		}
		session = &clientSession{
			SessionInfo: SessionInfo{
				ID:          uuid.NewString(),
				RemoteAddr:  packet.remoteAddr.String(),
				ClientGroup: group,
				FirstSeen:   packet.timestamp,
			},
			expectedSeq: parsed.Header.Sequence,
		}
		s.sessions[key] = session
		s.metrics.SetActiveSessions(len(s.sessions))

		s.logger.Info("Session opened",
			slog.String("session_id", session.ID),
			slog.String("remote_addr", session.RemoteAddr),
			slog.Int("client_group", int(group)),
		)
	}

	session.LastSeen = packet.timestamp
	session.Packets++
	session.Bytes += uint64(len(packet.data))
	s.trackSequence(session, parsed.Header.Sequence)

	if parsed.Header.Command == protocol.CmdMessageClose {
		delete(s.sessions, key)
		s.sessionsClosed++
		s.metrics.SetActiveSessions(len(s.sessions))

		s.logger.Info("Session closed",
			slog.String("session_id", session.ID),
			slog.String("remote_addr", session.RemoteAddr),
			slog.Uint64("frames", session.Frames),
			slog.Uint64("packets", session.Packets),
			slog.Uint64("lost_packets", session.LostPackets),
		)
		return
	}

	s.processMessage(session, parsed.Message)
}

// trackSequence counts the packets missing between the expected and the
// received sequence number. Packets older than expected are late, not lost.
func (s *Monitor) trackSequence(session *clientSession, seq uint16) {
	session.LastSequence = seq

	gap := seq - session.expectedSeq
	switch {
	case gap == 0:
		session.expectedSeq = seq + 1
	case gap < sequenceWindow:
		session.LostPackets += uint64(gap)
		session.expectedSeq = seq + 1
		s.metrics.RecordSequenceGap(int(gap))

		s.logger.Warn("Sequence gap detected",
			slog.String("session_id", session.ID),
			slog.Int("expected", int(seq-gap)),
			slog.Int("received", int(seq)),
			slog.Int("lost", int(gap)),
		)
	default:
		session.Reordered++
	}
}

// processMessage accounts one channel message. Fragments are reassembled so
// that every frame is counted once with its complete sample chunk.
func (s *Monitor) processMessage(session *clientSession, msg *protocol.ChannelMessage) {
	if msg.Config != nil {
		if msg.Config.Flags&protocol.ConfigClose != 0 {
			session.ChannelOpen = false
			s.logger.Info("Channel closed", slog.String("session_id", session.ID))
		} else {
			if !session.ChannelOpen {
				s.logger.Info("Channel opened",
					slog.String("session_id", session.ID),
					slog.Int("service_id", int(msg.Config.ServiceID)),
					slog.Int("service_mode", int(msg.Config.ServiceMode)),
				)
			}
			session.ChannelOpen = true
			session.ServiceID = msg.Config.ServiceID
			session.ServiceMode = msg.Config.ServiceMode
			session.ConfigAnnounces++
		}
	}

	chunkType := protocol.ChunkType(msg.Header.ContentID)
	if chunkType != protocol.ChunkFrameSequel && session.inFrame {
		// A new chunk while fragments are pending loses the pending frame.
		session.FragmentErrors++
		session.inFrame = false
		session.fragments = session.fragments[:0]
	}

	switch chunkType {
	case protocol.ChunkVoid:
		if msg.Config == nil || msg.Config.Flags&protocol.ConfigClose == 0 {
			session.Keepalives++
		}

	case protocol.ChunkFrame:
		s.completeFrame(session, msg.Payload)

	case protocol.ChunkFrameFirst:
		session.inFrame = true
		session.fragments = append(session.fragments[:0], msg.Payload...)

	case protocol.ChunkFrameSequel:
		if !session.inFrame {
			session.FragmentErrors++
			return
		}
		session.fragments = append(session.fragments, msg.Payload...)
		if protocol.IsLastFragment(msg.Header.ContentID) {
			session.inFrame = false
			session.FragmentedFrames++
			s.completeFrame(session, session.fragments)
			session.fragments = session.fragments[:0]
		}

	default:
		s.logger.Debug("Ignoring chunk type",
			slog.String("session_id", session.ID),
			slog.String("chunk_type", protocol.ChunkTypeName(chunkType)),
		)
	}
}

func (s *Monitor) completeFrame(session *clientSession, chunk []byte) {
	header, samples, err := protocol.ParseSampleChunk(chunk)
	if err != nil {
		session.FragmentErrors++
		s.logger.Warn("Invalid sample chunk",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	session.Frames++
	session.LastFrameSamples = len(samples)
	session.LastFrameDuration = header.Duration
	session.LastFrameOnce = header.Flags&protocol.FrameOnce != 0
	s.metrics.RecordFrameReceived()
}

// expireSessions drops sessions that have been silent for the session timeout
func (s *Monitor) expireSessions(now time.Time) {
	timeout := s.config.GetSessionTimeoutDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, session := range s.sessions {
		if now.Sub(session.LastSeen) < timeout {
			continue
		}
		delete(s.sessions, key)
		s.sessionsExpired++

		s.logger.Warn("Session timed out",
			slog.String("session_id", session.ID),
			slog.String("remote_addr", session.RemoteAddr),
			slog.Duration("idle", now.Sub(session.LastSeen)),
		)
	}
	s.metrics.SetActiveSessions(len(s.sessions))
}

// GetStatistics returns current monitor statistics
func (s *Monitor) GetStatistics() MonitorStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := MonitorStatistics{
		PacketsReceived:  s.packetsReceived,
		PacketsProcessed: s.packetsProcessed,
		PacketsDropped:   s.packetsDropped,
		ParseErrors:      s.parseErrors,
		SessionsClosed:   s.sessionsClosed,
		SessionsExpired:  s.sessionsExpired,
		ActiveSessions:   len(s.sessions),
		QueueSize:        len(s.packetChan),
		QueueCapacity:    cap(s.packetChan),
		Sessions:         make([]SessionInfo, 0, len(s.sessions)),
	}
	for _, session := range s.sessions {
		stats.Sessions = append(stats.Sessions, session.SessionInfo)
	}
	sort.Slice(stats.Sessions, func(i, j int) bool {
		return stats.Sessions[i].FirstSeen.Before(stats.Sessions[j].FirstSeen)
	})
	return stats
}

func sessionKey(addr *net.UDPAddr, group uint8) string {
	return fmt.Sprintf("%s/%d", addr, group)
}
