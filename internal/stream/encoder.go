package stream

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/skypro1111/idn-stream-player/internal/metrics"
	"github.com/skypro1111/idn-stream-player/internal/protocol"
)

const (
	frameBufferSize = 0x4000

	// ConfigInterval is the maximum time between channel config announcements.
	ConfigInterval = 200 * time.Millisecond

	fragmentDataSize = protocol.MaxMessageLen - protocol.ChannelMessageHeaderSize
)

// EncoderState represents the frame state of the encoder
type EncoderState int

const (
	StateIdle EncoderState = iota
	StateAccumulating
)

func (s EncoderState) String() string {
	if s == StateAccumulating {
		return "accumulating"
	}
	return "idle"
}

// EncoderConfig contains the channel and pacing parameters
type EncoderConfig struct {
	ServiceID   uint8
	FramePeriod time.Duration // Target time between frames
	ScanSpeed   uint32        // Samples per second
	ColorShift  int           // Samples the color lags behind the position
	JitterFree  bool          // Scan frames after the first only once
}

// Encoder builds discrete graphic frames from decoded samples. It implements
// the ilda.FrameConsumer contract and is not safe for concurrent use.
type Encoder struct {
	config  EncoderConfig
	session *Session
	clock   Clock
	logger  *slog.Logger
	metrics *metrics.Metrics

	buf Buffer

	// Frame in progress
	state         EncoderState
	contentID     uint16
	chunkOffset   int // Sample chunk header position
	payloadLen    int // Bytes of buf in use, packet header included
	sampleCount   int
	configPending bool

	// Session pacing state
	frameCount     uint64
	frameTimestamp uint32
	cfgTimestamp   uint32
}

// NewEncoder creates an encoder sending through session. m may be nil.
func NewEncoder(session *Session, config EncoderConfig, logger *slog.Logger, m *metrics.Metrics) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ColorShift < 0 {
		config.ColorShift = 0
	}
	return &Encoder{
		config:  config,
		session: session,
		clock:   session.clock,
		logger:  logger,
		metrics: m,
	}
}

// OpenFrame starts a new frame. A channel config header is inserted on the
// first frame and whenever the last one is older than ConfigInterval.
func (e *Encoder) OpenFrame() error {
	if e.state != StateIdle {
		e.reset()
		return ErrInvalidCallOrder
	}

	e.buf.Ensure(frameBufferSize)
	b := e.buf.Bytes()

	// Sequence is stamped on send, size and timestamp on push.
	protocol.PutPacketHeader(b, protocol.PacketHeader{Command: protocol.CmdMessage, Flags: e.session.clientGroup})

	e.contentID = protocol.ContentIDChannelMsg
	off := protocol.PacketHeaderSize + protocol.ChannelMessageHeaderSize

	now := e.clock.Now()
	e.configPending = e.frameCount == 0 || now-e.cfgTimestamp > uint32(ConfigInterval/time.Microsecond)
	if e.configPending {
		off += protocol.PutChannelConfig(b[off:], protocol.ChannelConfig{
			WordCount:   protocol.DescriptorWordCount,
			Flags:       protocol.ConfigRouting,
			ServiceID:   e.config.ServiceID,
			ServiceMode: protocol.ServiceModeGraphicDiscrete,
			Descriptors: protocol.Descriptors[:],
		})
		e.contentID |= protocol.ContentIDConfigLastFragment
	}

	e.chunkOffset = off
	e.payloadLen = off + protocol.SampleChunkHeaderSize
	e.sampleCount = 0
	e.state = StateAccumulating
	return nil
}

// PutSample appends one sample. With a color shift of N the color of sample k
// is stored in record k+N and the first N records are black.
func (e *Encoder) PutSample(x, y int16, r, g, b uint8) error {
	if e.state != StateAccumulating {
		return ErrNoOpenFrame
	}

	shift := e.config.ColorShift
	e.buf.Ensure(e.payloadLen + (1+shift)*protocol.SampleSize)
	buf := e.buf.Bytes()

	p := e.payloadLen
	putPosition(buf[p:], x, y)

	color := p + 4
	if e.sampleCount == 0 {
		for i := 0; i < shift; i++ {
			buf[color], buf[color+1], buf[color+2] = 0, 0, 0
			color += protocol.SampleSize
		}
	} else {
		color += shift * protocol.SampleSize
	}
	buf[color], buf[color+1], buf[color+2] = r, g, b

	e.payloadLen += protocol.SampleSize
	e.sampleCount++
	return nil
}

// PushFrame finalizes the frame, waits for the frame period and sends it,
// split into fragments when it exceeds the maximum message length.
func (e *Encoder) PushFrame() error {
	if e.state != StateAccumulating {
		return ErrNoOpenFrame
	}
	defer e.reset()

	if e.sampleCount < 2 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleCount, e.sampleCount)
	}

	buf := e.buf.Bytes()

	// Hold the last position while the shifted color catches up.
	for i := 0; i < e.config.ColorShift; i++ {
		last := e.payloadLen - protocol.SampleSize
		copy(buf[e.payloadLen:e.payloadLen+4], buf[last:last+4])
		e.payloadLen += protocol.SampleSize
		e.sampleCount++
	}

	// Duration spans the segments between samples, not the samples.
	var flags uint8
	if e.config.JitterFree && e.frameCount != 0 {
		flags |= protocol.FrameOnce
	}
	protocol.PutSampleChunkHeader(buf[e.chunkOffset:], protocol.SampleChunkHeader{
		Flags:    flags,
		Duration: FrameDuration(e.sampleCount, e.config.ScanSpeed),
	})

	if e.frameCount != 0 {
		e.pace()
	}
	e.frameCount++

	now := e.clock.Now()
	e.frameTimestamp = now
	if e.configPending {
		e.cfgTimestamp = now
	}

	msgLen := e.payloadLen - protocol.PacketHeaderSize
	fragments, err := e.send(buf, msgLen, now)
	if err != nil {
		return err
	}

	e.session.recordFrame(fragments, e.configPending)
	e.metrics.RecordFrame(e.sampleCount, msgLen, fragments)
	if e.configPending {
		e.metrics.RecordConfig()
	}
	return nil
}

// send transmits the assembled message and returns the number of packets used.
func (e *Encoder) send(buf []byte, msgLen int, now uint32) (int, error) {
	msg := buf[protocol.PacketHeaderSize:]

	if msgLen <= protocol.MaxMessageLen {
		protocol.PutChannelMessageHeader(msg, protocol.ChannelMessageHeader{
			TotalSize: uint16(msgLen),
			ContentID: e.contentID | protocol.ChunkFrame,
			Timestamp: now,
		})
		if err := e.session.Send(buf[:e.payloadLen]); err != nil {
			return 0, fmt.Errorf("failed to send frame %d: %w", e.frameCount, err)
		}
		return 1, nil
	}

	protocol.PutChannelMessageHeader(msg, protocol.ChannelMessageHeader{
		TotalSize: protocol.MaxMessageLen,
		ContentID: e.contentID | protocol.ChunkFrameFirst,
		Timestamp: now,
	})
	if err := e.session.Send(buf[:protocol.PacketHeaderSize+protocol.MaxMessageLen]); err != nil {
		return 0, fmt.Errorf("failed to send first fragment of frame %d: %w", e.frameCount, err)
	}

	// Fragments never carry a config header.
	contentID := e.contentID&^protocol.ContentIDConfigLastFragment | protocol.ChunkFrameSequel

	fragments := 1
	for split := protocol.PacketHeaderSize + protocol.MaxMessageLen; split < e.payloadLen; {
		n := e.payloadLen - split
		id := contentID
		if n > fragmentDataSize {
			n = fragmentDataSize
		} else {
			id |= protocol.ContentIDConfigLastFragment
		}

		// The fragment number is shared with the timestamp.
		now++
		packet := make([]byte, protocol.PacketHeaderSize+protocol.ChannelMessageHeaderSize+n)
		protocol.PutPacketHeader(packet, protocol.PacketHeader{Command: protocol.CmdMessage, Flags: e.session.clientGroup})
		protocol.PutChannelMessageHeader(packet[protocol.PacketHeaderSize:], protocol.ChannelMessageHeader{
			TotalSize: uint16(protocol.ChannelMessageHeaderSize + n),
			ContentID: id,
			Timestamp: now,
		})
		copy(packet[protocol.PacketHeaderSize+protocol.ChannelMessageHeaderSize:], buf[split:split+n])

		if err := e.session.Send(packet); err != nil {
			return fragments, fmt.Errorf("failed to send fragment %d of frame %d: %w", fragments, e.frameCount, err)
		}
		fragments++
		split += n
	}

	e.logger.Debug("Frame fragmented",
		slog.Uint64("frame", e.frameCount),
		slog.Int("message_bytes", msgLen),
		slog.Int("fragments", fragments),
	)
	return fragments, nil
}

// pace blocks for the rest of the frame period measured from the last frame.
func (e *Encoder) pace() {
	period := uint32(e.config.FramePeriod / time.Microsecond)
	wait := int32(period - (e.clock.Now() - e.frameTimestamp))
	if wait <= 0 {
		return
	}

	d := time.Duration(wait) * time.Microsecond
	e.clock.Sleep(d)
	e.metrics.RecordPacingSleep(d.Seconds())
}

// SendVoid discards any frame in progress and sends a keepalive.
func (e *Encoder) SendVoid() error {
	e.Discard()
	return e.session.SendVoid()
}

// Close discards any frame in progress and performs the close handshake.
func (e *Encoder) Close() error {
	if e.state != StateIdle {
		e.logger.Warn("Discarding unfinished frame on close", slog.Int("samples", e.sampleCount))
	}
	e.Discard()
	return e.session.Close()
}

// Discard drops the frame in progress, if any.
func (e *Encoder) Discard() {
	e.reset()
}

// FrameCount returns the number of frames pushed so far.
func (e *Encoder) FrameCount() uint64 {
	return e.frameCount
}

// State returns the frame state
func (e *Encoder) State() EncoderState {
	return e.state
}

func (e *Encoder) reset() {
	e.state = StateIdle
	e.payloadLen = 0
	e.sampleCount = 0
	e.configPending = false
}

// FrameDuration returns the scan time in microseconds of a frame with n
// samples at speed samples per second, clamped to the 24-bit field.
func FrameDuration(n int, speed uint32) uint32 {
	if n < 2 || speed == 0 {
		return 0
	}
	d := uint64(n-1) * 1_000_000 / uint64(speed)
	if d > protocol.MaxDuration {
		return protocol.MaxDuration
	}
	return uint32(d)
}

func putPosition(b []byte, x, y int16) {
	binary.BigEndian.PutUint16(b[0:2], uint16(x))
	binary.BigEndian.PutUint16(b[2:4], uint16(y))
}
