package protocol

import (
	"encoding/binary"
	"fmt"
)

// IDN-Hello constants
const (
	DefaultPort = 7255

	CmdPingRequest  = 0x08
	CmdPingResponse = 0x09
	CmdMessage      = 0x40 // Channel message, no acknowledge
	CmdMessageClose = 0x44 // Close the realtime session

	ClientGroupMask = 0x0F
)

// IDN-Stream content id layout: [ChannelMsg:1][Config/LastFragment:1][Channel:6][ChunkType:8]
const (
	ContentIDChannelMsg         = 0x8000
	ContentIDConfigLastFragment = 0x4000
	ContentIDChannelMask        = 0x3F00
	ContentIDChunkTypeMask      = 0x00FF

	ChunkVoid        = 0x00
	ChunkFrame       = 0x02 // Complete discrete graphic frame
	ChunkFrameFirst  = 0x03 // First fragment of a discrete graphic frame
	ChunkFrameSequel = 0xC0 // Sequel fragment of a discrete graphic frame

	ConfigRouting = 0x01
	ConfigClose   = 0x02

	ServiceModeGraphicDiscrete = 0x02

	FrameOnce = 0x01 // Scan the frame once instead of repeating it

	MaxDuration = 0xFFFFFF // 24-bit sample chunk duration
)

// Wire sizes
const (
	MaxMessageLen = 0xFF00 // Channel message including its header

	PacketHeaderSize         = 4 // [Command:1][Flags:1][Sequence:2]
	ChannelMessageHeaderSize = 8 // [TotalSize:2][ContentID:2][Timestamp:4]
	ChannelConfigHeaderSize  = 4 // [WordCount:1][Flags:1][ServiceID:1][ServiceMode:1]
	SampleChunkHeaderSize    = 4 // [Flags:1][Duration:3]
	SampleSize               = 7 // [X:2][Y:2][R:1][G:1][B:1]

	// Words are 32 bit, descriptors are 16 bit.
	DescriptorWordCount = uint8(len(Descriptors) / 2)
	DescriptorsSize     = len(Descriptors) * 2
)

// Descriptors is the fixed channel layout: X and Y with 16-bit precision,
// red 638 nm, green 532 nm, blue 460 nm and one padding tag.
var Descriptors = [8]uint16{
	0x4200, 0x4010, // X, 16 bit
	0x4210, 0x4010, // Y, 16 bit
	0x527E, // Red, 638 nm
	0x5214, // Green, 532 nm
	0x51CC, // Blue, 460 nm
	0x0000, // Void
}

// PacketHeader is the IDN-Hello packet header.
type PacketHeader struct {
	Command  uint8
	Flags    uint8 // Client group in the low nibble
	Sequence uint16
}

// ChannelMessageHeader prefixes every IDN-Stream channel message.
type ChannelMessageHeader struct {
	TotalSize uint16 // Header included
	ContentID uint16
	Timestamp uint32 // Microseconds
}

// ChannelConfig announces or closes a channel.
type ChannelConfig struct {
	WordCount   uint8
	Flags       uint8
	ServiceID   uint8
	ServiceMode uint8
	Descriptors []uint16
}

// SampleChunkHeader precedes the samples of a frame.
type SampleChunkHeader struct {
	Flags    uint8
	Duration uint32 // Microseconds, 24 bits
}

// Sample is one XYRGB point.
type Sample struct {
	X, Y    int16
	R, G, B uint8
}

// ChannelMessage is a parsed channel message. Config is set only when the
// content id announces one; Payload holds the chunk data that follows.
type ChannelMessage struct {
	Header  ChannelMessageHeader
	Config  *ChannelConfig
	Payload []byte
}

// Packet is a parsed IDN-Hello datagram.
type Packet struct {
	Header  PacketHeader
	Message *ChannelMessage // Only set for CmdMessage
}

// PutPacketHeader writes h into b[0:4].
func PutPacketHeader(b []byte, h PacketHeader) {
	b[0] = h.Command
	b[1] = h.Flags
	binary.BigEndian.PutUint16(b[2:4], h.Sequence)
}

// PutChannelMessageHeader writes h into b[0:8].
func PutChannelMessageHeader(b []byte, h ChannelMessageHeader) {
	binary.BigEndian.PutUint16(b[0:2], h.TotalSize)
	binary.BigEndian.PutUint16(b[2:4], h.ContentID)
	binary.BigEndian.PutUint32(b[4:8], h.Timestamp)
}

// PutChannelConfig writes c and its descriptors and returns the bytes written.
func PutChannelConfig(b []byte, c ChannelConfig) int {
	b[0] = c.WordCount
	b[1] = c.Flags
	b[2] = c.ServiceID
	b[3] = c.ServiceMode
	n := ChannelConfigHeaderSize
	for _, d := range c.Descriptors {
		binary.BigEndian.PutUint16(b[n:n+2], d)
		n += 2
	}
	return n
}

// PutSampleChunkHeader writes h into b[0:4]. Durations beyond 24 bits are clamped.
func PutSampleChunkHeader(b []byte, h SampleChunkHeader) {
	d := h.Duration
	if d > MaxDuration {
		d = MaxDuration
	}
	binary.BigEndian.PutUint32(b[0:4], uint32(h.Flags)<<24|d)
}

// PutSample writes s into b[0:7].
func PutSample(b []byte, s Sample) {
	binary.BigEndian.PutUint16(b[0:2], uint16(s.X))
	binary.BigEndian.PutUint16(b[2:4], uint16(s.Y))
	b[4] = s.R
	b[5] = s.G
	b[6] = s.B
}

// ParsePacketHeader parses the 4-byte packet header
func ParsePacketHeader(data []byte) (*PacketHeader, error) {
	if len(data) < PacketHeaderSize {
		return nil, fmt.Errorf("packet header too short: expected %d bytes, got %d", PacketHeaderSize, len(data))
	}

	return &PacketHeader{
		Command:  data[0],
		Flags:    data[1],
		Sequence: binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

// ParseChannelConfig parses a channel configuration header and its descriptors
func ParseChannelConfig(data []byte) (*ChannelConfig, int, error) {
	if len(data) < ChannelConfigHeaderSize {
		return nil, 0, fmt.Errorf("channel config too short: expected %d bytes, got %d", ChannelConfigHeaderSize, len(data))
	}

	cfg := &ChannelConfig{
		WordCount:   data[0],
		Flags:       data[1],
		ServiceID:   data[2],
		ServiceMode: data[3],
	}

	size := ChannelConfigHeaderSize + int(cfg.WordCount)*4
	if len(data) < size {
		return nil, 0, fmt.Errorf("channel config descriptors truncated: expected %d bytes, got %d", size, len(data))
	}
	for off := ChannelConfigHeaderSize; off < size; off += 2 {
		cfg.Descriptors = append(cfg.Descriptors, binary.BigEndian.Uint16(data[off:off+2]))
	}

	return cfg, size, nil
}

// ParseChannelMessage parses a channel message. The config flag of a sequel
// fragment marks the last fragment and is not followed by a config header.
func ParseChannelMessage(data []byte) (*ChannelMessage, error) {
	if len(data) < ChannelMessageHeaderSize {
		return nil, fmt.Errorf("channel message too short: expected at least %d bytes, got %d",
			ChannelMessageHeaderSize, len(data))
	}

	msg := &ChannelMessage{
		Header: ChannelMessageHeader{
			TotalSize: binary.BigEndian.Uint16(data[0:2]),
			ContentID: binary.BigEndian.Uint16(data[2:4]),
			Timestamp: binary.BigEndian.Uint32(data[4:8]),
		},
	}

	if int(msg.Header.TotalSize) != len(data) {
		return nil, fmt.Errorf("channel message length mismatch: header says %d bytes, got %d bytes",
			msg.Header.TotalSize, len(data))
	}
	if msg.Header.ContentID&ContentIDChannelMsg == 0 {
		return nil, fmt.Errorf("content id 0x%04x is not a channel message", msg.Header.ContentID)
	}

	body := data[ChannelMessageHeaderSize:]
	if HasConfig(msg.Header.ContentID) {
		cfg, n, err := ParseChannelConfig(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse channel config: %w", err)
		}
		msg.Config = cfg
		body = body[n:]
	}
	msg.Payload = body

	return msg, nil
}

// ParseSampleChunk parses a sample chunk header followed by whole samples
func ParseSampleChunk(data []byte) (*SampleChunkHeader, []Sample, error) {
	if len(data) < SampleChunkHeaderSize {
		return nil, nil, fmt.Errorf("sample chunk too short: expected at least %d bytes, got %d",
			SampleChunkHeaderSize, len(data))
	}

	word := binary.BigEndian.Uint32(data[0:4])
	header := &SampleChunkHeader{
		Flags:    uint8(word >> 24),
		Duration: word & MaxDuration,
	}

	body := data[SampleChunkHeaderSize:]
	if len(body)%SampleSize != 0 {
		return nil, nil, fmt.Errorf("sample data not a multiple of %d bytes: %d", SampleSize, len(body))
	}

	samples := make([]Sample, 0, len(body)/SampleSize)
	for off := 0; off < len(body); off += SampleSize {
		samples = append(samples, Sample{
			X: int16(binary.BigEndian.Uint16(body[off : off+2])),
			Y: int16(binary.BigEndian.Uint16(body[off+2 : off+4])),
			R: body[off+4],
			G: body[off+5],
			B: body[off+6],
		})
	}

	return header, samples, nil
}

// ParsePacket parses a complete IDN-Hello datagram
func ParsePacket(data []byte) (*Packet, error) {
	header, err := ParsePacketHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	packet := &Packet{Header: *header}
	body := data[PacketHeaderSize:]

	switch header.Command {
	case CmdMessage:
		msg, err := ParseChannelMessage(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse channel message: %w", err)
		}
		packet.Message = msg

	case CmdMessageClose, CmdPingRequest, CmdPingResponse:
		if header.Command == CmdMessageClose && len(body) != 0 {
			return nil, fmt.Errorf("session close carries %d unexpected bytes", len(body))
		}

	default:
		return nil, fmt.Errorf("unknown command: 0x%02x", header.Command)
	}

	return packet, nil
}

// ChunkType extracts the chunk type from a content id
func ChunkType(contentID uint16) uint8 {
	return uint8(contentID & ContentIDChunkTypeMask)
}

// HasConfig reports whether a channel config header follows the message header.
func HasConfig(contentID uint16) bool {
	return contentID&ContentIDConfigLastFragment != 0 && ChunkType(contentID) != ChunkFrameSequel
}

// IsLastFragment reports whether contentID marks the final sequel fragment.
func IsLastFragment(contentID uint16) bool {
	return contentID&ContentIDConfigLastFragment != 0 && ChunkType(contentID) == ChunkFrameSequel
}

// ChunkTypeName returns a human-readable chunk type
func ChunkTypeName(t uint8) string {
	switch t {
	case ChunkVoid:
		return "Void"
	case ChunkFrame:
		return "Frame"
	case ChunkFrameFirst:
		return "FrameFirst"
	case ChunkFrameSequel:
		return "FrameSequel"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", t)
	}
}

// CommandName returns a human-readable command
func CommandName(cmd uint8) string {
	switch cmd {
	case CmdPingRequest:
		return "PingRequest"
	case CmdPingResponse:
		return "PingResponse"
	case CmdMessage:
		return "Message"
	case CmdMessageClose:
		return "MessageClose"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", cmd)
	}
}

// String returns a human-readable representation of the header
func (h *PacketHeader) String() string {
	return fmt.Sprintf("PacketHeader{Command:%s, ClientGroup:%d, Sequence:%d}",
		CommandName(h.Command), h.Flags&ClientGroupMask, h.Sequence)
}

// String returns a human-readable representation of the channel message header
func (h *ChannelMessageHeader) String() string {
	return fmt.Sprintf("ChannelMessageHeader{Size:%d, Chunk:%s, Config:%t, Timestamp:%d}",
		h.TotalSize, ChunkTypeName(ChunkType(h.ContentID)), h.ContentID&ContentIDConfigLastFragment != 0, h.Timestamp)
}
