package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/skypro1111/idn-stream-player/internal/protocol"
)

func TestSessionSendVoid(t *testing.T) {
	sender := &recordingSender{}
	clock := &fakeClock{now: 0x01020304}
	s := NewSession(sender, clock, 0x12, testLogger(), nil)

	if err := s.SendVoid(); err != nil {
		t.Fatalf("SendVoid failed: %v", err)
	}

	// Client group is masked to the low nibble.
	expected := []byte{
		0x40, 0x02, 0x00, 0x00,
		0x00, 0x08, 0x80, 0x00, 0x01, 0x02, 0x03, 0x04,
	}
	if len(sender.packets) != 1 || !bytes.Equal(sender.packets[0], expected) {
		t.Fatalf("Expected % X, got % X", expected, sender.packets)
	}
	if s.Stats().Keepalives != 1 {
		t.Errorf("Expected 1 keepalive, got %d", s.Stats().Keepalives)
	}
}

func TestSessionClose(t *testing.T) {
	sender := &recordingSender{}
	clock := &fakeClock{now: 500}
	s := NewSession(sender, clock, 1, testLogger(), nil)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(sender.packets) != 2 {
		t.Fatalf("Expected 2 packets, got %d", len(sender.packets))
	}

	channelClose := []byte{
		0x40, 0x01, 0x00, 0x00,
		0x00, 0x0C, 0xC0, 0x00, 0x00, 0x00, 0x01, 0xF4,
		0x00, 0x02, 0x00, 0x00,
	}
	if !bytes.Equal(sender.packets[0], channelClose) {
		t.Errorf("Expected channel close % X, got % X", channelClose, sender.packets[0])
	}
	sessionClose := []byte{0x44, 0x01, 0x00, 0x01}
	if !bytes.Equal(sender.packets[1], sessionClose) {
		t.Errorf("Expected session close % X, got % X", sessionClose, sender.packets[1])
	}

	p, err := protocol.ParsePacket(sender.packets[0])
	if err != nil {
		t.Fatalf("ParsePacket failed: %v", err)
	}
	if p.Message.Config == nil || p.Message.Config.Flags != protocol.ConfigClose {
		t.Errorf("Expected close config, got %+v", p.Message.Config)
	}
	if !s.Stats().Closed {
		t.Error("Expected session to be marked closed")
	}
}

func TestSessionCloseAttemptsBothSteps(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	tests := []struct {
		name   string
		failAt map[int]error
		want   []error
	}{
		{"channel close fails", map[int]error{0: first}, []error{first}},
		{"session close fails", map[int]error{1: second}, []error{second}},
		{"both fail", map[int]error{0: first, 1: second}, []error{first, second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{failAt: tt.failAt}
			s := NewSession(sender, &fakeClock{}, 0, testLogger(), nil)

			err := s.Close()
			if len(sender.packets) != 2 {
				t.Errorf("Expected both close packets to be attempted, got %d", len(sender.packets))
			}
			if !errors.Is(err, ErrSendFailed) {
				t.Errorf("Expected ErrSendFailed, got %v", err)
			}
			for _, w := range tt.want {
				if !errors.Is(err, w) {
					t.Errorf("Expected error to wrap %v, got %v", w, err)
				}
			}
		})
	}
}

func TestSessionSequenceWraps(t *testing.T) {
	sender := &recordingSender{}
	s := NewSession(sender, &fakeClock{}, 0, testLogger(), nil)
	s.sequence = 0xFFFF

	for i := 0; i < 2; i++ {
		if err := s.SendVoid(); err != nil {
			t.Fatalf("SendVoid failed: %v", err)
		}
	}

	if got := sender.packets[0][2:4]; !bytes.Equal(got, []byte{0xFF, 0xFF}) {
		t.Errorf("Expected sequence FFFF, got % X", got)
	}
	if got := sender.packets[1][2:4]; !bytes.Equal(got, []byte{0x00, 0x00}) {
		t.Errorf("Expected wrapped sequence 0000, got % X", got)
	}
	if s.Stats().LastSequence != 0 {
		t.Errorf("Expected last sequence 0, got %d", s.Stats().LastSequence)
	}
}
