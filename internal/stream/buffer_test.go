package stream

import "testing"

func TestBufferEnsure(t *testing.T) {
	var b Buffer
	if b.Len() != 0 {
		t.Fatalf("Expected empty buffer, got %d bytes", b.Len())
	}

	b.Ensure(100)
	if b.Len() != 100 {
		t.Errorf("Expected first allocation of 100 bytes, got %d", b.Len())
	}
	b.Bytes()[99] = 0xAB

	b.Ensure(50)
	if b.Len() != 100 {
		t.Errorf("Expected no shrink, got %d", b.Len())
	}

	b.Ensure(101)
	if b.Len() != 200 {
		t.Errorf("Expected doubling to 200, got %d", b.Len())
	}
	if b.Bytes()[99] != 0xAB {
		t.Error("Expected contents to survive growth")
	}

	b.Ensure(750)
	if b.Len() != 800 {
		t.Errorf("Expected 800, got %d", b.Len())
	}
}
