package stream

// Buffer is a growable byte buffer. Its length always equals its capacity and
// growth preserves the existing contents.
type Buffer struct {
	data []byte
}

// Ensure grows the buffer to hold at least n bytes. The first allocation is
// exactly n bytes, later ones double until n fits.
func (b *Buffer) Ensure(n int) {
	if n <= len(b.data) {
		return
	}

	size := len(b.data)
	if size == 0 {
		size = n
	}
	for size < n {
		size *= 2
	}

	grown := make([]byte, size)
	copy(grown, b.data)
	b.data = grown
}

// Bytes returns the whole buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the current size.
func (b *Buffer) Len() int {
	return len(b.data)
}
