package transport

import "time"

// MonotonicClock reports microseconds since its creation. The value wraps
// after about 71 minutes; users compare timestamps with modular arithmetic.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock creates a clock starting at zero
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Now returns the elapsed time in microseconds
func (c *MonotonicClock) Now() uint32 {
	return uint32(time.Since(c.start) / time.Microsecond)
}

// Sleep blocks for d
func (c *MonotonicClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
