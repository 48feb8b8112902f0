// Package transport provides the UDP datagram sender and the monotonic
// microsecond clock used by the stream encoder.
package transport
