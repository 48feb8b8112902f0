// Package stream turns decoded frames into IDN-Stream channel messages.
// The Encoder accumulates samples of one frame into a sample chunk, paces the
// frames to the configured frame rate and splits oversized frames into
// fragments. The Session owns the packet sequence counter and the channel
// keepalive and close handshake.
package stream
