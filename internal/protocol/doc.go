// Package protocol implements the IDN-Hello / IDN-Stream wire layout.
// It provides the constants, fixed-offset header encoders used by the stream
// encoder, and the parsers used by the monitor and by tests.
package protocol
