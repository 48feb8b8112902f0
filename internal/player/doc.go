// Package player drives one streaming run: it decodes an ILDA file into the
// IDN-Stream encoder, keeps a single frame on display for the hold time and
// always ends with the close handshake.
package player
