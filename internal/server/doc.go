// Package server contains the HTTP status server shared by the player and
// the monitor, and the IDN monitor that receives and checks IDN-Stream
// traffic on UDP.
package server
