package transport

import (
	"fmt"
	"net"
	"strconv"
)

// UDPSender sends datagrams to one IDN server from an unconnected socket, so
// ICMP errors from an absent receiver do not fail later sends.
type UDPSender struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
}

// NewUDPSender resolves host:port and opens a local socket on an ephemeral port.
func NewUDPSender(host string, port int) (*UDPSender, error) {
	remote, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve server address: %w", err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}

	return &UDPSender{conn: conn, remote: remote}, nil
}

// Send transmits packet as a single datagram
func (s *UDPSender) Send(packet []byte) error {
	n, err := s.conn.WriteToUDP(packet, s.remote)
	if err != nil {
		return fmt.Errorf("sendto %s: %w", s.remote, err)
	}
	if n != len(packet) {
		return fmt.Errorf("sendto %s: short write %d of %d bytes", s.remote, n, len(packet))
	}
	return nil
}

// RemoteAddr returns the resolved server address
func (s *UDPSender) RemoteAddr() string {
	return s.remote.String()
}

// LocalAddr returns the local socket address
func (s *UDPSender) LocalAddr() string {
	return s.conn.LocalAddr().String()
}

// Close closes the socket
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
