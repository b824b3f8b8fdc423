package ftp

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// dialTimeout bounds the active-mode connect to the client endpoint.
const dialTimeout = 10 * time.Second

// Endpoint is a client data endpoint declared by a PORT command.
type Endpoint struct {
	IP   string
	Port int
}

// Addr returns the endpoint as a dialable host:port string.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

// ParseEndpoint parses the PORT argument h1,h2,h3,h4,p1,p2 into an
// endpoint. Each field must be a decimal integer in 0..255; the port is
// p1*256+p2.
func ParseEndpoint(arg string) (Endpoint, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 6 {
		return Endpoint{}, fmt.Errorf("expected 6 fields, got %d", len(parts))
	}

	octets := make([]int, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Endpoint{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		if n < 0 || n > 255 {
			return Endpoint{}, fmt.Errorf("field %d out of range: %d", i+1, n)
		}
		octets[i] = n
	}

	return Endpoint{
		IP:   fmt.Sprintf("%d.%d.%d.%d", octets[0], octets[1], octets[2], octets[3]),
		Port: octets[4]*256 + octets[5],
	}, nil
}

// DialActive originates an active-mode data connection to the client's
// declared endpoint from the given local source port. RFC 959 specifies
// source port 20; address reuse is enabled so sequential transfers can
// rebind it. sourcePort 0 selects an ephemeral port.
func DialActive(ep Endpoint, sourcePort int) (net.Conn, error) {
	d := net.Dialer{
		Timeout:   dialTimeout,
		LocalAddr: &net.TCPAddr{Port: sourcePort},
		Control:   reuseAddr,
	}

	conn, err := d.Dial("tcp4", ep.Addr())
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", ep.Addr(), err)
	}
	return conn, nil
}

// reuseAddr sets SO_REUSEADDR on the dialer socket before bind, so the
// well-known data port is available again as soon as the previous transfer
// socket enters TIME_WAIT.
func reuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
