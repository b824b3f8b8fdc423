package server

import (
	"bufio"
	"net"
	"sync"
	"time"
)

// Connection wraps a control connection with buffered I/O and deadline
// management. Reply writes are serialized so that transfer workers and the
// command loop can share the control channel safely.
type Connection struct {
	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex
	writer  *bufio.Writer

	commandTimeout time.Duration
	idleTimeout    time.Duration

	closed bool
	mu     sync.Mutex
}

// NewConnection wraps conn with buffered I/O and the given deadlines.
func NewConnection(conn net.Conn, commandTimeout, idleTimeout time.Duration) *Connection {
	return &Connection{
		conn:           conn,
		reader:         bufio.NewReader(conn),
		writer:         bufio.NewWriter(conn),
		commandTimeout: commandTimeout,
		idleTimeout:    idleTimeout,
	}
}

// Reader returns the buffered reader for the control connection.
func (c *Connection) Reader() *bufio.Reader {
	return c.reader
}

// WriteLine writes a single protocol line and flushes it. The line must
// already carry its CRLF terminator. Safe for concurrent use.
func (c *Connection) WriteLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.writer.WriteString(line); err != nil {
		return err
	}
	return c.writer.Flush()
}

// SetCommandTimeout arms the read deadline for the next command.
func (c *Connection) SetCommandTimeout() error {
	if c.commandTimeout <= 0 {
		return nil
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.commandTimeout))
}

// ResetIdleTimeout extends the read deadline after a completed command.
func (c *Connection) ResetIdleTimeout() error {
	if c.idleTimeout <= 0 {
		return nil
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
}

// RemoteIP returns the bare peer IP of the control connection.
func (c *Connection) RemoteIP() string {
	host, _, err := net.SplitHostPort(c.conn.RemoteAddr().String())
	if err != nil {
		return c.conn.RemoteAddr().String()
	}
	return host
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// IsClosed reports whether Close has been called.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
