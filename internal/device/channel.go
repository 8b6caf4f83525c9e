package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"controlling_pod/internal/logger"
)

// Channel sends commands over whatever connection is currently attached.
// It never dials or retries; Connector owns the connection lifecycle.
type Channel struct {
	callMu sync.Mutex // one request in flight

	mu       sync.Mutex
	conn     net.Conn
	rd       *bufio.Reader
	detached chan struct{}

	log *logger.Logger
}

func NewChannel(log *logger.Logger) *Channel {
	return &Channel{log: log}
}

// Attach makes conn the live connection, dropping any previous one. The
// returned channel is closed once conn is dropped.
func (c *Channel) Attach(conn net.Conn) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
	c.conn = conn
	c.rd = bufio.NewReader(conn)
	c.detached = make(chan struct{})
	return c.detached
}

// Detach closes the live connection, if any.
func (c *Channel) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Channel) dropLocked() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Close()
	close(c.detached)
	c.conn, c.rd, c.detached = nil, nil, nil
}

// dropIf drops conn only if it is still the live connection.
func (c *Channel) dropIf(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.dropLocked()
	}
}

// Call sends cmd with arg and returns the device's response body. A context
// deadline, if any, bounds the exchange.
func (c *Channel) Call(ctx context.Context, cmd Command, arg string) (string, error) {
	if !cmd.Valid() {
		return "", fmt.Errorf("unsupported command %d", int(cmd))
	}
	c.callMu.Lock()
	defer c.callMu.Unlock()

	c.mu.Lock()
	conn, rd := c.conn, c.rd
	c.mu.Unlock()
	if conn == nil {
		return "", fmt.Errorf("%w: %s", ErrChannelUnavailable, cmd)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)
	defer func() { _ = conn.SetDeadline(time.Time{}) }()

	c.log.Debugw("device_call", "command", cmd.String(), "arg", arg)
	if err := writeRequest(conn, cmd, arg); err != nil {
		c.dropIf(conn)
		return "", fmt.Errorf("%w: write %s: %v", ErrChannelUnavailable, cmd, err)
	}
	resp, err := readFrame(rd)
	if err != nil {
		// a broken frame leaves the stream out of sync either way
		c.dropIf(conn)
		if errors.Is(err, ErrProtocol) {
			return "", fmt.Errorf("%s: %w", cmd, err)
		}
		return "", fmt.Errorf("%w: read %s: %v", ErrChannelUnavailable, cmd, err)
	}
	c.log.Debugw("device_response", "command", cmd.String(), "bytes", len(resp))
	return resp, nil
}
