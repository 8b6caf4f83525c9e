package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"controlling_pod/internal/health"
	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"

	"golang.org/x/time/rate"
)

// Dialer produces a fresh connection to the device.
type Dialer func(ctx context.Context) (net.Conn, error)

// UnixDialer connects to a unix socket at path.
func UnixDialer(path string) Dialer {
	var d net.Dialer
	return func(ctx context.Context) (net.Conn, error) {
		return d.DialContext(ctx, "unix", path)
	}
}

// ListenerDialer waits for the device to connect to ln. Closing ln unblocks it.
func ListenerDialer(ln net.Listener) Dialer {
	type result struct {
		conn net.Conn
		err  error
	}
	return func(ctx context.Context) (net.Conn, error) {
		ch := make(chan result, 1)
		go func() {
			conn, err := ln.Accept()
			ch <- result{conn, err}
		}()
		select {
		case r := <-ch:
			return r.conn, r.err
		case <-ctx.Done():
			go func() {
				if r := <-ch; r.conn != nil {
					_ = r.conn.Close()
				}
			}()
			return nil, ctx.Err()
		}
	}
}

var errConnectionLost = errors.New("connection lost")

const (
	defaultPingInterval = 10 * time.Second
	helloTimeout        = 5 * time.Second
)

// Connector keeps the channel attached, redialing with exponential backoff.
type Connector struct {
	ch         *Channel
	dial       Dialer
	minBackoff time.Duration
	maxBackoff time.Duration
	ping       time.Duration
	store      *health.Store
	log        *logger.Logger

	// failures are logged at most every few seconds while the device is down
	failLog rate.Sometimes
}

// NewConnector builds a connector that greets the device every ping while
// connected, so a peer that went away while idle is noticed before the next
// real command.
func NewConnector(ch *Channel, dial Dialer, minBackoff, maxBackoff, ping time.Duration, store *health.Store, log *logger.Logger) *Connector {
	if minBackoff <= 0 {
		minBackoff = 250 * time.Millisecond
	}
	if maxBackoff < minBackoff {
		maxBackoff = minBackoff
	}
	if ping <= 0 {
		ping = defaultPingInterval
	}
	store.Set(health.DeviceSocket, models.StatusNotStarted, "")
	return &Connector{
		ch:         ch,
		dial:       dial,
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
		ping:       ping,
		store:      store,
		log:        log,
		failLog:    rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

// Run blocks until ctx is done.
func (c *Connector) Run(ctx context.Context) {
	backoff := c.minBackoff
	for {
		established, err := c.session(ctx)
		if established {
			backoff = c.minBackoff
		}
		if err != nil && ctx.Err() == nil {
			c.store.Failed(health.DeviceSocket, err)
			c.failLog.Do(func() {
				c.log.Warnw("device_disconnected", "error", err, "retry_in", backoff)
			})
		}

		select {
		case <-ctx.Done():
			c.ch.Detach()
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

// session dials, greets and then pings until the connection drops.
func (c *Connector) session(ctx context.Context) (bool, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	detached := c.ch.Attach(conn)

	if err := c.hello(ctx); err != nil {
		c.ch.Detach()
		return false, fmt.Errorf("hello: %w", err)
	}

	c.store.Healthy(health.DeviceSocket)
	c.log.Infow("device_connected", "remote", conn.RemoteAddr())

	ticker := time.NewTicker(c.ping)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.ch.Detach()
			return true, nil
		case <-detached:
			return true, errConnectionLost
		case <-ticker.C:
			if err := c.hello(ctx); err != nil && ctx.Err() == nil {
				c.ch.Detach()
				return true, fmt.Errorf("%w: ping: %v", errConnectionLost, err)
			}
		}
	}
}

func (c *Connector) hello(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, helloTimeout)
	defer cancel()
	_, err := c.ch.Call(ctx, Hello, "")
	return err
}
