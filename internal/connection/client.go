package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents a single WebSocket connection to the echo endpoint.
type Client interface {
	// Connect starts an asynchronous dial. State moves to Connecting
	// synchronously and to Connected when the handshake completes. A no-op
	// while already Connecting or Connected.
	Connect(ctx context.Context) error

	// Close gracefully closes the connection. Idempotent; state is
	// Disconnected afterwards regardless of prior state.
	Close() error

	// Send writes a text frame. Valid only while Connected. A send failure
	// is recorded as the last error but does not change connection state.
	Send(data []byte) error

	// Messages returns a channel of inbound messages with receive timestamps.
	Messages() <-chan TimestampedMessage

	// Errors returns a channel of fatal connection errors.
	Errors() <-chan error

	// State returns the current lifecycle state.
	State() State

	// StateChanges returns a channel of state transitions.
	StateChanges() <-chan State

	// LastError returns the most recently recorded transport error.
	LastError() error
}

// client implements the Client interface.
type client struct {
	cfg    ClientConfig
	logger *slog.Logger

	// Output channels. messages and errors are recreated on every Connect
	// so a failed attempt's buffered error or late frames never surface in
	// a later session. states is a single stream across the lifetime.
	messages chan TimestampedMessage
	errors   chan error
	states   chan State

	// Write serialization
	writeMu sync.Mutex

	// State. done identifies the current connect attempt: the dial goroutine
	// and receive loop abandon their work when it no longer matches.
	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	done    chan struct{}
	lastErr error
}

// NewClient creates a new WebSocket client in the Disconnected state.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &client{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan TimestampedMessage, cfg.BufferSize),
		errors:   make(chan error, 1),
		states:   make(chan State, 8),
		state:    StateDisconnected,
	}
}

// Connect starts the asynchronous dial.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		// Exactly one dial in flight.
		c.mu.Unlock()
		return nil
	}

	done := make(chan struct{})
	c.done = done
	c.messages = make(chan TimestampedMessage, c.cfg.BufferSize)
	c.errors = make(chan error, 1)
	msgs, errs := c.messages, c.errors
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	// Session id correlates log lines across one connection's lifetime.
	session := uuid.NewString()[:8]

	go c.dial(ctx, done, msgs, errs, session)
	return nil
}

// dial performs the handshake and starts the receive loop on success.
func (c *client) dial(
	ctx context.Context,
	done chan struct{},
	msgs chan TimestampedMessage,
	errs chan error,
	session string,
) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		c.mu.Lock()
		current := c.done == done
		if current {
			c.lastErr = err
			c.done = nil
			c.setStateLocked(StateDisconnected)
		}
		c.mu.Unlock()

		if current {
			c.logger.Warn("websocket dial failed", "url", c.cfg.URL, "session", session, "error", err)
			select {
			case errs <- err:
			default:
			}
		}
		return
	}

	c.mu.Lock()
	if c.done != done {
		// Closed while the dial was in flight.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	// Server pings get a pong back within a second.
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	c.logger.Debug("websocket connected", "url", c.cfg.URL, "session", session)

	go c.readLoop(conn, done, msgs, errs, session)
}

// Close gracefully closes the connection.
func (c *client) Close() error {
	c.mu.Lock()
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	conn := c.conn
	c.conn = nil
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}

	return nil
}

// Send writes a text frame to the connection.
func (c *client) Send(data []byte) error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		// Non-fatal: recorded, state unchanged. The receive loop decides
		// whether the connection is actually dead.
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	return nil
}

// Messages returns the current attempt's messages channel.
func (c *client) Messages() <-chan TimestampedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages
}

// Errors returns the current attempt's errors channel.
func (c *client) Errors() <-chan error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}

// State returns the current lifecycle state.
func (c *client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StateChanges returns the state transition channel.
func (c *client) StateChanges() <-chan State {
	return c.states
}

// LastError returns the most recently recorded transport error.
func (c *client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// readLoop reads messages until the connection fails or is closed.
// A read failure is fatal: state moves to Disconnected and the loop exits.
// A fresh Connect() is required to resume.
func (c *client) readLoop(
	conn *websocket.Conn,
	done chan struct{},
	msgs chan TimestampedMessage,
	errs chan error,
	session string,
) {
	for {
		select {
		case <-done:
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			// Ignore errors caused by Close().
			select {
			case <-done:
				return
			default:
			}

			c.mu.Lock()
			if c.done == done {
				c.lastErr = err
				c.done = nil
				c.conn = nil
				c.setStateLocked(StateDisconnected)
			}
			c.mu.Unlock()
			conn.Close()

			c.logger.Warn("receive loop terminated", "session", session, "error", err)
			select {
			case errs <- err:
			default:
			}
			return
		}

		msg := TimestampedMessage{
			Data:       data,
			ReceivedAt: receivedAt,
		}

		select {
		case msgs <- msg:
		case <-done:
			return
		default:
			c.logger.Warn("message buffer full, dropping message", "session", session)
		}
	}
}

// setStateLocked updates the state and publishes the transition.
// Must be called with c.mu held.
func (c *client) setStateLocked(st State) {
	if c.state == st {
		return
	}
	c.state = st

	select {
	case c.states <- st:
	default:
	}
}
