// Package ws carries protocol envelopes over a websocket connection.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon-client/internal/protocol"
)

const closeGrace = time.Second

// Options configures a Conn.
type Options struct {
	// Header is sent with the opening handshake when dialing.
	Header http.Header
	// DialTimeout bounds the opening handshake. Zero means no timeout beyond ctx.
	DialTimeout time.Duration
	// WriteTimeout bounds each frame write. Zero means no deadline.
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

// Conn is one websocket connection speaking protocol envelopes.
// Send may be called from any goroutine; ReadLoop must have a single caller.
type Conn struct {
	raw          *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	logger       *zap.Logger
	closeOnce    sync.Once
	closeErr     error
}

// Dial opens a websocket connection to url.
//
// Precondition: url uses the ws or wss scheme.
// Postcondition: Returns an open Conn, or a non-nil error.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.DialTimeout,
	}
	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}
	raw, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: handshake status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return NewConn(raw, opts), nil
}

// NewConn wraps an established websocket connection.
//
// Precondition: raw must be open.
func NewConn(raw *websocket.Conn, opts Options) *Conn {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{
		raw:          raw,
		writeTimeout: opts.WriteTimeout,
		logger:       logger,
	}
}

// Send writes one envelope as a text frame.
//
// Postcondition: Returns nil once the frame is written, or a wrapped error.
func (c *Conn) Send(env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.raw.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("writing %s frame: %w", env.Event, err)
	}
	return nil
}

// ReadLoop reads frames until the connection closes or ctx is done, handing each decoded
// envelope to handle on the calling goroutine. Frames that are not valid envelopes are
// logged and skipped.
//
// Postcondition: Returns nil when the peer closed normally, ctx.Err() on cancellation,
// or a wrapped read error.
func (c *Conn) ReadLoop(ctx context.Context, handle func(protocol.Envelope)) error {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		_, data, err := c.raw.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading frame: %w", err)
		}

		env, err := protocol.Decode(data)
		if err != nil {
			c.logger.Debug("discarding malformed frame",
				zap.Int("bytes", len(data)),
				zap.Error(err),
			)
			continue
		}
		handle(env)
	}
}

// Close sends a normal close frame and closes the connection. Repeated calls return the
// first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		err := c.raw.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug("writing close frame", zap.Error(err))
		}
		c.closeErr = c.raw.Close()
	})
	return c.closeErr
}
