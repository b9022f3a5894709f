// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package wsclient provides a gorilla/websocket implementation of the Bridge interface.
// It dials the kernel endpoint, writes protocol messages as JSON text frames and reads
// response frames with a bounded wait, mapping transport failures onto error kinds.
package wsclient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"sync"
	"time"

	"brio/devkit/internal/bridge/model"
	"brio/devkit/internal/errors"
	"brio/devkit/internal/httperrors"
	"brio/devkit/internal/logging"

	"github.com/gorilla/websocket"
)

const closeGrace = time.Second

// Client implements bridge.Bridge over a single WebSocket connection.
type Client struct {
	dialer websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
	// readErr is sticky: gorilla connections are unusable after a failed read.
	readErr error
}

// New creates a client whose handshake is bounded by handshakeTimeout.
func New(handshakeTimeout time.Duration) *Client {
	return &Client{
		dialer: websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// Connect dials url and completes the WebSocket upgrade.
func (c *Client) Connect(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return fmt.Errorf("already connected")
	}

	conn, resp, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		target := logging.Mask(url)
		if resp != nil && stderrors.Is(err, websocket.ErrBadHandshake) {
			return errors.Wrap(errors.ConnectFailed, "upgrade "+target,
				&httperrors.HandshakeError{StatusCode: resp.StatusCode, Err: err})
		}
		return errors.Wrap(errors.ConnectFailed, "dial "+target, err)
	}

	c.conn = conn
	c.readErr = nil
	return nil
}

// Send encodes msg as JSON and writes it as one text frame.
func (c *Client) Send(ctx context.Context, msg model.ClientMessage) error {
	conn, err := c.current()
	if err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Type, err)
	}

	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return errors.Wrap(errors.PeerClosed, "set write deadline", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(errors.PeerClosed, "write frame", err)
	}
	return nil
}

// Receive blocks for the next data frame, at most timeout. Cancelling ctx
// interrupts the wait.
func (c *Client) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	conn, err := c.current()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	sticky := c.readErr
	c.mu.Unlock()
	if sticky != nil {
		return nil, sticky
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, errors.Wrap(errors.PeerClosed, "set read deadline", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := conn.ReadMessage()
	if err == nil {
		return data, nil
	}

	err = c.classifyReadError(ctx, timeout, err)
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
	return nil, err
}

func (c *Client) classifyReadError(ctx context.Context, timeout time.Duration, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("await response: %w", ctxErr)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(errors.ResponseTimeout, fmt.Sprintf("no response within %s", timeout), err)
	}
	return errors.Wrap(errors.PeerClosed, "read frame", err)
}

// Close sends a normal-closure frame and releases the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) current() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, fmt.Errorf("not connected")
	}
	return c.conn, nil
}
