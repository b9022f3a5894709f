// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge defines the transport the verifier uses to talk to a kernel.
// It keeps the verification steps independent of the WebSocket library: steps send
// protocol messages and receive raw frames through a Bridge, and only the wsclient
// implementation knows about gorilla/websocket.
package bridge

import (
	"context"
	"time"

	"brio/devkit/internal/bridge/model"
	"brio/devkit/internal/bridge/wsclient"
)

// Bridge represents one connection to a kernel.
type Bridge interface {
	// Connect dials url and completes the WebSocket upgrade.
	Connect(ctx context.Context, url string) error
	// Send encodes msg as JSON and writes it as one text frame.
	Send(ctx context.Context, msg model.ClientMessage) error
	// Receive blocks for the next text frame, at most timeout.
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
	Close() error
}

// New creates a new bridge instance.
// It returns a WebSocket client bridge.
func New(handshakeTimeout time.Duration) Bridge {
	return wsclient.New(handshakeTimeout)
}
