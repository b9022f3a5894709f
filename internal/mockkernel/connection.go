package mockkernel

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"brio/devkit/internal/bridge/model"
	"brio/devkit/internal/config"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"
)

// connection is the state of one client. It is owned by a single goroutine.
type connection struct {
	id   string
	ws   *websocket.Conn
	cfg  config.MockConfig
	log  *pterm.Logger
	kern *kernelState
}

func newConnection(ws *websocket.Conn, cfg config.MockConfig, log *pterm.Logger) *connection {
	c := &connection{
		id:  uuid.NewString(),
		ws:  ws,
		cfg: cfg,
		log: log,
	}
	if cfg.Mode == config.ModeKernel {
		c.kern = newKernelState()
	}
	return c
}

// run serves the connection until the peer goes away or ctx is cancelled.
func (c *connection) run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { _ = c.ws.Close() })
	defer stop()
	defer c.ws.Close()

	c.log.Info("TUI Connected to Mock Kernel", c.log.Args("client_id", c.id, "remote", c.ws.RemoteAddr().String()))

	if c.cfg.Mode == config.ModeLegacy {
		if err := c.send(model.NewLog(c.cfg.Welcome)); err != nil {
			c.log.Warn("Failed to send welcome", c.log.Args("client_id", c.id, "error", err))
			return
		}
	}

	for {
		kind, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.disconnected(ctx, err)
			return
		}
		if kind != websocket.TextMessage {
			c.log.Warn("Unexpected binary frame from TUI", c.log.Args("client_id", c.id, "len", len(frame)))
			continue
		}

		c.log.Info("Received from TUI", c.log.Args("client_id", c.id, "frame", string(frame)))

		var reply any
		if c.kern != nil {
			reply = c.respond(frame)
		} else {
			reply = c.acknowledge(frame)
		}
		if reply == nil {
			continue
		}
		if err := c.send(reply); err != nil {
			c.log.Warn("Failed to send response", c.log.Args("client_id", c.id, "error", err))
			return
		}
	}
}

// acknowledge implements the legacy shape: task and query get a log line back,
// everything else gets nothing.
func (c *connection) acknowledge(frame []byte) any {
	msg, err := model.DecodeClientMessage(frame)
	if err != nil {
		c.log.Warn("Invalid JSON received", c.log.Args("client_id", c.id, "error", err))
		return nil
	}

	switch msg.Type {
	case model.TypeTask:
		c.log.Info("[Task] "+msg.Content, c.log.Args("client_id", c.id))
		return model.NewLog("Task received: " + msg.Content)
	case model.TypeQuery:
		c.log.Info("[Query] "+msg.SQL, c.log.Args("client_id", c.id))
		return model.NewLog("Executing Query: " + msg.SQL)
	default:
		c.log.Debug("Ignoring message", c.log.Args("client_id", c.id, "type", string(msg.Type)))
		return nil
	}
}

func (c *connection) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *connection) disconnected(ctx context.Context, err error) {
	switch {
	case ctx.Err() != nil:
		c.log.Info("Closing connection on shutdown", c.log.Args("client_id", c.id))
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		c.log.Info("TUI Disconnected", c.log.Args("client_id", c.id))
	default:
		var closeErr *websocket.CloseError
		if stderrors.As(err, &closeErr) {
			c.log.Info("TUI Disconnected", c.log.Args("client_id", c.id, "code", closeErr.Code))
			return
		}
		c.log.Info("TUI Disconnected", c.log.Args("client_id", c.id, "error", err))
	}
}
