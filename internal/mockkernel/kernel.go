package mockkernel

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"brio/devkit/internal/bridge/model"

	"github.com/google/uuid"
)

// Statements the kernel refuses over the WebSocket.
var writePrefixes = []string{"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER"}

// kernelState is the per-connection bookkeeping of ModeKernel.
type kernelState struct {
	lastTaskID int
	// sessions maps session id to base path for sessions begun on this connection.
	sessions map[string]string
}

func newKernelState() *kernelState {
	return &kernelState{sessions: make(map[string]string)}
}

// respond implements the kernel shape: exactly one status response per frame.
func (c *connection) respond(frame []byte) model.Response {
	msg, err := model.DecodeClientMessage(frame)
	if err != nil {
		c.log.Warn("Invalid JSON received", c.log.Args("client_id", c.id, "error", err))
		cause := err
		if inner := stderrors.Unwrap(err); inner != nil {
			cause = inner
		}
		return model.Failure("Invalid JSON: " + cause.Error())
	}

	var resp model.Response
	switch msg.Type {
	case model.TypeTask:
		resp = c.kern.submitTask(msg.Content)
	case model.TypeQuery:
		resp = c.kern.query(msg.SQL)
	case model.TypeSession:
		resp = c.kern.session(msg)
	case "":
		resp = model.Failure("Invalid JSON: missing message type")
	default:
		resp = model.Failure(fmt.Sprintf("Invalid JSON: unknown message type %q", msg.Type))
	}

	c.log.Info("Responding", c.log.Args("client_id", c.id, "type", string(msg.Type), "status", string(resp.Status)))
	return resp
}

func (k *kernelState) submitTask(content string) model.Response {
	if strings.TrimSpace(content) == "" {
		return model.Failure("Task content cannot be empty")
	}
	k.lastTaskID++
	return success(map[string]string{
		"task_id": strconv.Itoa(k.lastTaskID),
		"content": content,
		"status":  "pending",
	})
}

// query validates the statement like the kernel does. Nothing is executed, so a
// valid query always returns an empty row set.
func (k *kernelState) query(sql string) model.Response {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return model.Failure("SQL query cannot be empty")
	}
	upper := strings.ToUpper(trimmed)
	for _, p := range writePrefixes {
		if strings.HasPrefix(upper, p) {
			return model.Failure("Only SELECT queries are allowed via WebSocket")
		}
	}
	return success([]map[string]string{})
}

func (k *kernelState) session(msg model.ClientMessage) model.Response {
	switch msg.Action {
	case model.SessionBegin:
		if msg.BasePath == "" {
			return model.Failure("base_path is required for begin action")
		}
		id := uuid.NewString()
		k.sessions[id] = msg.BasePath
		return success(map[string]string{"session_id": id, "base_path": msg.BasePath})

	case model.SessionCommit, model.SessionRollback:
		if msg.SessionID == "" {
			return model.Failure(fmt.Sprintf("session_id is required for %s action", msg.Action))
		}
		verb, past := "commit", "committed"
		if msg.Action == model.SessionRollback {
			verb, past = "rollback", "rolled_back"
		}
		if _, ok := k.sessions[msg.SessionID]; !ok {
			return model.Failure(fmt.Sprintf("Failed to %s session: session %s not found", verb, msg.SessionID))
		}
		delete(k.sessions, msg.SessionID)
		return success(map[string]string{"session_id": msg.SessionID, "action": past})

	default:
		return model.Failure(fmt.Sprintf("Invalid JSON: unknown session action %q", msg.Action))
	}
}

func success(data any) model.Response {
	resp, err := model.Success(data)
	if err != nil {
		return model.Failure(err.Error())
	}
	return resp
}
