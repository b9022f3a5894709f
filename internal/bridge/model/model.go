// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines the wire messages exchanged with the Brio kernel.
// Every frame is a JSON object; client requests and server log lines are
// discriminated by their "type" field, while request outcomes carry a "status".
//
// The types in this package are transport-agnostic: the mock kernel encodes them
// and the verification client decodes them, but neither depends on the other.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"brio/devkit/internal/errors"
)

// MessageType is the "type" discriminator of a protocol message.
type MessageType string

const (
	// TypeMessage is a server-to-client informational log line.
	TypeMessage MessageType = "message"
	// TypeTask submits a task for execution.
	TypeTask MessageType = "task"
	// TypeQuery submits a SQL query string.
	TypeQuery MessageType = "query"
	// TypeSession manages a kernel session (begin, commit, rollback).
	TypeSession MessageType = "session"
)

// SessionAction is the action carried by a session message.
type SessionAction string

const (
	SessionBegin    SessionAction = "begin"
	SessionCommit   SessionAction = "commit"
	SessionRollback SessionAction = "rollback"
)

// ClientMessage is any request a client sends to the kernel.
// Only a subset of fields is set depending on Type.
type ClientMessage struct {
	Type MessageType `json:"type"`

	// Task
	Content string `json:"content,omitempty"`

	// Query
	SQL string `json:"sql,omitempty"`

	// Session
	Action    SessionAction `json:"action,omitempty"`
	BasePath  string        `json:"base_path,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

// NewTask builds a task submission.
func NewTask(content string) ClientMessage {
	return ClientMessage{Type: TypeTask, Content: content}
}

// NewQuery builds a query submission.
func NewQuery(sql string) ClientMessage {
	return ClientMessage{Type: TypeQuery, SQL: sql}
}

// LogMessage is the informational frame the mock kernel sends.
type LogMessage struct {
	Type MessageType `json:"type"`
	Log  string      `json:"log"`
}

// NewLog builds a log frame.
func NewLog(line string) LogMessage {
	return LogMessage{Type: TypeMessage, Log: line}
}

// ResponseStatus is the outcome carried by a Response.
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusError   ResponseStatus = "error"
)

// Response is the kernel's reply to a task, query or session request.
// Status is empty when the frame did not carry one at all.
type Response struct {
	Status  ResponseStatus  `json:"status,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`

	// Frames that are log lines rather than responses still decode; these
	// fields let callers tell the difference.
	Type MessageType `json:"type,omitempty"`
	Log  string      `json:"log,omitempty"`
}

// Success builds a successful response. A nil data value is omitted on the wire.
func Success(data any) (Response, error) {
	r := Response{Status: StatusSuccess}
	if data == nil {
		return r, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return r, fmt.Errorf("marshal response data: %w", err)
	}
	r.Data = raw
	return r, nil
}

// Failure builds an error response.
func Failure(message string) Response {
	return Response{Status: StatusError, Message: message}
}

// Succeeded reports whether the response carries status "success".
func (r Response) Succeeded() bool { return r.Status == StatusSuccess }

// HasData reports whether the response carries a non-null data field.
func (r Response) HasData() bool {
	trimmed := bytes.TrimSpace(r.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// PrettyData renders Data as two-space indented JSON; a missing field renders as "null".
func (r Response) PrettyData() string {
	if !r.HasData() {
		return "null"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, r.Data, "", "  "); err != nil {
		return string(r.Data)
	}
	return out.String()
}

// DecodeClientMessage parses a request frame. Unknown or missing types decode
// without error; dispatching on them is the caller's decision.
func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return ClientMessage{}, errors.Wrap(errors.DecodeFailed, "decode client message", err)
	}
	m.Type = MessageType(strings.TrimSpace(string(m.Type)))
	return m, nil
}

// DecodeResponse parses a server frame leniently: unknown fields are ignored
// and a missing status leaves Status empty.
func DecodeResponse(raw []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(raw, &r); err != nil {
		return Response{}, errors.Wrap(errors.DecodeFailed, "decode response", err)
	}
	return r, nil
}
