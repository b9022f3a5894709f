// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. The verifier records the kind of every failed step, and
// the mock server uses the same kinds when it logs why a frame was dropped.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// so callers can match on kind with KindOf while errors.Is/As still reach the cause.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConnectFailed indicates the WebSocket endpoint could not be reached or upgraded.
	ConnectFailed Kind = "connect_failed"
	// ResponseTimeout indicates no response frame arrived within the configured wait.
	ResponseTimeout Kind = "response_timeout"
	// DecodeFailed indicates a frame that is not valid JSON.
	DecodeFailed Kind = "decode_failed"
	// PeerClosed indicates the other side closed the connection.
	PeerClosed Kind = "peer_closed"
	// UnexpectedShape indicates valid JSON that lacks the fields a check needs.
	UnexpectedShape Kind = "unexpected_shape"
	// HealthFailed indicates the gRPC health probe did not report SERVING.
	HealthFailed Kind = "health_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
