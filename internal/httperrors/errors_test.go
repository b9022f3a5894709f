package httperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/gorilla/websocket"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{
			name: "refused op error",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			want: CategoryRefused,
		},
		{
			name: "dns",
			err:  fmt.Errorf("dial: %w", &net.DNSError{Err: "no such host", Name: "kernel.invalid"}),
			want: CategoryDNS,
		},
		{
			name: "deadline",
			err:  fmt.Errorf("dial: %w", context.DeadlineExceeded),
			want: CategoryTimeout,
		},
		{
			name: "bad handshake 404",
			err:  &HandshakeError{StatusCode: 404, Err: websocket.ErrBadHandshake},
			want: CategoryHandshake,
		},
		{
			name: "bad handshake 502",
			err:  &HandshakeError{StatusCode: 502, Err: websocket.ErrBadHandshake},
			want: CategoryServer,
		},
		{
			name: "bare bad handshake",
			err:  websocket.ErrBadHandshake,
			want: CategoryHandshake,
		},
		{
			name: "tls",
			err:  errors.New("tls: first record does not look like a TLS handshake"),
			want: CategoryTLS,
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: CategoryGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatNetworkError(t *testing.T) {
	var buf bytes.Buffer
	cause := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	err := FormatNetworkError(&buf, cause, "ws://127.0.0.1:9090/ws")
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Errorf("FormatNetworkError() should wrap the cause, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "127.0.0.1:9090") {
		t.Errorf("output should name the host, got %q", out)
	}
	if !strings.Contains(out, "Ensure the Kernel is running") {
		t.Errorf("output should carry the start hint, got %q", out)
	}
	if FormatNetworkError(&buf, nil, "") != nil {
		t.Error("FormatNetworkError(nil) should return nil")
	}
}

func TestExtractHostFromURL(t *testing.T) {
	if got := ExtractHostFromURL("ws://127.0.0.1:9090/ws"); got != "127.0.0.1:9090" {
		t.Errorf("ExtractHostFromURL() = %q", got)
	}
	if got := ExtractHostFromURL("::bad"); got != "the server" {
		t.Errorf("ExtractHostFromURL(bad) = %q", got)
	}
}
