// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns WebSocket dial and upgrade failures into user-friendly output.
package httperrors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"
)

// Category is the kind of network failure, used to pick troubleshooting hints.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryTimeout
	CategoryDNS
	CategoryRefused
	CategoryTLS
	CategoryHandshake
	CategoryServer
)

// HandshakeError reports an HTTP response that refused the WebSocket upgrade.
type HandshakeError struct {
	StatusCode int
	Err        error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("websocket handshake rejected with HTTP %d %s: %v",
		e.StatusCode, http.StatusText(e.StatusCode), e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// Classify maps a dial error to a Category.
func Classify(err error) Category {
	if err == nil {
		return CategoryGeneric
	}

	var hsErr *HandshakeError
	if errors.As(err, &hsErr) {
		if hsErr.StatusCode >= 500 {
			return CategoryServer
		}
		return CategoryHandshake
	}
	if errors.Is(err, websocket.ErrBadHandshake) {
		return CategoryHandshake
	}
	if isTimeoutError(err) {
		return CategoryTimeout
	}
	if isDNSError(err) {
		return CategoryDNS
	}
	if isConnectionRefusedError(err) {
		return CategoryRefused
	}
	if isTLSError(err) {
		return CategoryTLS
	}
	return CategoryGeneric
}

// FormatNetworkError writes troubleshooting hints for err to w and returns the
// error wrapped for logging/debugging.
func FormatNetworkError(w io.Writer, err error, target string) error {
	if err == nil {
		return nil
	}

	displayErrorMessage(w, err, target)

	return fmt.Errorf("network error: %w", err)
}

func displayErrorMessage(w io.Writer, err error, target string) {
	host := ExtractHostFromURL(target)

	switch Classify(err) {
	case CategoryTimeout:
		pterm.Fprintln(w, "⏱️  The kernel at "+host+" did not complete the handshake in time.")
		pterm.Fprintln(w, "   • The process may be busy or still starting")
		pterm.Fprintln(w, "   • A firewall may be dropping the connection")
	case CategoryDNS:
		pterm.Fprintln(w, "🌐 Cannot resolve "+host+".")
		pterm.Fprintln(w, "   • Check the --host or --url value")
	case CategoryRefused:
		pterm.Fprintln(w, "🚫 Nothing is listening on "+host+".")
		pterm.Fprintln(w, "   • Start the kernel (cargo run -p kernel) or the mock (brio-devkit mock-kernel)")
		pterm.Fprintln(w, "   • Check the --port value")
	case CategoryTLS:
		pterm.Fprintln(w, "🔒 Secure connection to "+host+" failed.")
		pterm.Fprintln(w, "   • Use ws:// for a local kernel, wss:// only behind TLS")
	case CategoryHandshake:
		pterm.Fprintln(w, "⚠️  "+host+" answered HTTP but refused the WebSocket upgrade.")
		pterm.Fprintln(w, "   • Check the --path value (the kernel serves /ws)")
	case CategoryServer:
		pterm.Fprintln(w, "⚠️  "+host+" failed with a server error during the upgrade.")
	default:
		pterm.Fprintln(w, "❌ Cannot connect to "+host+".")
	}
	pterm.Fprintln(w, "Ensure the Kernel is running (cargo run -p kernel) before running this script.")
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused")
}

// isTLSError checks if the error is a TLS error.
func isTLSError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate")
}

// ExtractHostFromURL extracts the host from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "the server"
	}
	return u.Host
}
