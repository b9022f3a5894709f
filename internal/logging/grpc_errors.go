// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCErrorType represents the category of gRPC error
type GRPCErrorType int

const (
	GRPCErrorUnknown GRPCErrorType = iota
	GRPCErrorNetwork
	GRPCErrorTimeout
	GRPCErrorUnavailable
	GRPCErrorUnimplemented
	GRPCErrorNotServing
)

// ClassifyGRPCError categorizes an error returned by a health probe.
// Status codes win; the message text is only consulted for plain errors.
func ClassifyGRPCError(err error) GRPCErrorType {
	if err == nil {
		return GRPCErrorUnknown
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return GRPCErrorTimeout
		case codes.Unavailable:
			return GRPCErrorUnavailable
		case codes.Unimplemented:
			return GRPCErrorUnimplemented
		case codes.NotFound:
			return GRPCErrorNotServing
		}
	}
	return ParseGRPCError(err.Error())
}

// ParseGRPCError categorizes a gRPC error message
func ParseGRPCError(errMsg string) GRPCErrorType {
	lower := strings.ToLower(errMsg)

	if strings.Contains(lower, "rst_stream") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "connection refused") {
		return GRPCErrorNetwork
	}
	if strings.Contains(lower, "not_serving") || strings.Contains(lower, "not serving") {
		return GRPCErrorNotServing
	}
	if strings.Contains(lower, "unavailable") {
		return GRPCErrorUnavailable
	}
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout") {
		return GRPCErrorTimeout
	}

	return GRPCErrorUnknown
}

// FormatHealthError formats a failed health probe in a user-friendly way
func FormatHealthError(addr string, err error) string {
	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Health Check Failed"))
	builder.WriteString("\n\n")

	switch ClassifyGRPCError(err) {
	case GRPCErrorNetwork, GRPCErrorUnavailable:
		builder.WriteString(fmt.Sprintf("Nothing is answering gRPC on %s.\n", addr))
		builder.WriteString("  • Start the mock kernel with --grpc-addr, or the real kernel\n")
		builder.WriteString("  • Check that the health address matches the server's\n")
	case GRPCErrorTimeout:
		builder.WriteString(fmt.Sprintf("The health probe to %s timed out.\n", addr))
		builder.WriteString("  • The server may be overloaded or still starting\n")
	case GRPCErrorUnimplemented:
		builder.WriteString(fmt.Sprintf("The server on %s does not expose grpc.health.v1.\n", addr))
	case GRPCErrorNotServing:
		builder.WriteString(fmt.Sprintf("The server on %s is up but not serving.\n", addr))
	default:
		builder.WriteString(fmt.Sprintf("The health probe to %s failed.\n", addr))
	}

	if err != nil && strings.TrimSpace(err.Error()) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}

	return builder.String()
}

// PresentHealthError writes a formatted health probe error to w
func PresentHealthError(w io.Writer, addr string, err error) {
	pterm.Fprintln(w)
	pterm.Fprintln(w, FormatHealthError(addr, err))
	pterm.Fprintln(w)
}
