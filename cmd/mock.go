// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"brio/devkit/internal/config"
	"brio/devkit/internal/logging"
	"brio/devkit/internal/mockkernel"

	"github.com/spf13/cobra"
)

// mockCmd runs the mock kernel until interrupted.
var mockCmd = &cobra.Command{
	Use:   "mock-kernel",
	Short: "Serve a mock Brio kernel over WebSocket",
	Long: `The mock-kernel command binds the kernel's WebSocket endpoint and answers
task and query requests so the TUI can be developed without a running kernel.

In legacy mode every client is greeted with a welcome log line and requests are
acknowledged with log lines. In kernel mode every request gets the status response
the real kernel sends, and session begin/commit/rollback are emulated per connection.

GET /healthz reports liveness; --grpc-addr additionally starts a grpc.health.v1 service.`,
	Example: `  brio-devkit mock-kernel
  brio-devkit mock-kernel --mode kernel --port 9191 --grpc-addr 127.0.0.1:9192`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.NewLogger(os.Stdout, cfg.LogLevel)
		return mockkernel.New(cfg, log).ListenAndServe(cmd.Context())
	},
}

func init() {
	f := mockCmd.Flags()
	f.String(config.KeyMode, string(config.ModeLegacy), "response shape: legacy or kernel")
	f.String(config.KeyWelcome, config.DefaultWelcome, "welcome log line sent to new clients in legacy mode")
	f.String(config.KeyGRPCAddr, "", "address for the gRPC health service (disabled when empty)")
	f.String(config.KeyLogLevel, "info", "log level: trace, debug, info, warn, error")
	for _, key := range []string{config.KeyMode, config.KeyWelcome, config.KeyGRPCAddr, config.KeyLogLevel} {
		_ = v.BindPFlag(key, f.Lookup(key))
	}

	rootCmd.AddCommand(mockCmd)
}
