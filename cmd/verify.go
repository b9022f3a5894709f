// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"os"
	"time"

	"brio/devkit/internal/bridge"
	"brio/devkit/internal/config"
	"brio/devkit/internal/terminal"
	"brio/devkit/internal/verify"

	"atomicgo.dev/cursor"
	"github.com/spf13/cobra"
)

// verifyCmd checks a kernel endpoint for protocol conformance.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that an endpoint speaks the kernel protocol",
	Long: `The verify command connects to a kernel endpoint, submits a task and a query,
and checks that each is answered with a status "success" response. Each response
is awaited for at most --timeout. With --health-addr a gRPC health check runs first.

The command exits non-zero unless every check passed.`,
	Example: `  brio-devkit verify
  brio-devkit verify --url ws://127.0.0.1:9191/ws --timeout 3s --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := runVerify(cmd)

		// The report is already on screen; only the exit code is left to decide.
		var failed *verify.FailedError
		if errors.As(err, &failed) {
			os.Exit(1)
		}
		return err
	},
}

func runVerify(cmd *cobra.Command) error {
	opts := verify.OptionsFromConfig(cfg)
	opts.Out = os.Stdout

	if terminal.IsInteractive(os.Stdout) {
		cursor.Hide()
		defer cursor.Show()
		width := terminal.Width(os.Stdout)
		opts.OnAwait = func(label string) func() {
			return startInlineSpinner(os.Stdout, label, spinnerFrames, 120*time.Millisecond, width)
		}
	}

	_, err := verify.Run(cmd.Context(), bridge.New(cfg.Verify.Timeout), opts)
	return err
}

func init() {
	f := verifyCmd.Flags()
	f.String(config.KeyURL, "", "full endpoint URL; overrides --host, --port and --path")
	f.Duration(config.KeyTimeout, config.DefaultTimeout, "maximum wait for each response")
	f.String(config.KeyHealthAddr, "", "gRPC health address to check before connecting")
	f.String(config.KeyTaskContent, config.DefaultTaskContent, "content of the task request")
	f.String(config.KeyQuerySQL, config.DefaultQuerySQL, "SQL of the query request")
	f.BoolP(config.KeyVerbose, "v", false, "show failure reasons and round-trip times")
	for _, key := range []string{config.KeyURL, config.KeyTimeout, config.KeyHealthAddr,
		config.KeyTaskContent, config.KeyQuerySQL, config.KeyVerbose} {
		_ = v.BindPFlag(key, f.Lookup(key))
	}

	rootCmd.AddCommand(verifyCmd)
}
