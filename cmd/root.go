// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface of the Brio developer kit.
// It implements the mock-kernel and verify subcommands using the Cobra CLI framework.
// Settings are resolved through viper from flags, BRIO_* environment variables, an
// optional config file and defaults; a .env file in the working directory is loaded
// before anything else.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"brio/devkit/internal/config"
	"brio/devkit/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	showVersion bool

	// v holds every setting; commands bind their flags to it in init.
	v = config.NewViper()
	// cfg is resolved in PersistentPreRunE before any command runs.
	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "brio-devkit",
	Short: "Mock kernel and protocol verifier for Brio TUI development",
	Long: `brio-devkit bundles two development tools for the Brio kernel's WebSocket protocol:
a mock kernel that UI work can run against, and a verifier that checks whether an
endpoint answers task and query requests the way the kernel does.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ReadFile(v); err != nil {
			return err
		}
		c, err := config.Load(v)
		if err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		cfg = c
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("brio-devkit %s\n", Version)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// SIGINT and SIGTERM cancel the command context, which stops the mock kernel
// gracefully and aborts a verification run.
func Execute() {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logging.PresentError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")

	pf := rootCmd.PersistentFlags()
	pf.String(config.KeyHost, config.DefaultHost, "kernel host")
	pf.Int(config.KeyPort, config.DefaultPort, "kernel port")
	pf.String(config.KeyPath, config.DefaultPath, "WebSocket path")
	for _, key := range []string{config.KeyHost, config.KeyPort, config.KeyPath} {
		_ = v.BindPFlag(key, pf.Lookup(key))
	}
}
