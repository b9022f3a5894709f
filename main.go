// Package main is the entry point for brio-devkit.
// It serves a mock Brio kernel and verifies kernel endpoints over WebSocket.
package main

import (
	"brio/devkit/cmd"
)

func main() {
	cmd.Execute()
}
