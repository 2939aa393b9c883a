// Package main is the entry point for the auto-portforward binary.
//
// auto-portforward monitors the listening ports of a remote host over SSH and
// forwards the ones you toggle back to the local machine. Invoked without
// arguments it launches the interactive process-tree TUI; subcommands cover
// headless forwarding, diagnostics, and the hidden remote agent mode that the
// monitoring bridge starts on the target host.
//
// Usage:
//
//	auto-portforward                     # TUI against the configured host
//	auto-portforward --host db-prod      # TUI against a specific host
//	auto-portforward forward db 5432     # headless forward until Ctrl-C
//	auto-portforward doctor              # environment diagnostics
//
// The CLI is constructed in internal/cli and the TUI in internal/ui. This file
// wires them together with the process-wide shutdown registry so tunnel
// subprocesses are torn down on any exit path.
package main

import (
	"fmt"
	"os"

	"github.com/soraxas/auto-portforward/internal/cli"
	"github.com/soraxas/auto-portforward/internal/shutdown"
)

func main() {
	// Signals run the registered cleanups (forward subprocess teardown)
	// before the process exits.
	shutdown.HandleSignals()

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		shutdown.Run()
		os.Exit(1)
	}
	shutdown.Run()
}
