// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command camrelay discovers the RTSP stream of an IP camera and relays it
// to an Icecast server as WebM.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/camrelay/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "start":
		return runStart(ctx, args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, args[1:], stderr)
	case "config":
		return runConfigCLI(args[1:], stdout, stderr)
	case "catalogue":
		return runCatalogue(args[1:], stdout, stderr)
	case "version", "--version", "-version":
		fmt.Fprintln(stdout, version.String())
		return 0
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  camrelay start --host H --user U [--password P] [--mount M] [--wait] [--config file]")
	fmt.Fprintln(w, "  camrelay serve [--config file]")
	fmt.Fprintln(w, "  camrelay config init [--out path] [--force]")
	fmt.Fprintln(w, "  camrelay config show [--config file] [--format=yaml|json]")
	fmt.Fprintln(w, "  camrelay catalogue [--config file]")
	fmt.Fprintln(w, "  camrelay version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The camera password may also be set with CAMRELAY_CAMERA_PASSWORD.")
}
