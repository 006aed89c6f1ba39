// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"io"
)

// runCatalogue prints the active path templates in probe order.
func runCatalogue(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("camrelay catalogue", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(resolveConfigPath(*configPath))
	if err != nil {
		return fail(stderr, "%v", err)
	}
	cat, err := loadCatalogue(cfg)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	for _, t := range cat {
		fmt.Fprintln(stdout, string(t))
	}
	return 0
}
