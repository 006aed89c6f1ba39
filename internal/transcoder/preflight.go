// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ManuGH/camrelay/internal/config"
)

// ErrUnavailable means the transcoder binary cannot be run.
var ErrUnavailable = errors.New("transcoder unavailable")

// Preflight resolves bin and runs it with -version. It returns the first line
// of the banner. Any failure is a configuration error.
func Preflight(ctx context.Context, bin string, timeout time.Duration) (string, error) {
	if bin == "" {
		bin = DefaultBinary
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", config.Errorf("transcoder preflight", fmt.Errorf("%w: %q not found: %w", ErrUnavailable, bin, err))
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// #nosec G204 -- path is resolved from operator config
	out, err := exec.CommandContext(ctx, path, VersionArgs()...).Output()
	if err != nil {
		return "", config.Errorf("transcoder preflight", fmt.Errorf("%w: %s -version: %w", ErrUnavailable, path, err))
	}

	line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
	version := strings.TrimSpace(string(line))
	if version == "" {
		return "", config.Errorf("transcoder preflight", fmt.Errorf("%w: %s printed no version banner", ErrUnavailable, path))
	}
	return version, nil
}
