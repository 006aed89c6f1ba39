// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package testutil

import (
	"context"
	"errors"
	"net"
	"sync"
)

// ErrRefused is returned by SpyDialer for addresses it does not accept.
var ErrRefused = errors.New("connect: connection refused")

// SpyDialer records dialed addresses in order and accepts only the listed ones.
type SpyDialer struct {
	Accept map[string]bool

	mu    sync.Mutex
	dials []string
}

func (d *SpyDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	d.dials = append(d.dials, address)
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.Accept[address] {
		return nil, &net.OpError{Op: "dial", Net: network, Err: ErrRefused}
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

// Dials returns the dialed addresses in call order.
func (d *SpyDialer) Dials() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dials...)
}
