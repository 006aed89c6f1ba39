// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingest_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/camrelay/internal/ingest"
	"github.com/ManuGH/camrelay/internal/testutil"
)

// ports returns a live TCP port and a closed one on loopback.
func ports(t *testing.T) (open, closed int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	dead, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closed = dead.Addr().(*net.TCPAddr).Port
	require.NoError(t, dead.Close())

	return ln.Addr().(*net.TCPAddr).Port, closed
}

func TestResolve_PrefersFirstReachable(t *testing.T) {
	open, closed := ports(t)

	port, err := ingest.NewResolver([]int{closed, open}, time.Second, nil).Resolve(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, open, port)
}

func TestResolve_UnreachableOnRealSockets(t *testing.T) {
	_, closed := ports(t)

	_, err := ingest.NewResolver([]int{closed}, time.Second, nil).Resolve(context.Background(), "127.0.0.1")
	require.ErrorIs(t, err, ingest.ErrUnreachable)
}

func TestResolve_DialsInPreferenceOrder(t *testing.T) {
	tests := []struct {
		name      string
		accept    map[string]bool
		wantPort  int
		wantDials []string
		wantErr   error
	}{
		{
			name:      "first port answers",
			accept:    map[string]bool{"icecast.example.org:80": true, "icecast.example.org:8000": true},
			wantPort:  80,
			wantDials: []string{"icecast.example.org:80"},
		},
		{
			name:      "only second port answers",
			accept:    map[string]bool{"icecast.example.org:8000": true},
			wantPort:  8000,
			wantDials: []string{"icecast.example.org:80", "icecast.example.org:8000"},
		},
		{
			name:      "nothing answers",
			accept:    map[string]bool{},
			wantDials: []string{"icecast.example.org:80", "icecast.example.org:8000"},
			wantErr:   ingest.ErrUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := &testutil.SpyDialer{Accept: tt.accept}
			port, err := ingest.NewResolver(nil, time.Second, dialer).Resolve(context.Background(), "icecast.example.org")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, testutil.ErrRefused)
				assert.Contains(t, err.Error(), "80, 8000")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPort, port)
			}
			if diff := cmp.Diff(tt.wantDials, dialer.Dials()); diff != "" {
				t.Errorf("dial order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dialer := &testutil.SpyDialer{Accept: map[string]bool{"h:80": true}}
	_, err := ingest.NewResolver(nil, time.Second, dialer).Resolve(ctx, "h")

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ingest.ErrUnreachable)
	assert.Empty(t, dialer.Dials())
}

func TestNewResolver_Defaults(t *testing.T) {
	r := ingest.NewResolver(nil, 0, nil)
	assert.Equal(t, []int{80, 8000}, r.Ports())
}
