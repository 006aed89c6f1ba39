// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package net holds host and URL helpers shared by the camera and ingest sides.
package net

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/net/idna"
)

var errEmptyHost = errors.New("host is empty")

// hostRejects lists fragments that mean the caller passed more than a host.
var hostRejects = []struct {
	fragment string
	what     string
}{
	{"://", "scheme"},
	{"/", "path"},
	{"@", "userinfo"},
	{"%", "zone"},
}

// NormalizeHost returns the canonical form of a bare host: lower case, no
// trailing dot, IPv6 without brackets, IDN names in ASCII. Anything that is not
// a bare host (scheme, path, userinfo, port, zone) is rejected.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	for _, r := range hostRejects {
		if strings.Contains(host, r.fragment) {
			return "", fmt.Errorf("host %q must not include a %s", raw, r.what)
		}
	}
	if inner, ok := strings.CutPrefix(host, "["); ok {
		host, ok = strings.CutSuffix(inner, "]")
		if !ok {
			return "", fmt.Errorf("host %q has an unbalanced bracket", raw)
		}
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", errEmptyHost
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.String(), nil
	}
	if strings.Contains(host, ":") {
		return "", fmt.Errorf("host %q must not include a port", raw)
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}
