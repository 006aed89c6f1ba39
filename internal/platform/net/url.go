// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// RedactURL replaces any userinfo in rawURL with "***" so the URL can be logged.
// Path and query are preserved because they identify the probed template.
func RedactURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		// Fall back to a string cut so a malformed URL still never leaks userinfo.
		schemeIdx := strings.Index(rawURL, "://")
		at := strings.LastIndex(rawURL, "@")
		if schemeIdx > 0 && at > schemeIdx {
			return rawURL[:schemeIdx+3] + "***" + rawURL[at:]
		}
		return "invalid-url-redacted"
	}
	if u.User == nil {
		return u.String()
	}
	u.User = nil
	s := u.String()
	prefix := u.Scheme + "://"
	return prefix + "***@" + strings.TrimPrefix(s, prefix)
}

// JoinHostPort joins a normalized host and a numeric port, bracketing IPv6 literals.
func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
