// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package mount names Icecast mount points.
package mount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/camrelay/internal/config"
)

const (
	// Prefix starts every generated mount name.
	Prefix = "mount_"
	// Suffix ends every mount name.
	Suffix = ".webm"

	randomHexChars = 12
	maxStemLength  = 64
)

var (
	ErrEmptyName   = errors.New("mount name is empty")
	ErrInvalidName = errors.New("mount name may only contain a-z, 0-9, '_' and '-'")
	ErrNameTooLong = fmt.Errorf("mount name exceeds %d characters", maxStemLength)
)

// New returns mount_<12 hex>.webm built from a random UUIDv4. There is no
// collision check against the server.
func New() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return Prefix + id[:randomHexChars] + Suffix
}

// Normalize folds a user-supplied mount into the mount alphabet. Rejections
// are configuration errors.
func Normalize(name string) (string, error) {
	s := norm.NFKC.String(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "/")
	s = strings.ToLower(s)
	s = strings.TrimSuffix(s, Suffix)

	switch {
	case s == "":
		return "", config.Errorf("mount", ErrEmptyName)
	case len(s) > maxStemLength:
		return "", config.Errorf("mount", ErrNameTooLong)
	}
	for _, r := range s {
		if !validRune(r) {
			return "", config.Errorf("mount", fmt.Errorf("%w: %q", ErrInvalidName, r))
		}
	}
	return s + Suffix, nil
}

// Resolve returns the normalized user mount, or a fresh random one when name is empty.
func Resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return New(), nil
	}
	return Normalize(name)
}

func validRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
}
