// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
	// Use errors.Is(err, ErrUnknownConfigField) instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrConfiguration classifies every failure that must stop a start action
	// before any work begins: invalid input, missing secrets, missing transcoder.
	ErrConfiguration = errors.New("configuration error")
)

// Error wraps a configuration failure so callers can match ErrConfiguration
// while still unwrapping the underlying cause.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return "configuration error: " + e.Err.Error()
	}
	return "configuration error: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

// Errorf is a convenience constructor for *Error.
func Errorf(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
