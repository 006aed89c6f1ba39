// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/camrelay/internal/log"
)

// fromEnv returns parse(value) when key is set to a non-empty value. Unset or
// empty variables keep def; unparsable ones keep def and log a warning.
// Values of sensitive keys never reach the log.
func fromEnv[T any](key string, def T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}

	v, err := parse(raw)
	if err != nil {
		// parse errors quote their input
		ev := logger.Warn().Str("key", key)
		if !isSensitiveKey(key) {
			ev = ev.Err(err)
		}
		ev.Msg("ignoring invalid environment override")
		return def
	}

	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitiveKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Interface("value", v)
	}
	ev.Msg("using environment override")
	return v
}

// ParseString reads key from the environment, falling back to defaultValue.
func ParseString(key, defaultValue string) string {
	return fromEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads a decimal integer.
func ParseInt(key string, defaultValue int) int {
	return fromEnv(key, defaultValue, strconv.Atoi)
}

// ParseDuration reads a Go duration such as "5s".
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return fromEnv(key, defaultValue, time.ParseDuration)
}

// ParseBool accepts true/false, 1/0 and yes/no, case-insensitive.
func ParseBool(key string, defaultValue bool) bool {
	return fromEnv(key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", s)
	})
}

// ParseIntList reads a comma-separated list such as "80,8000". One bad
// element rejects the whole value.
func ParseIntList(key string, defaultValue []int) []int {
	return fromEnv(key, defaultValue, func(s string) ([]int, error) {
		parts := strings.Split(s, ",")
		out := make([]int, 0, len(parts))
		for _, p := range parts {
			i, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, err
			}
			out = append(out, i)
		}
		return out, nil
	})
}
