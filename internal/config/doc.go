// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for camrelay.
//
// Precedence is ENV > File > Defaults. The YAML file is parsed strictly:
// unknown keys are fatal so a typo never silently falls back to a default.
package config
