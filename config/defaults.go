// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for system and world configuration files.

package config

func applySystemDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("view", Section{
		"indent":        4,
		"strip_escapes": true,
	})
	cfg.RegisterDefaults("history", Section{
		"enabled":          true,
		"db_path":          "",
		"batch_size":       100,
		"batch_timeout_ms": 2000,
	})
	cfg.RegisterDefaults("terminal", Section{
		"backend": "tcell",
	})
	cfg.RegisterDefaults("connection", Section{
		"dial_timeout_ms": 10000,
		"default_address": "",
		"echo_input":      true,
	})
}

// A world only needs an address; everything else falls through to the
// system config in Effective.
func applyWorldDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("connection", Section{
		"default_address": "",
	})
}
