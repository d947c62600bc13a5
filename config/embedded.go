// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/embedded.go
// Summary: Access to the default config shipped with the binary.

package config

import (
	"encoding/json"
	"log"

	"github.com/framegrace/texelmud/defaults"
)

// defaultSystemConfig parses the embedded texelmud.json. It never returns
// nil; a broken embed falls back to the code defaults alone.
func defaultSystemConfig() Config {
	cfg := make(Config)
	if data := defaults.SystemConfig(); len(data) > 0 {
		if err := json.Unmarshal(data, &cfg); err != nil {
			log.Printf("Config: Embedded system config is invalid: %v", err)
			cfg = make(Config)
		}
	}
	return cfg
}
