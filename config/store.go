// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/store.go
// Summary: Load logic for the system and world config files.

package config

import (
	"fmt"
	"log"
)

// loadSystemLocked reads texelmud.json. A missing or empty file is replaced
// by the embedded defaults and written back so users have something to edit.
func loadSystemLocked() error {
	path, err := systemConfigPath()
	if err != nil {
		log.Printf("Config: Failed to resolve system config path: %v", err)
		system = defaultSystemConfig()
		applySystemDefaults(system)
		return err
	}

	cfg, exists, readErr := readConfig(path)
	if readErr != nil {
		log.Printf("Config: Failed to read system config %s: %v", path, readErr)
		cfg = nil
	}

	if readErr == nil && len(cfg) == 0 {
		cfg = defaultSystemConfig()
		if err := writeConfig(path, cfg); err != nil {
			log.Printf("Config: Failed to write default system config: %v", err)
			readErr = err
		}
	}
	if cfg == nil {
		cfg = defaultSystemConfig()
	}
	applySystemDefaults(cfg)

	system = cfg
	if readErr == nil && exists {
		log.Printf("Config: Loaded system config from %s", path)
	}
	return readErr
}

// loadWorldLocked returns nil, nil when the world has never been saved.
func loadWorldLocked(name string) (Config, error) {
	path, err := worldConfigPath(name)
	if err != nil {
		return nil, err
	}
	cfg, exists, err := readConfig(path)
	if err != nil {
		return nil, fmt.Errorf("world %q: %w", name, err)
	}
	if !exists {
		return nil, nil
	}
	if cfg == nil {
		cfg = make(Config)
	}
	applyWorldDefaults(cfg)
	log.Printf("Config: Loaded world %q from %s", name, path)
	return cfg, nil
}
