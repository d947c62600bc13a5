// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmud/worlds.go
// Summary: Connects the /world command to the config store.

package main

import (
	"slices"

	"github.com/framegrace/texelmud/config"
)

// worldStore implements client.WorldStore on top of the config package.
type worldStore struct{}

func (worldStore) Worlds() ([]string, error) {
	names, err := config.Worlds()
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// SaveAddress records address as the world's default address, keeping any
// other settings the world already has.
func (worldStore) SaveAddress(name, address string) error {
	cfg, err := config.World(name)
	if err != nil {
		return err
	}
	cfg = config.Clone(cfg)
	if cfg == nil {
		cfg = make(config.Config)
	}
	cfg.Set("connection", "default_address", address)
	if err := config.SetWorld(name, cfg); err != nil {
		return err
	}
	return config.SaveWorld(name)
}
