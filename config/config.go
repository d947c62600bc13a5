// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: System and per-world configuration store for texelmud.
//
// Architecture:
//
//	texelmud.json holds the client settings (view, history, terminal,
//	connection). Each saved world lives in worlds/<name>.json and overlays
//	those settings: a world carries its address and may override any
//	section key. Effective(name) returns the merged view.

package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const systemConfigName = "texelmud.json"

// Config stores configuration sections as JSON-compatible data.
type Config map[string]interface{}

// Section stores key/value pairs for a configuration section.
type Section map[string]interface{}

var (
	mu      sync.RWMutex
	once    sync.Once
	system  Config
	worlds  map[string]Config
	loadErr error
)

// Err returns the most recent system config load error.
func Err() error {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return loadErr
}

// System returns the system configuration (texelmud.json).
func System() Config {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return system
}

// World returns the saved config for a world (worlds/<name>.json), or nil
// when no such world has been saved.
func World(name string) (Config, error) {
	if name == "" {
		return nil, fmt.Errorf("world name is required")
	}
	once.Do(initStore)

	mu.RLock()
	cfg, ok := worlds[name]
	mu.RUnlock()
	if ok {
		return cfg, nil
	}

	mu.Lock()
	defer mu.Unlock()
	if cfg, ok := worlds[name]; ok {
		return cfg, nil
	}
	loaded, err := loadWorldLocked(name)
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		worlds[name] = loaded
	}
	return loaded, nil
}

// Effective returns the system config with the named world laid over it.
// An empty name returns a copy of the system config.
func Effective(name string) (Config, error) {
	base := Clone(System())
	if name == "" {
		return base, nil
	}
	world, err := World(name)
	if err != nil {
		return nil, err
	}
	if world == nil {
		return nil, fmt.Errorf("unknown world %q", name)
	}
	return Merge(base, world), nil
}

// Worlds lists the names of saved worlds.
func Worlds() ([]string, error) {
	dir, err := worldsDir()
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, base[:len(base)-len(".json")])
	}
	return names, nil
}

// Reload refreshes the system config and drops cached worlds.
func Reload() error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	worlds = make(map[string]Config)
	loadErr = loadSystemLocked()
	return loadErr
}

// SaveSystem persists the current system config to disk.
func SaveSystem() error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	path, err := systemConfigPath()
	if err != nil {
		return err
	}
	return writeConfig(path, system)
}

// SaveWorld persists a world config to disk.
func SaveWorld(name string) error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	cfg, ok := worlds[name]
	if !ok {
		return fmt.Errorf("unknown world %q", name)
	}
	path, err := worldConfigPath(name)
	if err != nil {
		return err
	}
	return writeConfig(path, cfg)
}

// SetSystem replaces the in-memory system config with the provided config.
func SetSystem(cfg Config) {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	if cfg == nil {
		cfg = make(Config)
	}
	system = Clone(cfg)
	applySystemDefaults(system)
}

// SetWorld replaces the in-memory config of a world. Use SaveWorld to
// write it out.
func SetWorld(name string, cfg Config) error {
	if err := validWorldName(name); err != nil {
		return err
	}
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	if cfg == nil {
		cfg = make(Config)
	}
	worlds[name] = Clone(cfg)
	return nil
}

func initStore() {
	mu.Lock()
	defer mu.Unlock()
	system = make(Config)
	worlds = make(map[string]Config)
	loadErr = loadSystemLocked()
}

func readConfig(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

func writeConfig(path string, cfg Config) error {
	if cfg == nil {
		cfg = make(Config)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	log.Printf("Config: Wrote %s", path)
	return nil
}
