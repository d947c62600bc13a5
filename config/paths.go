// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for texelmud configuration and state files.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the texelmud configuration directory, joined with elem.
// Logs and the session archive live under it too.
func Dir(elem ...string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{configDir, "texelmud"}, elem...)...), nil
}

func systemConfigPath() (string, error) {
	return Dir(systemConfigName)
}

func worldsDir() (string, error) {
	return Dir("worlds")
}

func worldConfigPath(name string) (string, error) {
	if err := validWorldName(name); err != nil {
		return "", err
	}
	return Dir("worlds", name+".json")
}

func validWorldName(name string) error {
	if name == "" {
		return fmt.Errorf("world name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid world name %q", name)
	}
	return nil
}
