// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/framegrace/texelmud/config"
)

func TestWorldStoreSavesAddress(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)
	if err := config.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	var ws worldStore
	if err := ws.SaveAddress("mume", "mume.org:4242"); err != nil {
		t.Fatalf("SaveAddress: %v", err)
	}
	if err := ws.SaveAddress("aardwolf", "aardmud.org:23"); err != nil {
		t.Fatalf("SaveAddress: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "texelmud", "worlds", "mume.json")); err != nil {
		t.Fatalf("world file not written: %v", err)
	}

	names, err := ws.Worlds()
	if err != nil {
		t.Fatalf("Worlds: %v", err)
	}
	if want := []string{"aardwolf", "mume"}; !slices.Equal(names, want) {
		t.Fatalf("Worlds = %v, want %v", names, want)
	}

	if err := config.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	cfg, err := config.Effective("mume")
	if err != nil {
		t.Fatalf("Effective: %v", err)
	}
	if got := cfg.GetString("connection", "default_address", ""); got != "mume.org:4242" {
		t.Fatalf("default_address = %q", got)
	}

	if err := ws.SaveAddress("../escape", "x:1"); err == nil {
		t.Fatalf("expected an error for a bad world name")
	}
}
