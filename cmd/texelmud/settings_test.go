// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/framegrace/texelmud/config"
)

func baseConfig() config.Config {
	return config.Config{
		"view":       map[string]interface{}{"indent": float64(2), "strip_escapes": false},
		"terminal":   map[string]interface{}{"backend": "ansi"},
		"connection": map[string]interface{}{"default_address": "mud.example:4000", "dial_timeout_ms": float64(500)},
		"history":    map[string]interface{}{"enabled": true, "db_path": "/tmp/h.db", "batch_size": float64(10)},
	}
}

func TestResolveSettingsFromConfig(t *testing.T) {
	st, err := resolveSettings(baseConfig(), overrides{})
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if st.backend != "ansi" || st.address != "mud.example:4000" || st.indent != 2 || st.stripEscapes {
		t.Fatalf("settings = %+v", st)
	}
	if st.dialTimeout != 500*time.Millisecond {
		t.Fatalf("dialTimeout = %v", st.dialTimeout)
	}
	if !st.echoInput {
		t.Fatalf("echoInput should default to true")
	}
	if st.history.path != "/tmp/h.db" || st.history.batchSize != 10 || st.history.batchTimeout != 2*time.Second {
		t.Fatalf("history = %+v", st.history)
	}
}

func TestResolveSettingsOverrides(t *testing.T) {
	st, err := resolveSettings(baseConfig(), overrides{
		address:   "exec:cat",
		backend:   "tcell",
		indent:    0,
		indentSet: true,
		noHistory: true,
	})
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if st.backend != "tcell" || st.address != "exec:cat" || st.indent != 0 || st.history.enabled {
		t.Fatalf("settings = %+v", st)
	}

	if _, err := resolveSettings(baseConfig(), overrides{backend: "curses"}); err == nil {
		t.Fatalf("unknown backend accepted")
	}
}

func TestResolveSettingsDefaultHistoryPath(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)

	st, err := resolveSettings(config.Config{}, overrides{})
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	want := filepath.Join(root, "texelmud", "history.db")
	if st.history.path != want {
		t.Fatalf("history path = %q, want %q", st.history.path, want)
	}
	if st.backend != "tcell" || st.indent != 4 {
		t.Fatalf("code defaults not applied: %+v", st)
	}
}

func TestResolveSettingsRejectsBadValues(t *testing.T) {
	tests := []struct {
		o    overrides
		want string
	}{
		{overrides{backend: "curses"}, "unknown terminal backend"},
		{overrides{indent: 500, indentSet: true}, "indent 500 out of range"},
		{overrides{indent: -33, indentSet: true}, "indent -33 out of range"},
	}
	for _, tt := range tests {
		_, err := resolveSettings(baseConfig(), tt.o)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("resolveSettings(%+v) = %v, want error containing %q", tt.o, err, tt.want)
		}
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	err := run([]string{"-no-such-flag"})
	if err == nil || !strings.Contains(err.Error(), "no-such-flag") {
		t.Fatalf("run = %v", err)
	}
}
