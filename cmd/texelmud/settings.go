// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmud/settings.go
// Summary: Resolves runtime settings from config and command-line flags.

package main

import (
	"fmt"
	"time"

	"github.com/framegrace/texelmud/client"
	"github.com/framegrace/texelmud/config"
)

type historySettings struct {
	enabled      bool
	path         string
	batchSize    int
	batchTimeout time.Duration
}

type settings struct {
	backend      string
	address      string
	indent       int
	stripEscapes bool
	echoInput    bool
	dialTimeout  time.Duration
	history      historySettings
}

// overrides carries flag values. Empty strings and unset flags leave the
// config value alone.
type overrides struct {
	address     string
	backend     string
	indent      int
	indentSet   bool
	noHistory   bool
	historyPath string
}

func resolveSettings(cfg config.Config, o overrides) (settings, error) {
	st := settings{
		backend:      cfg.GetString("terminal", "backend", "tcell"),
		address:      cfg.GetString("connection", "default_address", ""),
		indent:       cfg.GetInt("view", "indent", 4),
		stripEscapes: cfg.GetBool("view", "strip_escapes", true),
		echoInput:    cfg.GetBool("connection", "echo_input", true),
		dialTimeout:  cfg.GetMillis("connection", "dial_timeout_ms", 10*time.Second),
		history: historySettings{
			enabled:      cfg.GetBool("history", "enabled", true),
			path:         cfg.GetString("history", "db_path", ""),
			batchSize:    cfg.GetInt("history", "batch_size", 100),
			batchTimeout: cfg.GetMillis("history", "batch_timeout_ms", 2*time.Second),
		},
	}

	if o.backend != "" {
		st.backend = o.backend
	}
	if o.address != "" {
		st.address = o.address
	}
	if o.indentSet {
		st.indent = o.indent
	}
	if o.noHistory {
		st.history.enabled = false
	}
	if o.historyPath != "" {
		st.history.path = o.historyPath
	}

	switch st.backend {
	case "tcell", "ansi":
	default:
		return settings{}, fmt.Errorf("unknown terminal backend %q (want tcell or ansi)", st.backend)
	}
	if st.indent < -client.MaxIndent || st.indent > client.MaxIndent {
		return settings{}, fmt.Errorf("indent %d out of range [%d, %d]", st.indent, -client.MaxIndent, client.MaxIndent)
	}
	if st.history.enabled && st.history.path == "" {
		path, err := config.Dir("history.db")
		if err != nil {
			return settings{}, fmt.Errorf("history path: %w", err)
		}
		st.history.path = path
	}
	return st, nil
}
