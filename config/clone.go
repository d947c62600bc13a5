// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/clone.go
// Summary: Copy and overlay helpers for config maps.

package config

// Clone returns a copy of the config with its sections copied one level deep.
func Clone(cfg Config) Config {
	if cfg == nil {
		return nil
	}
	out := make(Config, len(cfg))
	for name, value := range cfg {
		if section := asSection(value); section != nil {
			out[name] = cloneSection(section)
			continue
		}
		out[name] = value
	}
	return out
}

// Merge lays overlay on top of base key by key and returns base. Sections
// present in both are merged rather than replaced.
func Merge(base, overlay Config) Config {
	if base == nil {
		base = make(Config)
	}
	for name, value := range overlay {
		src := asSection(value)
		if src == nil {
			base[name] = value
			continue
		}
		dst := base.Section(name)
		if dst == nil {
			base[name] = cloneSection(src)
			continue
		}
		for key, v := range src {
			dst[key] = v
		}
	}
	return base
}

func asSection(v interface{}) Section {
	switch s := v.(type) {
	case Section:
		return s
	case map[string]interface{}:
		return Section(s)
	}
	return nil
}

func cloneSection(s Section) Section {
	out := make(Section, len(s))
	for key, value := range s {
		out[key] = value
	}
	return out
}
