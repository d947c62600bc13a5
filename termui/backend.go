// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: termui/backend.go
// Summary: Backend is the terminal the UI draws on and reads keys from.

package termui

import "github.com/framegrace/texelmud/damage"

// Backend owns the real terminal. Input is read on a goroutine of the
// backend's own and delivered on Events; every other method is called from
// the goroutine that owns the UI.
type Backend interface {
	// Size returns the terminal dimensions in cells.
	Size() (width, height int)
	// Events delivers input. The channel is closed when input ends.
	Events() <-chan InputEvent
	// Painter returns the sink damage flushes are painted through.
	Painter() damage.Painter
	// ShowCursor places the visible cursor at column x, row y.
	ShowCursor(x, y int)
	// Close restores the terminal.
	Close() error
}
