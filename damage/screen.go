// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/screen.go
// Summary: ScreenPainter paints flush output onto a tcell screen.

package damage

import "github.com/gdamore/tcell/v2"

// ScreenDriver is the subset of tcell.Screen a ScreenPainter needs.
type ScreenDriver interface {
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	Clear()
	Show()
}

// ScreenPainter adapts a ScreenDriver to Painter. It keeps a cursor of its
// own because tcell addresses every cell explicitly.
type ScreenPainter struct {
	screen ScreenDriver
	style  tcell.Style
	x, y   int
}

// NewScreenPainter paints onto screen using the default style.
func NewScreenPainter(screen ScreenDriver) *ScreenPainter {
	return &ScreenPainter{screen: screen, style: tcell.StyleDefault}
}

// SetStyle changes the style used for subsequent glyphs.
func (p *ScreenPainter) SetStyle(style tcell.Style) {
	p.style = style
}

func (p *ScreenPainter) ClearScreen() {
	p.screen.Clear()
}

func (p *ScreenPainter) MoveTo(x, y int) {
	p.x, p.y = x, y
}

func (p *ScreenPainter) Put(glyph string) {
	runes := []rune(glyph)
	if len(runes) == 0 {
		runes = []rune{' '}
	}
	p.screen.SetContent(p.x, p.y, runes[0], runes[1:], p.style)
	p.x++
}

func (p *ScreenPainter) Done() {
	p.screen.Show()
}
