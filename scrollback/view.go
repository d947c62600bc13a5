// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: scrollback/view.go
// Summary: View is a scrollable, word-wrapped window onto an append-only history.
//
// Architecture:
//
//	History holds logical lines in arrival order; index Len()-1 is the most
//	recent. Rendering walks backwards from the scroll anchor, wrapping lines
//	on demand through the wrap cache, and stops once the viewport is full.
//
//	The scroll position is (anchor line, discarded rows): the logical line
//	drawn at the bottom of the view and how many of its trailing wrapped rows
//	are already below the bottom edge.
//
//	A View is owned by a single goroutine; it has no internal locking.

package scrollback

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Position is a scroll position within a View.
type Position struct {
	// Line is the logical line anchoring the bottom of the view.
	Line int
	// Discard counts trailing wrapped rows of Line hidden below the view.
	Discard int
}

// ViewOption configures a View at construction time.
type ViewOption func(*View)

// WithIndent sets the initial indent. See FormatOptions.
func WithIndent(indent int) ViewOption {
	return func(v *View) { v.opts.Indent = indent }
}

// WithStripEscapes controls whether ANSI escape sequences are removed from
// pushed text. Enabled by default. When disabled the ESC byte is still dropped,
// so a sequence shows up as its literal parameters.
func WithStripEscapes(strip bool) ViewOption {
	return func(v *View) { v.stripEscapes = strip }
}

// View is a word-wrapped view onto scrollback history.
type View struct {
	height int
	opts   FormatOptions

	history  []string
	cache    *wrapCache
	position Position

	stripEscapes bool
}

// NewView creates an empty view of the given size.
func NewView(width, height int, options ...ViewOption) *View {
	v := &View{
		height:       height,
		opts:         FormatOptions{Width: width, Indent: DefaultIndent},
		cache:        newWrapCache(),
		stripEscapes: true,
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Resize updates the viewport dimensions. Cached wraps are not purged; each
// one is rebuilt the next time it is read, except the anchor line, which is
// rewrapped at once to keep the scroll position valid.
func (v *View) Resize(width, height int) {
	v.height = height
	v.opts.Width = width
	v.clampDiscard()
}

// SetIndent changes the indent used for wrapping.
func (v *View) SetIndent(indent int) {
	v.opts.Indent = indent
	v.clampDiscard()
}

// clampDiscard keeps the discarded row count inside the anchor line's current
// wrap, so a rewrap to fewer rows cannot leave the view detached from the tail.
func (v *View) clampDiscard() {
	if len(v.history) == 0 {
		return
	}
	v.position.Discard = min(v.position.Discard, len(v.wrapAt(v.position.Line))-1)
}

// Options returns the active format options.
func (v *View) Options() FormatOptions {
	return v.opts
}

// Size returns the viewport width and height.
func (v *View) Size() (int, int) {
	return v.opts.Width, v.height
}

// Len returns the number of logical lines in history.
func (v *View) Len() int {
	return len(v.history)
}

// Line returns the stored logical line at index, or "" if out of range.
func (v *View) Line(index int) string {
	if index < 0 || index >= len(v.history) {
		return ""
	}
	return v.history[index]
}

// Position returns the current scroll position.
func (v *View) Position() Position {
	return v.position
}

// AtTail reports whether the view follows new lines.
func (v *View) AtTail() bool {
	return len(v.history) == 0 ||
		(v.position.Line == len(v.history)-1 && v.position.Discard == 0)
}

// Push appends a logical line. Control characters are removed from raw and
// tabs become single spaces, so every stored rune occupies one cell. If the view
// was at the tail it follows the new line; otherwise it stays where it is.
func (v *View) Push(raw string) string {
	line := v.clean(raw)
	follow := v.AtTail()
	v.history = append(v.history, line)
	if follow {
		v.position = Position{Line: len(v.history) - 1}
	}
	return line
}

func (v *View) clean(raw string) string {
	if v.stripEscapes {
		raw = ansi.Strip(raw)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, raw)
}

// ScrollUp moves the view rows screen rows back into history, stopping at the
// first row of the oldest line.
func (v *View) ScrollUp(rows int) {
	if len(v.history) == 0 {
		return
	}
	line, discard := v.position.Line, v.position.Discard
	for rows > 0 {
		n := len(v.wrapAt(line))
		discard = min(discard, n-1)
		if step := min(rows, n-1-discard); step > 0 {
			discard += step
			rows -= step
			continue
		}
		if line == 0 {
			break
		}
		line--
		discard = 0
		rows--
	}
	v.position = Position{Line: line, Discard: discard}
}

// ScrollDown moves the view rows screen rows towards the tail.
func (v *View) ScrollDown(rows int) {
	if len(v.history) == 0 {
		return
	}
	line, discard := v.position.Line, v.position.Discard
	discard = min(discard, len(v.wrapAt(line))-1)
	for rows > 0 {
		if discard > 0 {
			step := min(rows, discard)
			discard -= step
			rows -= step
			continue
		}
		if line >= len(v.history)-1 {
			break
		}
		line++
		discard = len(v.wrapAt(line)) - 1
		rows--
	}
	v.position = Position{Line: line, Discard: discard}
}

// ScrollToBottom re-attaches the view to the tail of history.
func (v *View) ScrollToBottom() {
	if len(v.history) == 0 {
		v.position = Position{}
		return
	}
	v.position = Position{Line: len(v.history) - 1}
}

// Render returns exactly height rows, each exactly width runes, top to bottom.
// Missing rows are padded with blanks at the top. Render does not move the
// scroll position.
func (v *View) Render() []string {
	if v.height <= 0 {
		return []string{}
	}
	out := make([]string, 0, v.height)

	if len(v.history) > 0 {
		for i := v.position.Line; i >= 0 && len(out) < v.height; i-- {
			rows := v.wrapAt(i)
			end := len(rows)
			if i == v.position.Line {
				end -= min(v.position.Discard, len(rows)-1)
			}
			for j := end - 1; j >= 0 && len(out) < v.height; j-- {
				out = append(out, rows[j].Text)
			}
		}
	}

	blank := strings.Repeat(" ", max(v.opts.Width, 0))
	for len(out) < v.height {
		out = append(out, blank)
	}
	slices.Reverse(out)
	return out
}

// wrapAt returns the wrapped rows for history index i, recomputing them when
// the cached copy was built with different options.
func (v *View) wrapAt(i int) []ScreenLine {
	if i < 0 || i >= len(v.history) {
		panic(fmt.Sprintf("scrollback: wrap of line %d outside history of %d lines", i, len(v.history)))
	}
	if lines := v.cache.Get(i, v.opts); lines != nil {
		return lines
	}
	lines := Wrap(v.history[i], v.opts)
	for j := range lines {
		lines[j].Logical = i
	}
	v.cache.Set(i, lines)
	return lines
}

// CacheStats returns wrap cache hit/miss counts.
func (v *View) CacheStats() (hits, misses int64) {
	return v.cache.Stats()
}

// CacheLen returns the number of cached entries, including stale ones.
func (v *View) CacheLen() int {
	return v.cache.Len()
}
