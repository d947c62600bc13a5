// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: termui/inputline.go
// Summary: Single-line input editor that grows downward as the text wraps.

package termui

import (
	"slices"

	"github.com/mattn/go-runewidth"

	"github.com/framegrace/texelmud/scrollback"
)

const maxInputHistory = 500

// InputLine edits one line of text. The text is shown in chunks of width
// runes; the cursor sits between runes, 0 being before the first.
type InputLine struct {
	buf    []rune
	cursor int
	width  int

	history []string
	// histPos indexes history while browsing; len(history) means not browsing.
	histPos int
	draft   []rune
}

// NewInputLine creates an empty editor wrapping at width.
func NewInputLine(width int) *InputLine {
	return &InputLine{width: max(width, 1)}
}

// SetWidth changes the wrap width.
func (l *InputLine) SetWidth(width int) {
	l.width = max(width, 1)
}

// Text returns the current contents.
func (l *InputLine) Text() string {
	return string(l.buf)
}

// CursorIndex returns the cursor position in runes.
func (l *InputLine) CursorIndex() int {
	return l.cursor
}

// Insert adds r at the cursor.
func (l *InputLine) Insert(r rune) {
	l.buf = slices.Insert(l.buf, l.cursor, r)
	l.cursor++
}

// Backspace deletes the rune before the cursor.
func (l *InputLine) Backspace() {
	if l.cursor == 0 {
		return
	}
	l.buf = slices.Delete(l.buf, l.cursor-1, l.cursor)
	l.cursor--
}

// Delete deletes the rune after the cursor.
func (l *InputLine) Delete() {
	if l.cursor >= len(l.buf) {
		return
	}
	l.buf = slices.Delete(l.buf, l.cursor, l.cursor+1)
}

// Move shifts the cursor by offset runes, clamped to the text.
func (l *InputLine) Move(offset int) {
	l.cursor = min(max(l.cursor+offset, 0), len(l.buf))
}

// Home moves the cursor to the start.
func (l *InputLine) Home() { l.cursor = 0 }

// End moves the cursor past the last rune.
func (l *InputLine) End() { l.cursor = len(l.buf) }

// Set replaces the contents and puts the cursor at the end.
func (l *InputLine) Set(text string) {
	l.buf = []rune(text)
	l.cursor = len(l.buf)
}

// Clear empties the editor.
func (l *InputLine) Clear() {
	l.buf = l.buf[:0]
	l.cursor = 0
}

// Submit returns the text, records it in the recall history and clears the
// editor. Empty lines and repeats of the previous entry are not recorded.
func (l *InputLine) Submit() string {
	text := string(l.buf)
	if text != "" && (len(l.history) == 0 || l.history[len(l.history)-1] != text) {
		l.history = append(l.history, text)
		if len(l.history) > maxInputHistory {
			l.history = slices.Delete(l.history, 0, len(l.history)-maxInputHistory)
		}
	}
	l.histPos = len(l.history)
	l.draft = nil
	l.buf = nil
	l.cursor = 0
	return text
}

// HistoryPrev recalls the previous submitted line. The line being typed is
// kept and comes back after the newest entry.
func (l *InputLine) HistoryPrev() {
	if l.histPos > len(l.history) {
		l.histPos = len(l.history)
	}
	if l.histPos == 0 {
		return
	}
	if l.histPos == len(l.history) {
		l.draft = slices.Clone(l.buf)
	}
	l.histPos--
	l.Set(l.history[l.histPos])
}

// HistoryNext moves forward through the recall history.
func (l *InputLine) HistoryNext() {
	if l.histPos >= len(l.history) {
		return
	}
	l.histPos++
	if l.histPos == len(l.history) {
		l.buf = l.draft
		l.draft = nil
		l.cursor = len(l.buf)
		return
	}
	l.Set(l.history[l.histPos])
}

// Rows returns how many rows Render produces. There is always room for the
// cursor after the last rune, so a full row adds another.
func (l *InputLine) Rows() int {
	return len(l.buf)/l.width + 1
}

// Render returns Rows() strings of exactly width runes.
func (l *InputLine) Render() []string {
	rows := make([]string, l.Rows())
	for i := range rows {
		start := min(i*l.width, len(l.buf))
		end := min(start+l.width, len(l.buf))
		rows[i] = scrollback.ForceWidth(string(l.buf[start:end]), l.width)
	}
	return rows
}

// Cursor returns the cursor's row within Render's output and its display
// column within that row.
func (l *InputLine) Cursor() (x, y int) {
	y = l.cursor / l.width
	start := y * l.width
	return runewidth.StringWidth(string(l.buf[start:l.cursor])), y
}
