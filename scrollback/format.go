// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: scrollback/format.go
// Summary: Greedy word wrapper turning one logical line into fixed-width screen lines.
//
// Architecture:
//
//	Wrap is a pure function. It scans the logical line once, tracking the
//	width consumed since the last committed break and the most recent
//	whitespace seen since then. When the consumed width overflows the target
//	width for the current row it commits a break, preferring the whitespace
//	and falling back to a mid-token break.
//
//	Widths are counted in runes. This is an approximation of display width:
//	wide and combining characters are measured as one column each.

package scrollback

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultIndent is the hanging indent applied by a new View.
const DefaultIndent = 4

// FormatOptions controls how logical lines are wrapped.
//
// Indent selects the indentation mode: a positive value gives a hanging indent
// (every row but the first is indented), a negative value gives a first-line
// indent. The magnitude is the indent width in columns.
type FormatOptions struct {
	Width  int
	Indent int
}

// indents returns the per-row target widths and prefixes for the options.
// The indent magnitude is capped at Width-1 so every row keeps at least one
// column for text.
func (o FormatOptions) indents() (firstWidth, restWidth int, firstPrefix, restPrefix string) {
	width := max(o.Width, 1)
	indent := min(max(o.Indent, 1-width), width-1)
	firstWidth, restWidth = width, width
	switch {
	case indent < 0:
		firstPrefix = strings.Repeat(" ", -indent)
		firstWidth = width + indent
	case indent > 0:
		restPrefix = strings.Repeat(" ", indent)
		restWidth = width - indent
	}
	return firstWidth, restWidth, firstPrefix, restPrefix
}

// ScreenLine is one terminal row's worth of a wrapped logical line.
type ScreenLine struct {
	// Text is exactly Options.Width runes long.
	Text string
	// Options are the format options Text was produced with.
	Options FormatOptions
	// Logical is the history index this row came from, or -1.
	Logical int
}

// Wrap splits text into rows of exactly opts.Width runes. It never returns an
// empty slice: blank input yields a single blank, correctly indented row.
func Wrap(text string, opts FormatOptions) []ScreenLine {
	firstWidth, restWidth, firstPrefix, restPrefix := opts.indents()
	width := max(opts.Width, 1)

	var lines []ScreenLine
	emit := func(fragment string) {
		prefix := firstPrefix
		if len(lines) > 0 {
			prefix = restPrefix
		}
		lines = append(lines, ScreenLine{
			Text:    ForceWidth(prefix+fragment, width),
			Options: opts,
			Logical: -1,
		})
	}

	// Rune counts and the matching byte offsets. breakAt/breakIdx mark the
	// start of the row being built; wsAt/wsIdx the last whitespace seen.
	var (
		consumed, breakAt, wsAt int
		breakIdx, wsIdx         int
	)

	for idx, r := range text {
		consumed++
		if unicode.IsSpace(r) {
			wsAt = consumed
			wsIdx = idx
		}

		for {
			target := firstWidth
			if len(lines) > 0 {
				target = restWidth
			}
			if consumed-breakAt <= target {
				break
			}

			if wsAt > breakAt {
				fragment := strings.TrimLeftFunc(text[breakIdx:wsIdx], unicode.IsSpace)
				if fragment != "" {
					emit(fragment)
					breakAt, breakIdx = wsAt, wsIdx
					continue
				}
			}

			// No usable whitespace: break right before the current rune. A
			// run made only of spaces is dropped instead of becoming a blank row.
			if fragment := strings.TrimLeftFunc(text[breakIdx:idx], unicode.IsSpace); fragment != "" {
				emit(fragment)
			}
			breakAt, breakIdx = consumed-1, idx
		}
	}

	if rest := strings.TrimLeftFunc(text[breakIdx:], unicode.IsSpace); rest != "" {
		emit(rest)
	}
	if len(lines) == 0 {
		emit("")
	}
	return lines
}

// ForceWidth returns text truncated or right-padded with spaces so that it is
// exactly width runes long.
func ForceWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	n := utf8.RuneCountInString(text)
	if n == width {
		return text
	}
	if n < width {
		return text + strings.Repeat(" ", width-n)
	}
	cut := 0
	for i := range text {
		if cut == width {
			return text[:i]
		}
		cut++
	}
	return text
}
