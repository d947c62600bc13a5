// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/buffer.go
// Summary: Buffer is a character grid that repaints only the cells that changed.
//
// Architecture:
//
//	The grid holds the glyphs of the frame that should be on screen. Writes
//	that change a glyph add the cell to the dirty set. Flush walks the dirty
//	set (or the whole grid after a resize or clear) in row-major order and
//	sends it to a Painter, moving the cursor only where the walk is not
//	contiguous: the terminal advances one column per glyph on its own.
//
//	A Buffer is owned by a single goroutine; it has no internal locking.

package damage

import (
	"slices"
	"unicode"
)

const blank = " "

// Painter receives the output of a flush, in order.
type Painter interface {
	// ClearScreen wipes the whole terminal.
	ClearScreen()
	// MoveTo positions the cursor at column x, row y (0-based).
	MoveTo(x, y int)
	// Put draws one glyph at the cursor and advances it by one column.
	Put(glyph string)
	// Done marks the end of a flush.
	Done()
}

// Buffer is a damage-tracked character grid.
type Buffer struct {
	width, height int
	// This is a string and not a rune per cell so a cell can later carry a
	// base character together with combining marks.
	cells []string

	dirty     map[Point]struct{}
	redrawAll bool
	clearAll  bool
}

// NewBuffer creates a blank width x height grid.
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{dirty: make(map[Point]struct{})}
	b.allocate(width, height)
	return b
}

func (b *Buffer) allocate(width, height int) {
	b.width, b.height = max(width, 0), max(height, 0)
	b.cells = make([]string, b.width*b.height)
	for i := range b.cells {
		b.cells[i] = blank
	}
}

// Size returns the grid dimensions.
func (b *Buffer) Size() (int, int) {
	return b.width, b.height
}

// Glyph returns the glyph held at (x, y), or "" outside the grid.
func (b *Buffer) Glyph(x, y int) string {
	if !b.contains(x, y) {
		return ""
	}
	return b.cells[y*b.width+x]
}

// Dirty returns the number of cells waiting to be painted.
func (b *Buffer) Dirty() int {
	return len(b.dirty)
}

// NeedsRedraw reports whether the next flush repaints every cell.
func (b *Buffer) NeedsRedraw() bool {
	return b.redrawAll
}

func (b *Buffer) contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// WriteString writes text one rune per cell starting at origin and moving
// right. Cells outside the grid are skipped; text never wraps to the next row.
// Control characters are stored as blanks.
func (b *Buffer) WriteString(origin Point, text string) {
	x := origin.X
	for _, r := range text {
		if b.contains(x, origin.Y) {
			if unicode.IsControl(r) {
				r = ' '
			}
			glyph := string(r)
			i := origin.Y*b.width + x
			if b.cells[i] != glyph {
				b.cells[i] = glyph
				b.dirty[Point{Y: origin.Y, X: x}] = struct{}{}
			}
		}
		x++
	}
}

// Resize reallocates a blank grid and schedules a full redraw.
func (b *Buffer) Resize(width, height int) {
	b.allocate(width, height)
	// Old coordinates may fall outside the new grid; the redraw covers them.
	clear(b.dirty)
	b.redrawAll = true
}

// Clear blanks the grid and schedules a terminal clear plus a full redraw.
func (b *Buffer) Clear() {
	b.allocate(b.width, b.height)
	clear(b.dirty)
	b.redrawAll = true
	b.clearAll = true
}

// Flush paints pending damage through p and resets the damage state. When
// there is nothing to paint p is not called at all.
func (b *Buffer) Flush(p Painter) {
	if !b.clearAll && !b.redrawAll && len(b.dirty) == 0 {
		return
	}

	if b.clearAll {
		p.ClearScreen()
	}

	prev := Point{Y: -1, X: -1}
	paint := func(pt Point) {
		if !pt.follows(prev) {
			p.MoveTo(pt.X, pt.Y)
		}
		p.Put(b.cells[pt.Y*b.width+pt.X])
		prev = pt
	}

	if b.redrawAll {
		for y := 0; y < b.height; y++ {
			for x := 0; x < b.width; x++ {
				paint(Point{Y: y, X: x})
			}
		}
	} else {
		points := make([]Point, 0, len(b.dirty))
		for pt := range b.dirty {
			points = append(points, pt)
		}
		slices.SortFunc(points, Point.Compare)
		for _, pt := range points {
			paint(pt)
		}
	}
	p.Done()

	clear(b.dirty)
	b.redrawAll = false
	b.clearAll = false
}
