// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/buffer_test.go
// Summary: Damage tracking and minimal repaint behaviour of Buffer.

package damage

import (
	"fmt"
	"slices"
	"strings"
	"testing"
)

// recorder is a Painter that logs every call as a short token.
type recorder struct {
	ops []string
}

func (r *recorder) ClearScreen()     { r.ops = append(r.ops, "clear") }
func (r *recorder) MoveTo(x, y int)  { r.ops = append(r.ops, fmt.Sprintf("@%d,%d", x, y)) }
func (r *recorder) Put(glyph string) { r.ops = append(r.ops, glyph) }
func (r *recorder) Done()            { r.ops = append(r.ops, "done") }

func (r *recorder) reset() []string {
	ops := r.ops
	r.ops = nil
	return ops
}

func (r *recorder) count(op string) int {
	n := 0
	for _, o := range r.ops {
		if o == op {
			n++
		}
	}
	return n
}

func TestPointOrderIsRowMajor(t *testing.T) {
	points := []Point{
		{Y: 5, X: 3}, {Y: 5, X: 4}, {Y: 5, X: 5}, {Y: 5, X: 7}, {Y: 5, X: 2}, {Y: 6, X: 1},
	}
	slices.SortFunc(points, Point.Compare)
	want := []Point{
		{Y: 5, X: 2}, {Y: 5, X: 3}, {Y: 5, X: 4}, {Y: 5, X: 5}, {Y: 5, X: 7}, {Y: 6, X: 1},
	}
	if !slices.Equal(points, want) {
		t.Fatalf("sorted = %v, want %v", points, want)
	}
	if !(Point{Y: 0, X: 9}).Less(Point{Y: 1, X: 0}) {
		t.Fatalf("row must dominate column")
	}
}

func TestWriteMarksOnlyChangedCells(t *testing.T) {
	b := NewBuffer(5, 2)
	b.WriteString(Point{}, "  ")
	if b.Dirty() != 0 {
		t.Fatalf("writing blanks over blanks marked %d cells", b.Dirty())
	}

	b.WriteString(Point{Y: 1, X: 1}, "ab")
	if b.Dirty() != 2 {
		t.Fatalf("dirty = %d, want 2", b.Dirty())
	}
	if b.Glyph(1, 1) != "a" || b.Glyph(2, 1) != "b" {
		t.Fatalf("grid not updated: %q %q", b.Glyph(1, 1), b.Glyph(2, 1))
	}

	var r recorder
	b.Flush(&r)
	b.WriteString(Point{Y: 1, X: 1}, "ab")
	if b.Dirty() != 0 {
		t.Fatalf("rewriting the same glyphs marked %d cells", b.Dirty())
	}
	b.WriteString(Point{Y: 1, X: 1}, "aX")
	if b.Dirty() != 1 {
		t.Fatalf("dirty = %d, want 1", b.Dirty())
	}
}

func TestWriteClipsOutsideGrid(t *testing.T) {
	b := NewBuffer(3, 2)
	b.WriteString(Point{Y: 0, X: 1}, "abcdef")
	b.WriteString(Point{Y: 5, X: 0}, "zzz")
	b.WriteString(Point{Y: 1, X: -2}, "xyz")

	if got := b.Glyph(1, 0) + b.Glyph(2, 0); got != "ab" {
		t.Fatalf("row 0 = %q, want ab", got)
	}
	if got := b.Glyph(0, 1); got != "z" {
		t.Fatalf("negative origin: cell (0,1) = %q, want z", got)
	}
	if got := b.Glyph(0, 1) + b.Glyph(1, 1); got != "z " {
		t.Fatalf("text must not wrap into the next row, row 1 = %q", got)
	}
	if b.Glyph(3, 0) != "" || b.Glyph(0, 2) != "" {
		t.Fatalf("out-of-range Glyph should be empty")
	}
	if b.Dirty() != 3 {
		t.Fatalf("dirty = %d, want 3", b.Dirty())
	}
}

func TestFlushMovesCursorOnlyAtGaps(t *testing.T) {
	b := NewBuffer(10, 3)
	b.WriteString(Point{Y: 0, X: 2}, "abc")
	b.WriteString(Point{Y: 0, X: 7}, "d")
	b.WriteString(Point{Y: 2, X: 0}, "ef")

	var r recorder
	b.Flush(&r)
	want := []string{"@2,0", "a", "b", "c", "@7,0", "d", "@0,2", "e", "f", "done"}
	if got := r.reset(); !slices.Equal(got, want) {
		t.Fatalf("flush = %v, want %v", got, want)
	}
	if b.Dirty() != 0 {
		t.Fatalf("dirty set not cleared: %d", b.Dirty())
	}
}

func TestFlushWalksDirtyCellsInRowMajorOrder(t *testing.T) {
	b := NewBuffer(4, 2)
	b.WriteString(Point{Y: 1, X: 0}, "z")
	b.WriteString(Point{Y: 0, X: 3}, "y")
	b.WriteString(Point{Y: 0, X: 0}, "x")

	var r recorder
	b.Flush(&r)
	want := []string{"@0,0", "x", "@3,0", "y", "@0,1", "z", "done"}
	if got := r.reset(); !slices.Equal(got, want) {
		t.Fatalf("flush = %v, want %v", got, want)
	}
}

func TestFlushWithoutDamageIsSilent(t *testing.T) {
	b := NewBuffer(4, 2)
	b.WriteString(Point{}, "hi")

	var r recorder
	b.Flush(&r)
	r.reset()
	b.Flush(&r)
	if len(r.ops) != 0 {
		t.Fatalf("second flush emitted %v", r.ops)
	}
}

func TestResizeRedrawsEverything(t *testing.T) {
	b := NewBuffer(2, 2)
	b.WriteString(Point{}, "ab")
	b.Resize(3, 2)
	if !b.NeedsRedraw() {
		t.Fatalf("resize should schedule a full redraw")
	}
	b.WriteString(Point{Y: 1, X: 1}, "q")

	var r recorder
	b.Flush(&r)
	ops := r.reset()
	want := []string{"@0,0", " ", " ", " ", "@0,1", " ", "q", " ", "done"}
	if !slices.Equal(ops, want) {
		t.Fatalf("flush = %v, want %v", ops, want)
	}
	if b.NeedsRedraw() {
		t.Fatalf("redraw flag not reset")
	}
}

func TestClearEmitsClearAndRedraw(t *testing.T) {
	b := NewBuffer(2, 1)
	b.WriteString(Point{}, "ab")
	b.Clear()
	if b.Dirty() != 0 {
		t.Fatalf("clear should discard pending damage")
	}
	if b.Glyph(0, 0) != " " {
		t.Fatalf("clear should blank the grid")
	}

	var r recorder
	b.Flush(&r)
	want := []string{"clear", "@0,0", " ", " ", "done"}
	if got := r.reset(); !slices.Equal(got, want) {
		t.Fatalf("flush = %v, want %v", got, want)
	}

	b.Flush(&r)
	if r.count("clear") != 0 {
		t.Fatalf("clear flag not reset")
	}
}

func TestANSIPainterOutput(t *testing.T) {
	var out strings.Builder
	p := NewANSIPainter(&out)

	b := NewBuffer(6, 2)
	b.Clear()
	b.Flush(NewANSIPainter(&strings.Builder{}))

	b.WriteString(Point{Y: 0, X: 1}, "hi")
	b.WriteString(Point{Y: 1, X: 4}, "é")
	b.Flush(p)

	want := "\x1b[1;2Hhi\x1b[2;5Hé"
	if got := out.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
	if p.Err() != nil {
		t.Fatalf("unexpected error: %v", p.Err())
	}

	out.Reset()
	b.Clear()
	b.Flush(p)
	if !strings.HasPrefix(out.String(), "\x1b[2J\x1b[1;1H") {
		t.Fatalf("clear output = %q", out.String())
	}
}

func TestControlCharactersBecomeBlanks(t *testing.T) {
	b := NewBuffer(6, 1)
	b.WriteString(Point{}, "xxxxxx")
	b.Flush(NewANSIPainter(&strings.Builder{}))

	var out strings.Builder
	b.WriteString(Point{}, "ab\bcd")
	b.Flush(NewANSIPainter(&out))

	if got, want := out.String(), "\x1b[1;1Hab cd"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
	for _, c := range []string{"\a", "\b", "\t", "\x00"} {
		b.WriteString(Point{X: 1}, c)
		if got := b.Glyph(1, 0); got != blank {
			t.Errorf("cell after writing %q = %q, want blank", c, got)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("broken pipe") }

func TestANSIPainterKeepsFirstError(t *testing.T) {
	p := NewANSIPainter(failingWriter{})
	b := NewBuffer(2, 1)
	b.WriteString(Point{}, "x")
	b.Flush(p)
	if p.Err() == nil {
		t.Fatalf("expected write error")
	}
}
