// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/ansi.go
// Summary: ANSIPainter writes flush output as VT100 escape sequences.

package damage

import (
	"bufio"
	"io"
	"strconv"
)

// ANSIPainter paints onto a terminal stream. Output is buffered and written
// out on Done. The first write error is kept and reported by Err; later
// output is dropped.
type ANSIPainter struct {
	w   *bufio.Writer
	err error
}

// NewANSIPainter wraps out.
func NewANSIPainter(out io.Writer) *ANSIPainter {
	return &ANSIPainter{w: bufio.NewWriter(out)}
}

// ClearScreen emits ED 2 (erase display).
func (p *ANSIPainter) ClearScreen() {
	p.write("\x1b[2J")
}

// MoveTo emits CUP with 1-based coordinates.
func (p *ANSIPainter) MoveTo(x, y int) {
	p.write("\x1b[" + strconv.Itoa(y+1) + ";" + strconv.Itoa(x+1) + "H")
}

// Put writes the glyph as-is.
func (p *ANSIPainter) Put(glyph string) {
	p.write(glyph)
}

// Done flushes buffered output to the underlying writer.
func (p *ANSIPainter) Done() {
	if p.err != nil {
		return
	}
	p.err = p.w.Flush()
}

// Err returns the first write error, if any.
func (p *ANSIPainter) Err() error {
	return p.err
}

func (p *ANSIPainter) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = p.w.WriteString(s)
}
