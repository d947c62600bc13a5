// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: termui/ansi.go
// Summary: Backend writing plain ANSI sequences to a raw-mode terminal.
//
// Architecture:
//
//	Input bytes are read on one goroutine and decoded into key events by
//	an ultraviolet EventDecoder on another. A third goroutine polls the
//	terminal size, since not every platform has SIGWINCH. Decoder and
//	poller feed Events; it closes once input ends and the poller has
//	stopped. Output goes through a damage.ANSIPainter on the alternate screen.

package termui

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/framegrace/texelmud/damage"
)

const (
	altScreenOn  = "\x1b[?1049h"
	altScreenOff = "\x1b[?1049l"

	defaultWidth  = 80
	defaultHeight = 24

	escapeTimeout = 50 * time.Millisecond
)

// ANSIBackend drives a terminal through escape sequences.
type ANSIBackend struct {
	out     io.Writer
	painter *damage.ANSIPainter

	inFd, outFd int
	restore     *term.State

	mu            sync.Mutex
	width, height int

	pollInterval time.Duration

	events    chan InputEvent
	done      chan struct{}
	closeOnce sync.Once
}

// ANSIOption configures an ANSIBackend.
type ANSIOption func(*ANSIBackend)

// WithResizePoll sets how often the terminal size is checked. Zero disables
// polling.
func WithResizePoll(interval time.Duration) ANSIOption {
	return func(b *ANSIBackend) { b.pollInterval = interval }
}

// WithSize sets the dimensions used when out is not a terminal.
func WithSize(width, height int) ANSIOption {
	return func(b *ANSIBackend) { b.width, b.height = width, height }
}

// fdOf returns the descriptor of f if it is a terminal, or -1.
func fdOf(v any) int {
	f, ok := v.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return -1
	}
	return int(f.Fd())
}

// NewANSIBackend reads keys from in and draws on out. When in is a terminal
// it is put into raw mode until Close.
func NewANSIBackend(in io.Reader, out io.Writer, opts ...ANSIOption) (*ANSIBackend, error) {
	b := &ANSIBackend{
		out:          out,
		painter:      damage.NewANSIPainter(out),
		inFd:         fdOf(in),
		outFd:        fdOf(out),
		width:        defaultWidth,
		height:       defaultHeight,
		events:       make(chan InputEvent, 64),
		done:         make(chan struct{}),
		pollInterval: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.inFd >= 0 {
		state, err := term.MakeRaw(b.inFd)
		if err != nil {
			return nil, fmt.Errorf("termui: raw mode: %w", err)
		}
		b.restore = state
	}
	if w, h, ok := b.querySize(); ok {
		b.width, b.height = w, h
	}
	io.WriteString(out, altScreenOn)

	var wg sync.WaitGroup
	inputDone := make(chan struct{})
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(inputDone)
		b.readInput(in)
	}()
	go func() {
		defer wg.Done()
		b.pollSize(inputDone)
	}()
	go func() {
		wg.Wait()
		close(b.events)
	}()
	return b, nil
}

func (b *ANSIBackend) querySize() (int, int, bool) {
	fd := b.outFd
	if fd < 0 {
		fd = b.inFd
	}
	if fd < 0 {
		return 0, 0, false
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func (b *ANSIBackend) send(ev InputEvent) bool {
	select {
	case b.events <- ev:
		return true
	case <-b.done:
		return false
	}
}

// readInput decodes keys from in. A sequence cut short by a read boundary
// is completed by the next read, or decoded as it stands once escapeTimeout
// passes without more input.
func (b *ANSIBackend) readInput(in io.Reader) {
	chunks := make(chan []byte)
	go b.readChunks(in, chunks)

	var dec keyDecoder
	var timeout <-chan time.Time
	for {
		var keys []KeyEvent
		select {
		case chunk, ok := <-chunks:
			if !ok {
				b.sendKeys(dec.Flush())
				return
			}
			keys = dec.Feed(chunk)
		case <-timeout:
			keys = dec.Flush()
		case <-b.done:
			return
		}
		timeout = nil
		if dec.Pending() {
			timeout = time.After(escapeTimeout)
		}
		if !b.sendKeys(keys) {
			return
		}
	}
}

func (b *ANSIBackend) readChunks(in io.Reader, chunks chan<- []byte) {
	defer close(chunks)
	buf := make([]byte, 256)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			select {
			case chunks <- append([]byte(nil), buf[:n]...):
			case <-b.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("TermUI: input read: %v", err)
			}
			return
		}
	}
}

func (b *ANSIBackend) sendKeys(keys []KeyEvent) bool {
	for _, k := range keys {
		if !b.send(k) {
			return false
		}
	}
	return true
}

func (b *ANSIBackend) pollSize(inputDone <-chan struct{}) {
	if b.pollInterval <= 0 {
		return
	}
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w, h, ok := b.querySize()
			if !ok {
				continue
			}
			b.mu.Lock()
			changed := w != b.width || h != b.height
			b.width, b.height = w, h
			b.mu.Unlock()
			if changed && !b.send(ResizeEvent{Width: w, Height: h}) {
				return
			}
		case <-inputDone:
			return
		case <-b.done:
			return
		}
	}
}

func (b *ANSIBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *ANSIBackend) Events() <-chan InputEvent {
	return b.events
}

func (b *ANSIBackend) Painter() damage.Painter {
	return b.painter
}

func (b *ANSIBackend) ShowCursor(x, y int) {
	b.painter.MoveTo(x, y)
	b.painter.Done()
}

// Close leaves the alternate screen and restores the terminal mode. The
// input goroutine stays blocked in Read until the next byte or EOF.
func (b *ANSIBackend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		io.WriteString(b.out, altScreenOff)
		if b.restore != nil {
			err = term.Restore(b.inFd, b.restore)
		}
		if perr := b.painter.Err(); perr != nil && err == nil {
			err = perr
		}
	})
	return err
}
