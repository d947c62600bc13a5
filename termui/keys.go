// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: termui/keys.go
// Summary: Backend-neutral input events and the raw terminal key decoder.

package termui

import (
	"bytes"
	"unicode/utf8"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
)

// Key names a key the UI reacts to. Printable input uses KeyRune.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyEscape
	KeyTab
	KeyCtrlC
	KeyCtrlL
	KeyCtrlU
)

// InputEvent is delivered by a Backend: either a KeyEvent or a ResizeEvent.
type InputEvent interface {
	isInput()
}

// KeyEvent is a key press. Rune is set only for KeyRune.
type KeyEvent struct {
	Key  Key
	Rune rune
}

// ResizeEvent reports new terminal dimensions.
type ResizeEvent struct {
	Width, Height int
}

func (KeyEvent) isInput()    {}
func (ResizeEvent) isInput() {}

var uvKeys = map[rune]Key{
	uv.KeyEnter:     KeyEnter,
	uv.KeyKpEnter:   KeyEnter,
	uv.KeyBackspace: KeyBackspace,
	uv.KeyDelete:    KeyDelete,
	uv.KeyLeft:      KeyLeft,
	uv.KeyRight:     KeyRight,
	uv.KeyUp:        KeyUp,
	uv.KeyDown:      KeyDown,
	uv.KeyHome:      KeyHome,
	uv.KeyFind:      KeyHome,
	uv.KeyEnd:       KeyEnd,
	uv.KeySelect:    KeyEnd,
	uv.KeyPgUp:      KeyPageUp,
	uv.KeyPgDown:    KeyPageDown,
	uv.KeyEscape:    KeyEscape,
	uv.KeyTab:       KeyTab,
}

var ctrlKeys = map[rune]Key{
	'c': KeyCtrlC,
	'l': KeyCtrlL,
	'u': KeyCtrlU,
	'h': KeyBackspace,
	'j': KeyEnter,
	'm': KeyEnter,
}

// keyDecoder turns raw terminal bytes into key events. Bytes that may be the
// start of a longer sequence are held until more input arrives or Flush is
// called, so a sequence split across reads still decodes as one key.
type keyDecoder struct {
	dec     uv.EventDecoder
	pending []byte
}

// Feed decodes buf after any held bytes.
func (d *keyDecoder) Feed(buf []byte) []KeyEvent {
	d.pending = append(d.pending, buf...)
	cut := incompleteTail(d.pending)
	keys := d.decode(d.pending[:cut])
	d.pending = append([]byte(nil), d.pending[cut:]...)
	return keys
}

// Pending reports whether bytes are held back.
func (d *keyDecoder) Pending() bool {
	return len(d.pending) > 0
}

// Flush decodes the held bytes as they are. A lone ESC becomes KeyEscape.
func (d *keyDecoder) Flush() []KeyEvent {
	keys := d.decode(d.pending)
	d.pending = nil
	return keys
}

func (d *keyDecoder) decode(buf []byte) []KeyEvent {
	var keys []KeyEvent
	for len(buf) > 0 {
		n, ev := d.dec.Decode(buf)
		if n == 0 {
			break
		}
		buf = buf[n:]
		if k, ok := ev.(uv.KeyPressEvent); ok {
			keys = append(keys, translateKey(k)...)
		}
	}
	return keys
}

// translateKey maps a decoded key press onto the keys the UI binds. Alt and
// unbound control combinations are dropped.
func translateKey(k uv.KeyPressEvent) []KeyEvent {
	switch {
	case k.Mod.Contains(uv.ModCtrl):
		if key, ok := ctrlKeys[k.Code]; ok && !k.Mod.Contains(uv.ModAlt) {
			return []KeyEvent{{Key: key}}
		}
		return nil
	case k.Mod.Contains(uv.ModAlt):
		return nil
	}
	if key, ok := uvKeys[k.Code]; ok {
		return []KeyEvent{{Key: key}}
	}
	var keys []KeyEvent
	for _, r := range k.Text {
		keys = append(keys, KeyEvent{Key: KeyRune, Rune: r})
	}
	return keys
}

// incompleteTail returns where a trailing sequence that needs more bytes
// starts, or len(buf). ESC cannot occur inside a CSI or SS3 sequence, so
// only the last ESC matters.
func incompleteTail(buf []byte) int {
	if i := bytes.LastIndexByte(buf, ansi.ESC); i >= 0 && escapeIncomplete(buf[i:]) {
		return i
	}
	for j := len(buf) - 1; j >= 0 && j >= len(buf)-utf8.UTFMax; j-- {
		if utf8.RuneStart(buf[j]) {
			if !utf8.FullRune(buf[j:]) {
				return j
			}
			break
		}
	}
	return len(buf)
}

func escapeIncomplete(seq []byte) bool {
	if len(seq) == 1 {
		return true
	}
	switch seq[1] {
	case '[':
		for _, c := range seq[2:] {
			if c < 0x20 || c > 0x3f {
				// Final byte, or a byte that ends the sequence as invalid.
				return false
			}
		}
		return true
	case 'O':
		return len(seq) == 2
	}
	return false
}
