// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: termui/tcell.go
// Summary: Backend over a tcell screen.

package termui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/texelmud/damage"
)

var tcellKeys = map[tcell.Key]Key{
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyBackspace:  KeyBackspace,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyDelete:     KeyDelete,
	tcell.KeyLeft:       KeyLeft,
	tcell.KeyRight:      KeyRight,
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyHome:       KeyHome,
	tcell.KeyEnd:        KeyEnd,
	tcell.KeyPgUp:       KeyPageUp,
	tcell.KeyPgDn:       KeyPageDown,
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyTab:        KeyTab,
	tcell.KeyCtrlC:      KeyCtrlC,
	tcell.KeyCtrlL:      KeyCtrlL,
	tcell.KeyCtrlU:      KeyCtrlU,
}

var screenFactory = tcell.NewScreen

// SetScreenFactory overrides the screen factory used by NewTcellBackend.
// Passing nil restores the default.
func SetScreenFactory(factory func() (tcell.Screen, error)) {
	if factory == nil {
		screenFactory = tcell.NewScreen
		return
	}
	screenFactory = factory
}

// TcellBackend draws on a tcell screen.
type TcellBackend struct {
	screen  tcell.Screen
	painter *damage.ScreenPainter
	events  chan InputEvent
	done    chan struct{}
	once    sync.Once
}

// NewTcellBackend initialises a screen and starts polling it for input.
func NewTcellBackend() (*TcellBackend, error) {
	screen, err := screenFactory()
	if err != nil {
		return nil, fmt.Errorf("termui: create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("termui: init screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()

	b := &TcellBackend{
		screen:  screen,
		painter: damage.NewScreenPainter(screen),
		events:  make(chan InputEvent, 64),
		done:    make(chan struct{}),
	}
	go b.poll()
	return b, nil
}

func (b *TcellBackend) poll() {
	defer close(b.events)
	for {
		// PollEvent returns nil once the screen is finalised.
		ev := b.screen.PollEvent()
		if ev == nil {
			return
		}
		in, ok := translateTcell(ev)
		if !ok {
			continue
		}
		select {
		case b.events <- in:
		case <-b.done:
			return
		}
	}
}

func translateTcell(ev tcell.Event) (InputEvent, bool) {
	switch tev := ev.(type) {
	case *tcell.EventResize:
		w, h := tev.Size()
		return ResizeEvent{Width: w, Height: h}, true
	case *tcell.EventKey:
		if tev.Key() == tcell.KeyRune {
			return KeyEvent{Key: KeyRune, Rune: tev.Rune()}, true
		}
		if k, ok := tcellKeys[tev.Key()]; ok {
			return KeyEvent{Key: k}, true
		}
	}
	return nil, false
}

func (b *TcellBackend) Size() (int, int) {
	return b.screen.Size()
}

func (b *TcellBackend) Events() <-chan InputEvent {
	return b.events
}

func (b *TcellBackend) Painter() damage.Painter {
	return b.painter
}

func (b *TcellBackend) ShowCursor(x, y int) {
	b.screen.ShowCursor(x, y)
	b.screen.Show()
}

// Screen exposes the underlying tcell.Screen.
func (b *TcellBackend) Screen() tcell.Screen {
	return b.screen
}

func (b *TcellBackend) Close() error {
	b.once.Do(func() {
		close(b.done)
		b.screen.Fini()
	})
	return nil
}
