// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: termui/ui.go
// Summary: UI composes named scrollback windows, a status bar and the input
// editor onto a damage buffer.
//
// Architecture:
//
//	Screen layout, top to bottom:
//
//	  rows 0..n-1   the active window's scrollback view
//	  row n         status bar (window list, scroll state, status text)
//	  last rows     the input editor, growing as the line wraps
//
//	Every Redraw writes the full layout into the damage buffer; only cells
//	that changed reach the backend. The UI belongs to the goroutine that
//	runs the client loop and has no locking of its own.

package termui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/framegrace/texelmud/damage"
	"github.com/framegrace/texelmud/scrollback"
	"github.com/framegrace/texelmud/session"
)

// StatusWindow receives client messages. It always exists.
const StatusWindow = "*status*"

// ErrNoWindow is returned for an empty or unknown window name.
var ErrNoWindow = errors.New("termui: no such window")

type window struct {
	name   string
	view   *scrollback.View
	unseen int
}

// UI is the terminal user interface. It implements session.UserInterface.
type UI struct {
	backend Backend
	buffer  *damage.Buffer
	input   *InputLine

	viewOpts []scrollback.ViewOption
	windows  map[string]*window
	order    []string
	active   string

	// indent overrides the indent in viewOpts once SetIndent has been called.
	indent    int
	indentSet bool

	commands map[string]struct{}
	status   string
	recorder func(window, line string)

	width, height int
	viewHeight    int
	cursorX       int
	cursorY       int
}

// New creates a UI on backend. viewOpts apply to every window created.
func New(backend Backend, viewOpts ...scrollback.ViewOption) *UI {
	w, h := backend.Size()
	ui := &UI{
		backend:  backend,
		buffer:   damage.NewBuffer(w, h),
		input:    NewInputLine(w),
		viewOpts: viewOpts,
		windows:  make(map[string]*window),
		commands: make(map[string]struct{}),
		width:    w,
		height:   h,
		cursorX:  -1,
		cursorY:  -1,
	}
	ui.viewHeight = ui.layoutViewHeight()
	ui.window(StatusWindow)
	ui.active = StatusWindow
	return ui
}

// SetRecorder installs fn to be called with every line stored in a window,
// after cleaning.
func (ui *UI) SetRecorder(fn func(window, line string)) {
	ui.recorder = fn
}

// Inputs returns the backend's input channel.
func (ui *UI) Inputs() <-chan InputEvent {
	return ui.backend.Events()
}

func (ui *UI) window(name string) *window {
	if w, ok := ui.windows[name]; ok {
		return w
	}
	w := &window{
		name: name,
		view: scrollback.NewView(ui.width, ui.viewHeight, ui.viewOpts...),
	}
	if ui.indentSet {
		w.view.SetIndent(ui.indent)
	}
	ui.windows[name] = w
	ui.order = append(ui.order, name)
	return w
}

// PushToWindow appends line to the named window, creating it on first use.
func (ui *UI) PushToWindow(name, line string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrNoWindow)
	}
	w := ui.window(name)
	stored := w.view.Push(line)
	if name != ui.active {
		w.unseen++
	}
	if ui.recorder != nil {
		ui.recorder(name, stored)
	}
	return nil
}

// Statusf pushes a formatted message to the status window.
func (ui *UI) Statusf(format string, args ...any) {
	ui.PushToWindow(StatusWindow, fmt.Sprintf(format, args...))
}

// RegisterCommand makes "/name" produce a UserCommand event.
func (ui *UI) RegisterCommand(name string) {
	ui.commands[name] = struct{}{}
}

// SetStatus sets the text shown at the right of the status bar.
func (ui *UI) SetStatus(text string) {
	ui.status = text
}

// ActiveWindow returns the name of the displayed window.
func (ui *UI) ActiveWindow() string {
	return ui.active
}

// Windows lists window names in creation order.
func (ui *UI) Windows() []string {
	return append([]string(nil), ui.order...)
}

// View returns the scrollback view of the named window.
func (ui *UI) View(name string) (*scrollback.View, bool) {
	w, ok := ui.windows[name]
	if !ok {
		return nil, false
	}
	return w.view, true
}

// SwitchWindow displays the named window.
func (ui *UI) SwitchWindow(name string) error {
	w, ok := ui.windows[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoWindow, name)
	}
	ui.active = name
	w.unseen = 0
	return nil
}

func (ui *UI) cycleWindow() {
	for i, name := range ui.order {
		if name == ui.active {
			ui.SwitchWindow(ui.order[(i+1)%len(ui.order)])
			return
		}
	}
}

// SetIndent changes the indent of every window, present and future.
func (ui *UI) SetIndent(indent int) {
	ui.indent, ui.indentSet = indent, true
	for _, w := range ui.windows {
		w.view.SetIndent(indent)
	}
}

// Resize adapts the layout to new terminal dimensions.
func (ui *UI) Resize(width, height int) {
	ui.width, ui.height = width, height
	ui.buffer.Resize(width, height)
	ui.input.SetWidth(width)
	ui.viewHeight = ui.layoutViewHeight()
	for _, w := range ui.windows {
		w.view.Resize(width, ui.viewHeight)
	}
}

// Repaint clears the terminal and redraws everything on the next Redraw.
func (ui *UI) Repaint() {
	ui.buffer.Clear()
}

func (ui *UI) inputRows() int {
	return min(ui.input.Rows(), max(ui.height/2, 1))
}

func (ui *UI) layoutViewHeight() int {
	return max(ui.height-ui.inputRows()-1, 0)
}

func (ui *UI) scrollPage() int {
	return max(ui.viewHeight-1, 1)
}

// HandleInput applies an input event and returns the session events it
// produces, if any.
func (ui *UI) HandleInput(ev InputEvent) []session.Event {
	switch ev := ev.(type) {
	case ResizeEvent:
		ui.Resize(ev.Width, ev.Height)
	case KeyEvent:
		return ui.handleKey(ev)
	}
	return nil
}

func (ui *UI) handleKey(ev KeyEvent) []session.Event {
	view := ui.windows[ui.active].view
	switch ev.Key {
	case KeyRune:
		ui.input.Insert(ev.Rune)
	case KeyEnter:
		return ui.submit(ui.input.Submit())
	case KeyBackspace:
		ui.input.Backspace()
	case KeyDelete:
		ui.input.Delete()
	case KeyLeft:
		ui.input.Move(-1)
	case KeyRight:
		ui.input.Move(1)
	case KeyHome:
		ui.input.Home()
	case KeyEnd:
		ui.input.End()
	case KeyUp:
		ui.input.HistoryPrev()
	case KeyDown:
		ui.input.HistoryNext()
	case KeyPageUp:
		view.ScrollUp(ui.scrollPage())
	case KeyPageDown:
		view.ScrollDown(ui.scrollPage())
	case KeyEscape:
		view.ScrollToBottom()
	case KeyTab:
		ui.cycleWindow()
	case KeyCtrlL:
		ui.Repaint()
	case KeyCtrlU:
		ui.input.Clear()
	case KeyCtrlC:
		return []session.Event{session.UserCommand{Name: "quit"}}
	}
	return nil
}

// submit turns an entered line into an event. "/name args" runs a registered
// command; "//text" sends "/text" literally.
func (ui *UI) submit(line string) []session.Event {
	if strings.HasPrefix(line, "//") {
		line = line[1:]
	} else if strings.HasPrefix(line, "/") {
		fields := strings.Fields(line[1:])
		if len(fields) == 0 {
			return nil
		}
		if _, ok := ui.commands[fields[0]]; !ok {
			ui.Statusf("Unknown command: /%s", fields[0])
			return nil
		}
		return []session.Event{session.UserCommand{Name: fields[0], Args: fields[1:]}}
	}
	return []session.Event{session.UserInput{Line: line, Window: session.WindowID(ui.active)}}
}

// statusBar renders the status row.
func (ui *UI) statusBar() string {
	var b strings.Builder
	b.WriteString("-- ")
	for _, name := range ui.order {
		w := ui.windows[name]
		switch {
		case name == ui.active:
			fmt.Fprintf(&b, "[%s] ", name)
		case w.unseen > 0:
			fmt.Fprintf(&b, "%s(%d) ", name, w.unseen)
		default:
			fmt.Fprintf(&b, "%s ", name)
		}
	}
	if view := ui.windows[ui.active].view; !view.AtTail() {
		fmt.Fprintf(&b, "-- more (%d/%d) ", view.Position().Line+1, view.Len())
	}
	if ui.status != "" {
		fmt.Fprintf(&b, "-- %s ", ui.status)
	}
	text := []rune(b.String())
	if len(text) >= ui.width {
		return string(text[:max(ui.width, 0)])
	}
	return string(text) + strings.Repeat("-", ui.width-len(text))
}

// Redraw lays out the screen and paints whatever changed.
func (ui *UI) Redraw() {
	if ui.width <= 0 || ui.height <= 0 {
		return
	}
	if vh := ui.layoutViewHeight(); vh != ui.viewHeight {
		ui.viewHeight = vh
		for _, w := range ui.windows {
			w.view.Resize(ui.width, vh)
		}
	}

	for y, row := range ui.windows[ui.active].view.Render() {
		ui.buffer.WriteString(damage.Point{Y: y, X: 0}, row)
	}
	statusRow := ui.viewHeight
	ui.buffer.WriteString(damage.Point{Y: statusRow, X: 0}, ui.statusBar())

	rows := ui.input.Render()
	visible := ui.inputRows()
	cx, cy := ui.input.Cursor()
	first := max(0, min(cy-visible+1, len(rows)-visible))
	for i := 0; i < visible; i++ {
		ui.buffer.WriteString(damage.Point{Y: statusRow + 1 + i, X: 0}, rows[first+i])
	}

	changed := ui.buffer.NeedsRedraw() || ui.buffer.Dirty() > 0
	ui.buffer.Flush(ui.backend.Painter())

	cursorX, cursorY := min(cx, ui.width-1), statusRow+1+cy-first
	if changed || cursorX != ui.cursorX || cursorY != ui.cursorY {
		ui.cursorX, ui.cursorY = cursorX, cursorY
		ui.backend.ShowCursor(cursorX, cursorY)
	}
}

// Buffer exposes the damage buffer for inspection.
func (ui *UI) Buffer() *damage.Buffer {
	return ui.buffer
}

// Close restores the terminal.
func (ui *UI) Close() error {
	return ui.backend.Close()
}
