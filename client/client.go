// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: client/client.go
// Summary: Client owns the UI and routes events between it, the connections
// and the session archive.
//
// Architecture:
//
//	Run is the only goroutine that touches the UI, and through it every
//	scrollback view and the damage buffer. Connection output arrives from
//	the event manager; keyboard input arrives from the UI backend. Both are
//	handled inline, one at a time, and followed by a redraw.
//
//	Each connection gets a window named after its id. Lines typed into a
//	window go to that window's connection.

package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/framegrace/texelmud/history"
	"github.com/framegrace/texelmud/session"
	"github.com/framegrace/texelmud/termui"
)

// Surface is the part of the terminal UI the client drives.
type Surface interface {
	session.UserInterface
	Inputs() <-chan termui.InputEvent
	HandleInput(ev termui.InputEvent) []session.Event
	Redraw()
	SetRecorder(fn func(window, line string))
	Statusf(format string, args ...any)
	SetStatus(text string)
	SwitchWindow(name string) error
	ActiveWindow() string
	Windows() []string
	SetIndent(indent int)
}

// Archive stores every line shown and searches them.
type Archive interface {
	Record(window, text string, at time.Time, input bool) error
	Search(query string, limit int) ([]history.Entry, error)
	Recent(window string, n int) ([]history.Entry, error)
	Dropped() int64
}

// WorldStore lists and saves named worlds.
type WorldStore interface {
	Worlds() ([]string, error)
	SaveAddress(name, address string) error
}

// Options wires a Client. UI and Conns are required.
type Options struct {
	UI    Surface
	Conns session.ConnectionInterface

	// Events merges event sources. Default: a session.Manager created by Run.
	Events session.EventManager
	// Archive records the session when set.
	Archive Archive
	// Worlds backs /world when set.
	Worlds WorldStore
	// DefaultAddress is used by /connect without arguments.
	DefaultAddress string
	// EchoInput pushes typed lines into the window they were sent from.
	EchoInput bool
	// Now stamps archived lines. Default: time.Now.
	Now func() time.Time
}

type connState struct {
	id      session.ConnID
	address string
	window  string
	open    bool
}

// Client is the application core.
type Client struct {
	ui      Surface
	conns   session.ConnectionInterface
	events  session.EventManager
	archive Archive
	opts    Options

	commands map[string]command
	byConn   map[session.ConnID]*connState
	byWindow map[string]*connState

	recordingInput bool
	quit           bool
}

// New creates a client and registers its commands with the UI.
func New(opts Options) (*Client, error) {
	if opts.UI == nil || opts.Conns == nil {
		return nil, errors.New("client: UI and Conns are required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Client{
		ui:       opts.UI,
		conns:    opts.Conns,
		events:   opts.Events,
		archive:  opts.Archive,
		opts:     opts,
		byConn:   make(map[session.ConnID]*connState),
		byWindow: make(map[string]*connState),
	}
	c.commands = builtinCommands()
	for name := range c.commands {
		c.ui.RegisterCommand(name)
	}
	if c.archive != nil {
		c.ui.SetRecorder(c.record)
	}
	return c, nil
}

func (c *Client) record(window, line string) {
	if err := c.archive.Record(window, line, c.opts.Now(), c.recordingInput); err != nil {
		log.Printf("Client: archive record: %v", err)
	}
}

// Run processes events until ctx is done, the user quits or input ends.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.closeConnections()

	if c.events == nil {
		m := session.NewManager(ctx, 256)
		defer m.Close()
		c.events = m
	}
	c.events.StartSource(c.conns.Listener())

	sessionEvents := make(chan session.Event)
	errCh := make(chan error, 1)
	go func() {
		for {
			ev, err := c.events.Next(ctx)
			if err != nil {
				errCh <- err
				return
			}
			select {
			case sessionEvents <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	inputs := c.ui.Inputs()
	c.updateStatus()
	c.ui.Redraw()
	for !c.quit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if errors.Is(err, session.ErrClosed) {
				return nil
			}
			return err
		case ev := <-sessionEvents:
			c.Dispatch(ev)
		case in, ok := <-inputs:
			if !ok {
				log.Printf("Client: input closed, exiting")
				return nil
			}
			for _, ev := range c.ui.HandleInput(in) {
				c.Dispatch(ev)
			}
		}
		c.ui.Redraw()
	}
	return nil
}

// Dispatch handles one event. It must be called from the goroutine running
// Run, or before Run starts.
func (c *Client) Dispatch(ev session.Event) {
	debugLog.Printf("event %T %+v", ev, ev)
	switch ev := ev.(type) {
	case session.UserCommand:
		c.runCommand(ev.Name, ev.Args)
	case session.UserInput:
		c.sendInput(ev)
	case session.ServerText:
		c.push(c.windowFor(ev.Conn), ev.Line)
	case session.ConnectionStart:
		c.connectionStarted(ev)
	case session.ConnectionEnd:
		c.connectionEnded(ev)
	default:
		log.Printf("Client: unhandled event %T", ev)
	}
}

// Connect opens address. Its window appears when the connection reports
// that it started.
func (c *Client) Connect(address string) error {
	c.ui.Statusf("Connecting to %s...", address)
	id, err := c.conns.StartConnection(address)
	if err != nil {
		return err
	}
	c.track(id, address)
	return nil
}

// Quit reports whether the user asked to exit.
func (c *Client) Quit() bool {
	return c.quit
}

func (c *Client) push(window, line string) {
	if err := c.ui.PushToWindow(window, line); err != nil {
		log.Printf("Client: push to %q: %v", window, err)
	}
}

func (c *Client) windowFor(id session.ConnID) string {
	if st, ok := c.byConn[id]; ok {
		return st.window
	}
	return id.String()
}

func (c *Client) track(id session.ConnID, address string) *connState {
	if st, ok := c.byConn[id]; ok {
		if address != "" {
			st.address = address
		}
		return st
	}
	st := &connState{id: id, address: address, window: id.String()}
	c.byConn[id] = st
	c.byWindow[st.window] = st
	return st
}

func (c *Client) forget(id session.ConnID) {
	if st, ok := c.byConn[id]; ok {
		delete(c.byConn, id)
		if c.byWindow[st.window] == st {
			delete(c.byWindow, st.window)
		}
	}
}

func (c *Client) sendInput(ev session.UserInput) {
	window := string(ev.Window)
	st, ok := c.byWindow[window]
	if !ok || !st.open {
		c.ui.Statusf("Not connected in %s. Use /connect <address>.", window)
		return
	}
	if c.opts.EchoInput {
		c.recordingInput = true
		c.push(window, ev.Line)
		c.recordingInput = false
	}
	if err := c.conns.WriteToConnection(st.id, ev.Line); err != nil {
		log.Printf("Client: write to %v: %v", st.id, err)
		c.ui.Statusf("Write to %v failed: %v", st.id, err)
	}
}

func (c *Client) connectionStarted(ev session.ConnectionStart) {
	st := c.track(ev.Conn, ev.Address)
	st.open = true
	c.push(st.window, fmt.Sprintf("*** Connected to %s ***", st.address))
	c.ui.Statusf("Connected to %s (%v)", st.address, st.id)
	if err := c.ui.SwitchWindow(st.window); err != nil {
		log.Printf("Client: switch to %s: %v", st.window, err)
	}
	c.updateStatus()
}

func (c *Client) connectionEnded(ev session.ConnectionEnd) {
	window := c.windowFor(ev.Conn)
	c.push(window, fmt.Sprintf("*** Connection closed: %s ***", ev.Reason))
	c.ui.Statusf("%v closed: %s", ev.Conn, ev.Reason)
	c.forget(ev.Conn)
	c.updateStatus()
}

func (c *Client) updateStatus() {
	open := 0
	for _, st := range c.byConn {
		if st.open {
			open++
		}
	}
	switch open {
	case 0:
		c.ui.SetStatus("not connected")
	case 1:
		c.ui.SetStatus("1 connection")
	default:
		c.ui.SetStatus(fmt.Sprintf("%d connections", open))
	}
}

func (c *Client) closeConnections() {
	for id := range c.byConn {
		if err := c.conns.StopConnection(id); err != nil {
			debugLog.Printf("stop %v: %v", id, err)
		}
	}
}
