// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/framegrace/texelmud/damage"
	"github.com/framegrace/texelmud/history"
	"github.com/framegrace/texelmud/session"
	"github.com/framegrace/texelmud/termui"
)

type nopPainter struct{}

func (nopPainter) ClearScreen()    {}
func (nopPainter) MoveTo(int, int) {}
func (nopPainter) Put(string)      {}
func (nopPainter) Done()           {}

type fakeBackend struct {
	events chan termui.InputEvent
}

func (f *fakeBackend) Size() (int, int)                 { return 60, 12 }
func (f *fakeBackend) Events() <-chan termui.InputEvent { return f.events }
func (f *fakeBackend) Painter() damage.Painter          { return nopPainter{} }
func (f *fakeBackend) ShowCursor(int, int)              {}
func (f *fakeBackend) Close() error                     { return nil }

type write struct {
	id   session.ConnID
	text string
}

type fakeConns struct {
	next    session.ConnID
	started []string
	writes  []write
	stopped []session.ConnID
	failOn  string
}

func (f *fakeConns) StartConnection(address string) (session.ConnID, error) {
	if address == f.failOn {
		return 0, errors.New("connection refused")
	}
	f.next++
	f.started = append(f.started, address)
	return f.next, nil
}

func (f *fakeConns) StopConnection(id session.ConnID) error {
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeConns) WriteToConnection(id session.ConnID, text string) error {
	f.writes = append(f.writes, write{id, text})
	return nil
}

func (f *fakeConns) Listener() session.EventSource {
	return session.EventSourceFunc(func(context.Context, chan<- session.Event) {})
}

type record struct {
	window, text string
	input        bool
}

type fakeArchive struct {
	records []record
	results []history.Entry
	query   string
	window  string
	dropped int64
}

func (f *fakeArchive) Record(window, text string, at time.Time, input bool) error {
	f.records = append(f.records, record{window, text, input})
	return nil
}

func (f *fakeArchive) Search(query string, limit int) ([]history.Entry, error) {
	f.query = query
	return f.results, nil
}

func (f *fakeArchive) Recent(window string, n int) ([]history.Entry, error) {
	f.window = window
	return f.results[:min(n, len(f.results))], nil
}

func (f *fakeArchive) Dropped() int64 { return f.dropped }

type fakeWorlds struct {
	names []string
	saved map[string]string
}

func (f *fakeWorlds) Worlds() ([]string, error) { return f.names, nil }

func (f *fakeWorlds) SaveAddress(name, address string) error {
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[name] = address
	f.names = append(f.names, name)
	return nil
}

type harness struct {
	ui      *termui.UI
	backend *fakeBackend
	conns   *fakeConns
	archive *fakeArchive
	client  *Client
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		backend: &fakeBackend{events: make(chan termui.InputEvent)},
		conns:   &fakeConns{},
		archive: &fakeArchive{},
	}
	h.ui = termui.New(h.backend)
	opts.UI = h.ui
	opts.Conns = h.conns
	opts.Archive = h.archive
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.client = c
	return h
}

func (h *harness) lastLine(t *testing.T, window string) string {
	t.Helper()
	v, ok := h.ui.View(window)
	if !ok {
		t.Fatalf("window %q does not exist", window)
	}
	return v.Line(v.Len() - 1)
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("New without UI and Conns succeeded")
	}
}

func TestDispatchRoutesConnectionTraffic(t *testing.T) {
	h := newHarness(t, Options{EchoInput: true})

	h.client.Dispatch(session.UserCommand{Name: "connect", Args: []string{"mud.example:4000"}})
	if !reflect.DeepEqual(h.conns.started, []string{"mud.example:4000"}) {
		t.Fatalf("started = %v", h.conns.started)
	}

	h.client.Dispatch(session.ConnectionStart{Conn: 1, Address: "mud.example:4000"})
	if h.ui.ActiveWindow() != "conn-1" {
		t.Fatalf("active window = %q", h.ui.ActiveWindow())
	}
	h.client.Dispatch(session.ServerText{Line: "Welcome, adventurer!", Conn: 1})
	if got := h.lastLine(t, "conn-1"); got != "Welcome, adventurer!" {
		t.Fatalf("conn-1 last line = %q", got)
	}

	h.client.Dispatch(session.UserInput{Line: "look", Window: "conn-1"})
	if !reflect.DeepEqual(h.conns.writes, []write{{1, "look"}}) {
		t.Fatalf("writes = %v", h.conns.writes)
	}
	if got := h.lastLine(t, "conn-1"); got != "look" {
		t.Fatalf("input not echoed, last line = %q", got)
	}

	wantRecords := []record{
		{"conn-1", "Welcome, adventurer!", false},
		{"conn-1", "look", true},
	}
	var connRecords []record
	for _, r := range h.archive.records {
		if r.window == "conn-1" && !strings.HasPrefix(r.text, "***") {
			connRecords = append(connRecords, r)
		}
	}
	if !reflect.DeepEqual(connRecords, wantRecords) {
		t.Fatalf("archived = %+v, want %+v", connRecords, wantRecords)
	}

	h.client.Dispatch(session.ConnectionEnd{Conn: 1, Reason: "closed by remote"})
	if got := h.lastLine(t, "conn-1"); got != "*** Connection closed: closed by remote ***" {
		t.Fatalf("conn-1 last line = %q", got)
	}

	h.client.Dispatch(session.UserInput{Line: "north", Window: "conn-1"})
	if len(h.conns.writes) != 1 {
		t.Fatalf("wrote to a closed connection: %v", h.conns.writes)
	}
	if got := h.lastLine(t, termui.StatusWindow); !strings.HasPrefix(got, "Not connected in conn-1") {
		t.Fatalf("status = %q", got)
	}
}

func TestServerTextForUnknownConnectionGetsItsOwnWindow(t *testing.T) {
	h := newHarness(t, Options{})
	h.client.Dispatch(session.ServerText{Line: "stray", Conn: 7})
	if got := h.lastLine(t, "conn-7"); got != "stray" {
		t.Fatalf("conn-7 last line = %q", got)
	}
}

func TestCommands(t *testing.T) {
	h := newHarness(t, Options{})
	h.conns.failOn = "down:1"

	tests := []struct {
		name   string
		args   []string
		status string
	}{
		{"connect", nil, "Usage: /connect [address]"},
		{"connect", []string{"down:1"}, "/connect: connection refused"},
		{"disconnect", nil, "/disconnect: no connection in *status*"},
		{"indent", []string{"x"}, "Usage: /indent <n>"},
		{"indent", []string{"100"}, "/indent: indent must be between -32 and 32"},
		{"indent", []string{"-33"}, "/indent: indent must be between -32 and 32"},
		{"window", []string{"nowhere"}, "/window: termui: no such window: \"nowhere\""},
		{"window", nil, "Windows: *status*"},
		{"search", nil, "Usage: /search <text>"},
		{"bogus", nil, "Unknown command: /bogus"},
	}
	for _, tt := range tests {
		h.client.Dispatch(session.UserCommand{Name: tt.name, Args: tt.args})
		if got := h.lastLine(t, termui.StatusWindow); got != tt.status {
			t.Errorf("/%s %v: status = %q, want %q", tt.name, tt.args, got, tt.status)
		}
	}

	h.client.Dispatch(session.UserCommand{Name: "indent", Args: []string{"-2"}})
	if v, _ := h.ui.View(termui.StatusWindow); v.Options().Indent != -2 {
		t.Errorf("indent = %d, want -2", v.Options().Indent)
	}

	h.client.Dispatch(session.UserCommand{Name: "quit"})
	if !h.client.Quit() {
		t.Errorf("quit not recorded")
	}
}

func TestDefaultAddressAndDisconnect(t *testing.T) {
	h := newHarness(t, Options{DefaultAddress: "home:23"})
	h.client.Dispatch(session.UserCommand{Name: "connect"})
	h.client.Dispatch(session.ConnectionStart{Conn: 1, Address: "home:23"})
	if !reflect.DeepEqual(h.conns.started, []string{"home:23"}) {
		t.Fatalf("started = %v", h.conns.started)
	}
	h.client.Dispatch(session.UserCommand{Name: "disconnect"})
	if !reflect.DeepEqual(h.conns.stopped, []session.ConnID{1}) {
		t.Fatalf("stopped = %v", h.conns.stopped)
	}
}

func TestSearchCommand(t *testing.T) {
	h := newHarness(t, Options{})
	at := time.Date(2025, 3, 1, 12, 30, 0, 0, time.Local)
	h.archive.results = []history.Entry{
		{Window: "conn-1", Text: "the goblin dies", Timestamp: at.Add(time.Minute)},
		{Window: "conn-1", Text: "a goblin appears", Timestamp: at},
	}
	h.client.Dispatch(session.UserCommand{Name: "search", Args: []string{"the", "goblin"}})
	if h.archive.query != "the goblin" {
		t.Fatalf("query = %q", h.archive.query)
	}
	v, _ := h.ui.View(termui.StatusWindow)
	n := v.Len()
	got := []string{v.Line(n - 3), v.Line(n - 2), v.Line(n - 1)}
	want := []string{
		`Search "the goblin": 2 match(es)`,
		"  2025-03-01 12:30:00 conn-1: a goblin appears",
		"  2025-03-01 12:31:00 conn-1: the goblin dies",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("status lines = %q, want %q", got, want)
	}
}

func TestSearchReportsDroppedLines(t *testing.T) {
	h := newHarness(t, Options{})
	h.archive.dropped = 3
	h.client.Dispatch(session.UserCommand{Name: "search", Args: []string{"orc"}})
	if got, want := h.lastLine(t, termui.StatusWindow), "  (3 line(s) were not archived: queue full)"; got != want {
		t.Fatalf("last status line = %q, want %q", got, want)
	}
}

func TestRecentCommand(t *testing.T) {
	h := newHarness(t, Options{})
	at := time.Date(2025, 3, 1, 12, 30, 0, 0, time.Local)
	h.archive.results = []history.Entry{
		{Window: "conn-1", Text: "you enter the cave", Timestamp: at},
		{Window: "conn-1", Text: "it is dark", Timestamp: at.Add(time.Second)},
	}
	h.client.Dispatch(session.ConnectionStart{Conn: 1, Address: "cave:23"})
	window := h.ui.ActiveWindow()

	h.client.Dispatch(session.UserCommand{Name: "recent", Args: []string{"1"}})
	if h.archive.window != window {
		t.Fatalf("recent read window %q, want %q", h.archive.window, window)
	}
	v, _ := h.ui.View(termui.StatusWindow)
	n := v.Len()
	got := []string{v.Line(n - 2), v.Line(n - 1)}
	want := []string{
		"Recent " + window + ": 1 line(s)",
		"  2025-03-01 12:30:00 conn-1: you enter the cave",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("status lines = %q, want %q", got, want)
	}

	for _, args := range [][]string{{"0"}, {"x"}, {"1", "2"}} {
		h.client.Dispatch(session.UserCommand{Name: "recent", Args: args})
		if got := h.lastLine(t, termui.StatusWindow); got != "Usage: /recent [n]" {
			t.Errorf("/recent %v: status = %q", args, got)
		}
	}
}

func TestWorldCommand(t *testing.T) {
	h := newHarness(t, Options{})
	h.client.Dispatch(session.UserCommand{Name: "world", Args: []string{"list"}})
	if got := h.lastLine(t, termui.StatusWindow); got != "/world: world store is disabled" {
		t.Fatalf("status = %q", got)
	}

	worlds := &fakeWorlds{}
	h = newHarness(t, Options{Worlds: worlds})
	tests := []struct {
		args   []string
		status string
	}{
		{[]string{"list"}, "No saved worlds"},
		{[]string{"save", "cave"}, "/world: no address to save in *status*"},
		{[]string{"save"}, "Usage: /world list | /world save <name>"},
		{[]string{"rename", "a", "b"}, "Usage: /world list | /world save <name>"},
	}
	for _, tt := range tests {
		h.client.Dispatch(session.UserCommand{Name: "world", Args: tt.args})
		if got := h.lastLine(t, termui.StatusWindow); got != tt.status {
			t.Errorf("/world %v: status = %q, want %q", tt.args, got, tt.status)
		}
	}

	h.client.Dispatch(session.ConnectionStart{Conn: 1, Address: "cave:23"})
	h.client.Dispatch(session.UserCommand{Name: "world", Args: []string{"save", "cave"}})
	if worlds.saved["cave"] != "cave:23" {
		t.Fatalf("saved = %v", worlds.saved)
	}
	h.client.Dispatch(session.UserCommand{Name: "world", Args: []string{"list"}})
	if got := h.lastLine(t, termui.StatusWindow); got != "Worlds: cave" {
		t.Fatalf("status = %q", got)
	}
}

// chanEvents is an EventManager fed directly by the test.
type chanEvents struct {
	ch chan session.Event
}

func (m *chanEvents) StartSource(session.EventSource) {}

func (m *chanEvents) Next(ctx context.Context) (session.Event, error) {
	select {
	case ev := <-m.ch:
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRunProcessesEventsUntilQuit(t *testing.T) {
	events := &chanEvents{ch: make(chan session.Event)}
	h := newHarness(t, Options{Events: events})

	h.client.Dispatch(session.UserCommand{Name: "help"})

	done := make(chan error, 1)
	go func() { done <- h.client.Run(context.Background()) }()

	// Unbuffered sends: once the last one is taken, the ones before it have
	// been handed to the loop.
	for _, ev := range []session.Event{
		session.ConnectionStart{Conn: 3, Address: "exec:cat"},
		session.ServerText{Line: "hello", Conn: 3},
		session.ServerText{Line: "sync", Conn: 3},
	} {
		events.ch <- ev
	}
	h.backend.events <- termui.KeyEvent{Key: termui.KeyCtrlC}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after quit")
	}

	v, _ := h.ui.View("conn-3")
	if v.Len() < 2 || v.Line(1) != "hello" {
		t.Fatalf("conn-3 lines = %d, second %q", v.Len(), v.Line(1))
	}
	if !reflect.DeepEqual(h.conns.stopped, []session.ConnID{3}) {
		t.Fatalf("stopped on exit = %v", h.conns.stopped)
	}
}

func TestRunStopsOnContextAndInputEnd(t *testing.T) {
	events := &chanEvents{ch: make(chan session.Event)}
	h := newHarness(t, Options{Events: events})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.client.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run ignored cancellation")
	}

	go func() { done <- h.client.Run(context.Background()) }()
	close(h.backend.events)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run err = %v after input end", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run ignored end of input")
	}
}
