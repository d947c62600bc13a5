// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: connection/manager.go
// Summary: Manager opens remote sessions and turns their output into events.
//
// Architecture:
//
//	Every open connection gets a reader goroutine that splits the stream into
//	lines and queues ServerText events on the manager's channel, bracketed by
//	ConnectionStart and ConnectionEnd. The Listener forwards that channel into
//	the client's event manager. Nothing here touches UI state. After Close the
//	readers drop their remaining events instead of blocking on a channel
//	nobody drains.
//
//	Addresses:
//	  host:port, tcp://host:port   a TCP connection (telnet negotiation stripped)
//	  exec:<command line>          a local program on a pseudo-terminal

package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/framegrace/texelmud/session"
)

var (
	// ErrUnknownConnection is returned for ids that are not open.
	ErrUnknownConnection = errors.New("connection: unknown connection")
	// ErrClosed is returned by StartConnection after Close.
	ErrClosed = errors.New("connection: manager closed")
)

// closeWait bounds how long Close waits for reader goroutines to finish.
const closeWait = 2 * time.Second

// Config tunes a Manager.
type Config struct {
	// DialTimeout bounds TCP connects. Default: 10s
	DialTimeout time.Duration
	// EventBuffer sizes the queue between readers and the listener. Default: 256
	EventBuffer int
	// PtyRows and PtyCols size pseudo-terminals for exec: addresses. Default: 24x80
	PtyRows, PtyCols uint16
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DialTimeout: 10 * time.Second,
		EventBuffer: 256,
		PtyRows:     24,
		PtyCols:     80,
	}
}

type conn struct {
	id      session.ConnID
	address string
	rwc     io.ReadWriteCloser
	eol     string

	writeMu sync.Mutex
	stopped bool
	wait    func() error
}

// Manager implements session.ConnectionInterface.
type Manager struct {
	cfg    Config
	events chan session.Event

	mu      sync.Mutex
	next    session.ConnID
	conns   map[session.ConnID]*conn
	closed  bool
	readers sync.WaitGroup

	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a manager with cfg, filling zero fields with defaults.
func NewManager(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}
	if cfg.PtyRows == 0 || cfg.PtyCols == 0 {
		cfg.PtyRows, cfg.PtyCols = def.PtyRows, def.PtyCols
	}
	return &Manager{
		cfg:    cfg,
		events: make(chan session.Event, cfg.EventBuffer),
		conns:  make(map[session.ConnID]*conn),
		done:   make(chan struct{}),
	}
}

// StartConnection opens address and starts reading from it.
func (m *Manager) StartConnection(address string) (session.ConnID, error) {
	c, err := m.open(strings.TrimSpace(address))
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		c.rwc.Close()
		if c.wait != nil {
			c.wait()
		}
		return 0, ErrClosed
	}
	m.next++
	c.id = m.next
	m.conns[c.id] = c
	m.readers.Add(1)
	m.mu.Unlock()

	log.Printf("Connection: %v opened to %s", c.id, c.address)
	go m.read(c)
	return c.id, nil
}

func (m *Manager) open(address string) (*conn, error) {
	switch {
	case address == "":
		return nil, fmt.Errorf("connection: empty address")
	case strings.HasPrefix(address, "exec:"):
		return m.openPty(address, strings.TrimSpace(strings.TrimPrefix(address, "exec:")))
	default:
		return m.openTCP(address, strings.TrimPrefix(address, "tcp://"))
	}
}

func (m *Manager) openTCP(address, hostport string) (*conn, error) {
	if _, _, err := net.SplitHostPort(hostport); err != nil {
		return nil, fmt.Errorf("connection: bad address %q: %w", address, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	defer cancel()
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", hostport)
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", hostport, err)
	}
	return &conn{address: address, rwc: nc, eol: "\r\n"}, nil
}

func (m *Manager) openPty(address, command string) (*conn, error) {
	if command == "" {
		return nil, fmt.Errorf("connection: %q has no command", address)
	}
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Env = append(cmd.Environ(), "TERM=dumb")
	f, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: m.cfg.PtyRows, Cols: m.cfg.PtyCols})
	if err != nil {
		return nil, fmt.Errorf("connection: start %q: %w", command, err)
	}
	return &conn{address: address, rwc: f, eol: "\n", wait: cmd.Wait}, nil
}

// read pumps c until it fails, then reports why it ended.
func (m *Manager) read(c *conn) {
	defer m.readers.Done()
	live := m.emit(session.ConnectionStart{Conn: c.id, Address: c.address})

	var src io.Reader = c.rwc
	if c.wait == nil {
		src = newTelnetReader(c.rwc)
	}
	br := bufio.NewReader(src)
	var err error
	for live {
		var line string
		line, err = br.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" || err == nil {
			live = m.emit(session.ServerText{Line: line, Conn: c.id})
		}
		if err != nil {
			break
		}
	}

	c.rwc.Close()
	if c.wait != nil {
		if werr := c.wait(); werr != nil {
			log.Printf("Connection: %v process: %v", c.id, werr)
		}
	}

	m.mu.Lock()
	delete(m.conns, c.id)
	m.mu.Unlock()

	c.writeMu.Lock()
	stopped := c.stopped
	c.writeMu.Unlock()

	reason := endReason(err, stopped, c.wait != nil)
	log.Printf("Connection: %v closed: %s", c.id, reason)
	m.emit(session.ConnectionEnd{Conn: c.id, Reason: reason})
}

// emit queues ev, giving up once the manager is closed.
func (m *Manager) emit(ev session.Event) bool {
	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

func endReason(err error, stopped, process bool) string {
	switch {
	case stopped || err == nil:
		return "closed by user"
	case errors.Is(err, io.EOF):
		return "closed by remote"
	case process:
		// A pty returns EIO once the child has exited.
		return "process exited"
	default:
		return err.Error()
	}
}

func (m *Manager) lookup(id session.ConnID) (*conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownConnection, id)
	}
	return c, nil
}

// StopConnection closes id. Its ConnectionEnd event follows asynchronously.
func (m *Manager) StopConnection(id session.ConnID) error {
	c, err := m.lookup(id)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	c.stopped = true
	c.writeMu.Unlock()
	// For exec: connections closing the pty master hangs up the child.
	return c.rwc.Close()
}

// WriteToConnection sends text followed by the connection's line ending.
func (m *Manager) WriteToConnection(id session.ConnID, text string) error {
	c, err := m.lookup(id)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := io.WriteString(c.rwc, text+c.eol); err != nil {
		return fmt.Errorf("connection: write %v: %w", id, err)
	}
	return nil
}

// Open returns the ids of open connections.
func (m *Manager) Open() []session.ConnID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]session.ConnID, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	return ids
}

// Listener returns the source forwarding connection events.
func (m *Manager) Listener() session.EventSource {
	return session.EventSourceFunc(func(ctx context.Context, out chan<- session.Event) {
		for {
			select {
			case ev := <-m.events:
				if !session.Send(ctx, out, ev) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})
}

// Close stops every open connection and waits briefly for their readers to
// exit. Events not yet taken by the Listener are dropped.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()

		for _, id := range m.Open() {
			if err := m.StopConnection(id); err != nil && !errors.Is(err, ErrUnknownConnection) {
				log.Printf("Connection: stop %v: %v", id, err)
			}
		}
		close(m.done)

		finished := make(chan struct{})
		go func() {
			m.readers.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(closeWait):
			log.Printf("Connection: readers still running after %v", closeWait)
		}
	})
}
