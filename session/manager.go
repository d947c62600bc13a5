// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/manager.go
// Summary: Manager fans events from many sources into one ordered channel.

package session

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrClosed is returned by Next once the manager is closed and drained.
var ErrClosed = errors.New("session: event manager closed")

// Manager is the default EventManager. Each source runs on its own goroutine;
// all of them send to one buffered channel read by Next.
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	events chan Event

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager creates a manager whose sources stop when ctx is done or Close
// is called. buffer sizes the shared channel.
func NewManager(ctx context.Context, buffer int) *Manager {
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, max(buffer, 1)),
	}
}

// StartSource runs src on a new goroutine.
func (m *Manager) StartSource(src EventSource) {
	if m.ctx.Err() != nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Session: event source panicked: %v", r)
			}
		}()
		src.Run(m.ctx, m.events)
	}()
}

// Events exposes the shared channel for select loops.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Next blocks until an event arrives, ctx is done, or the manager closes.
func (m *Manager) Next(ctx context.Context) (Event, error) {
	select {
	case ev := <-m.events:
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.ctx.Done():
		// Prefer anything already queued.
		select {
		case ev := <-m.events:
			return ev, nil
		default:
			return nil, ErrClosed
		}
	}
}

// Close stops all sources and waits for them to return.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.wg.Wait()
	})
}

// Send delivers ev unless ctx is done first. Sources use it so a full
// channel never blocks shutdown.
func Send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
