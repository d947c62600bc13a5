// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/interfaces.go
// Summary: Capability interfaces wired together by the client at construction.

package session

import "context"

// EventSource produces events on its own goroutine until ctx is done or the
// source runs dry. Run must not close out.
type EventSource interface {
	Run(ctx context.Context, out chan<- Event)
}

// EventSourceFunc adapts a function to EventSource.
type EventSourceFunc func(ctx context.Context, out chan<- Event)

func (f EventSourceFunc) Run(ctx context.Context, out chan<- Event) { f(ctx, out) }

// EventManager runs sources and hands their events to a single consumer in
// arrival order.
type EventManager interface {
	StartSource(src EventSource)
	Next(ctx context.Context) (Event, error)
}

// UserInterface is the surface the client draws text into. Windows are
// created implicitly by their first push.
type UserInterface interface {
	PushToWindow(window, line string) error
	RegisterCommand(name string)
}

// ConnectionInterface opens and drives remote sessions. The address format
// is implementation-defined. Received text arrives through the Listener.
type ConnectionInterface interface {
	StartConnection(address string) (ConnID, error)
	StopConnection(id ConnID) error
	WriteToConnection(id ConnID, text string) error
	Listener() EventSource
}
