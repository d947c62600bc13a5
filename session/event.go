// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/event.go
// Summary: Events flowing from producers (UI, connections) to the render loop.

package session

import "fmt"

// ConnID identifies an open connection.
type ConnID int

// WindowID identifies the UI window a line of input was typed into.
type WindowID string

// Event is something that happened: user input, server text, a connection
// opening or closing. Events are produced on arbitrary goroutines and
// consumed in order by the single goroutine that owns the UI.
type Event interface {
	isEvent()
}

// UserCommand is a client command entered by the user, e.g. "/connect".
type UserCommand struct {
	Name string
	Args []string
}

// UserInput is a line of text typed into a window.
type UserInput struct {
	Line   string
	Window WindowID
}

// ServerText is a line received from a connection.
type ServerText struct {
	Line string
	Conn ConnID
}

// ConnectionStart reports that a connection is open.
type ConnectionStart struct {
	Conn    ConnID
	Address string
}

// ConnectionEnd reports that a connection closed, with a human-readable reason.
type ConnectionEnd struct {
	Conn   ConnID
	Reason string
}

func (UserCommand) isEvent()     {}
func (UserInput) isEvent()       {}
func (ServerText) isEvent()      {}
func (ConnectionStart) isEvent() {}
func (ConnectionEnd) isEvent()   {}

func (c ConnID) String() string {
	return fmt.Sprintf("conn-%d", int(c))
}
