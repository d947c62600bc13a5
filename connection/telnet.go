// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: connection/telnet.go
// Summary: Strips telnet IAC negotiation from a byte stream.
//
// MUD servers speak a loose subset of telnet. We refuse every option by
// staying silent, so all that is needed is to drop command sequences and
// unescape IAC IAC.

package connection

import "io"

const (
	iac  = 255
	dont = 254
	do   = 253
	wont = 252
	will = 251
	sb   = 250
	se   = 240
)

type telnetState int

const (
	stData telnetState = iota
	stIAC
	stOption
	stSub
	stSubIAC
)

// telnetReader filters IAC sequences out of r. State carries across reads so
// a sequence split between two reads is still removed.
type telnetReader struct {
	r     io.Reader
	state telnetState
}

func newTelnetReader(r io.Reader) *telnetReader {
	return &telnetReader{r: r}
}

func (t *telnetReader) Read(p []byte) (int, error) {
	for {
		n, err := t.r.Read(p)
		out := 0
		for _, c := range p[:n] {
			switch t.state {
			case stData:
				if c == iac {
					t.state = stIAC
					continue
				}
				p[out] = c
				out++
			case stIAC:
				switch c {
				case iac:
					p[out] = c
					out++
					t.state = stData
				case will, wont, do, dont:
					t.state = stOption
				case sb:
					t.state = stSub
				default:
					t.state = stData
				}
			case stOption:
				t.state = stData
			case stSub:
				if c == iac {
					t.state = stSubIAC
				}
			case stSubIAC:
				if c == se {
					t.state = stData
				} else {
					t.state = stSub
				}
			}
		}
		// Avoid returning 0, nil when a read contained only negotiation.
		if out > 0 || err != nil {
			return out, err
		}
	}
}
