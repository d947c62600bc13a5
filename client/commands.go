// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: client/commands.go
// Summary: Slash commands understood by the client.

package client

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/framegrace/texelmud/history"
	"github.com/framegrace/texelmud/termui"
)

const (
	searchLimit   = 20
	recentDefault = 10
)

type command struct {
	usage string
	help  string
	run   func(c *Client, args []string) error
}

var errUsage = errors.New("usage")

func builtinCommands() map[string]command {
	return map[string]command{
		"connect": {
			usage: "/connect [address]",
			help:  "open host:port, tcp://host:port or exec:<command>",
			run:   (*Client).cmdConnect,
		},
		"disconnect": {
			usage: "/disconnect",
			help:  "close the connection shown in this window",
			run:   (*Client).cmdDisconnect,
		},
		"window": {
			usage: "/window [name]",
			help:  "switch window, or list windows",
			run:   (*Client).cmdWindow,
		},
		"search": {
			usage: "/search <text>",
			help:  "search the session archive",
			run:   (*Client).cmdSearch,
		},
		"recent": {
			usage: "/recent [n]",
			help:  "show the last n archived lines of this window",
			run:   (*Client).cmdRecent,
		},
		"world": {
			usage: "/world list | /world save <name>",
			help:  "list saved worlds, or save this window's address as a world",
			run:   (*Client).cmdWorld,
		},
		"indent": {
			usage: "/indent <n>",
			help:  "hanging indent n > 0, first-line indent n < 0",
			run:   (*Client).cmdIndent,
		},
		"help": {
			usage: "/help",
			help:  "list commands",
			run:   (*Client).cmdHelp,
		},
		"quit": {
			usage: "/quit",
			help:  "close all connections and exit",
			run:   (*Client).cmdQuit,
		},
	}
}

func (c *Client) runCommand(name string, args []string) {
	cmd, ok := c.commands[name]
	if !ok {
		c.ui.Statusf("Unknown command: /%s", name)
		return
	}
	if err := cmd.run(c, args); err != nil {
		if errors.Is(err, errUsage) {
			c.ui.Statusf("Usage: %s", cmd.usage)
			return
		}
		c.ui.Statusf("/%s: %v", name, err)
	}
}

func (c *Client) cmdConnect(args []string) error {
	address := strings.Join(args, " ")
	if address == "" {
		address = c.opts.DefaultAddress
	}
	if address == "" {
		return errUsage
	}
	return c.Connect(address)
}

func (c *Client) cmdDisconnect(args []string) error {
	st, ok := c.byWindow[c.ui.ActiveWindow()]
	if !ok {
		return fmt.Errorf("no connection in %s", c.ui.ActiveWindow())
	}
	return c.conns.StopConnection(st.id)
}

func (c *Client) cmdWindow(args []string) error {
	if len(args) == 0 {
		c.ui.Statusf("Windows: %s", strings.Join(c.ui.Windows(), " "))
		return nil
	}
	if len(args) > 1 {
		return errUsage
	}
	return c.ui.SwitchWindow(args[0])
}

func (c *Client) cmdSearch(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if c.archive == nil {
		return errors.New("session archive is disabled")
	}
	query := strings.Join(args, " ")
	entries, err := c.archive.Search(query, searchLimit)
	if err != nil {
		return err
	}
	c.ui.Statusf("Search %q: %d match(es)", query, len(entries))
	slices.Reverse(entries)
	c.showEntries(entries)
	return c.ui.SwitchWindow(termui.StatusWindow)
}

func (c *Client) cmdRecent(args []string) error {
	n := recentDefault
	switch len(args) {
	case 0:
	case 1:
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n <= 0 {
			return errUsage
		}
	default:
		return errUsage
	}
	if c.archive == nil {
		return errors.New("session archive is disabled")
	}
	window := c.ui.ActiveWindow()
	entries, err := c.archive.Recent(window, n)
	if err != nil {
		return err
	}
	c.ui.Statusf("Recent %s: %d line(s)", window, len(entries))
	c.showEntries(entries)
	return c.ui.SwitchWindow(termui.StatusWindow)
}

// showEntries lists archived lines in the status window and warns when the
// archive has dropped lines, since results may then be incomplete.
func (c *Client) showEntries(entries []history.Entry) {
	for _, e := range entries {
		c.ui.Statusf("  %s %s: %s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Window, e.Text)
	}
	if n := c.archive.Dropped(); n > 0 {
		c.ui.Statusf("  (%d line(s) were not archived: queue full)", n)
	}
}

func (c *Client) cmdWorld(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if c.opts.Worlds == nil {
		return errors.New("world store is disabled")
	}
	switch {
	case args[0] == "list" && len(args) == 1:
		names, err := c.opts.Worlds.Worlds()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			c.ui.Statusf("No saved worlds")
			return nil
		}
		c.ui.Statusf("Worlds: %s", strings.Join(names, " "))
		return nil
	case args[0] == "save" && len(args) == 2:
		address := c.opts.DefaultAddress
		if st, ok := c.byWindow[c.ui.ActiveWindow()]; ok {
			address = st.address
		}
		if address == "" {
			return fmt.Errorf("no address to save in %s", c.ui.ActiveWindow())
		}
		if err := c.opts.Worlds.SaveAddress(args[1], address); err != nil {
			return err
		}
		c.ui.Statusf("Saved world %s (%s)", args[1], address)
		return nil
	default:
		return errUsage
	}
}

// MaxIndent bounds the wrap indent accepted by /indent.
const MaxIndent = 32

func (c *Client) cmdIndent(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	if n < -MaxIndent || n > MaxIndent {
		return fmt.Errorf("indent must be between %d and %d", -MaxIndent, MaxIndent)
	}
	c.ui.SetIndent(n)
	return nil
}

func (c *Client) cmdHelp(args []string) error {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cmd := c.commands[name]
		c.ui.Statusf("%-20s %s", cmd.usage, cmd.help)
	}
	return nil
}

func (c *Client) cmdQuit(args []string) error {
	c.quit = true
	return nil
}
