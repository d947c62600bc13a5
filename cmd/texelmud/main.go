// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmud/main.go
// Summary: texelmud entry point: loads config, opens the terminal UI and the
// session archive, then hands control to the client loop.
// Usage: texelmud [-world name] [-connect address] [-backend tcell|ansi]

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/framegrace/texelmud/client"
	"github.com/framegrace/texelmud/config"
	"github.com/framegrace/texelmud/connection"
	"github.com/framegrace/texelmud/history"
	"github.com/framegrace/texelmud/scrollback"
	"github.com/framegrace/texelmud/termui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("texelmud", flag.ContinueOnError)
	world := fs.String("world", "", "Saved world to load from worlds/<name>.json")
	address := fs.String("connect", "", "Address to open at startup (host:port, tcp://host:port, exec:<command>)")
	backend := fs.String("backend", "", "Terminal backend: tcell or ansi")
	indent := fs.Int("indent", 0, "Wrap indent: n > 0 hanging, n < 0 first line")
	noHistory := fs.Bool("no-history", false, "Do not record the session archive")
	historyPath := fs.String("history-db", "", "Session archive database path")
	verbose := fs.Bool("verbose-logs", false, "Log every event")
	panicLogPath := fs.String("panic-log", "", "File to append panic stack traces")
	if err := fs.Parse(args); err != nil {
		return err
	}

	panics := newPanicLogger(*panicLogPath)
	defer panics.Recover("main")

	logFile, err := setupLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
	} else {
		defer logFile.Close()
	}
	client.SetVerboseLogging(*verbose)

	if err := config.Err(); err != nil {
		log.Printf("Config: using defaults after load error: %v", err)
	}
	cfg, err := config.Effective(*world)
	if err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	st, err := resolveSettings(cfg, overrides{
		address:     *address,
		backend:     *backend,
		indent:      *indent,
		indentSet:   set["indent"],
		noHistory:   *noHistory,
		historyPath: *historyPath,
	})
	if err != nil {
		return err
	}
	log.Printf("texelmud starting (world=%q backend=%s history=%v)", *world, st.backend, st.history.enabled)

	conns := connection.NewManager(connection.Config{DialTimeout: st.dialTimeout})
	defer conns.Close()

	var archive *history.Archive
	if st.history.enabled {
		archive, err = history.Open(history.Config{
			DBPath:       st.history.path,
			BatchSize:    st.history.batchSize,
			BatchTimeout: st.history.batchTimeout,
		})
		if err != nil {
			// The client still works without an archive; /search reports it.
			log.Printf("History: disabled: %v", err)
		} else {
			defer archive.Close()
		}
	}

	be, err := openBackend(st.backend)
	if err != nil {
		return err
	}
	ui := termui.New(be,
		scrollback.WithIndent(st.indent),
		scrollback.WithStripEscapes(st.stripEscapes),
	)
	defer ui.Close()

	opts := client.Options{
		UI:             ui,
		Conns:          conns,
		DefaultAddress: st.address,
		EchoInput:      st.echoInput,
		Worlds:         worldStore{},
	}
	if archive != nil {
		opts.Archive = archive
	}
	c, err := client.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *address != "" {
		if err := c.Connect(*address); err != nil {
			ui.Statusf("/connect: %v", err)
		}
	}

	ui.Statusf("texelmud ready. Type /help for commands.")
	err = c.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Printf("texelmud exiting")
	return err
}

func openBackend(name string) (termui.Backend, error) {
	switch name {
	case "tcell":
		return termui.NewTcellBackend()
	case "ansi":
		return termui.NewANSIBackend(os.Stdin, os.Stdout)
	}
	return nil, fmt.Errorf("unknown terminal backend %q", name)
}
