// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmud/logging.go
// Summary: Log file setup and panic capture. The terminal belongs to the UI,
// so nothing is logged to stderr once it is up.

package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/framegrace/texelmud/config"
)

func setupLogging() (*os.File, error) {
	logDir, err := config.Dir("logs")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, err
	}
	logPath, _ := config.Dir("logs", "texelmud.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	log.SetOutput(file)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return file, nil
}

type panicLogger struct {
	path string
	mu   sync.Mutex
}

func newPanicLogger(path string) *panicLogger {
	return &panicLogger{path: path}
}

// Recover must be deferred directly.
func (p *panicLogger) Recover(where string) {
	if r := recover(); r != nil {
		p.logPanic(where, r)
		os.Exit(2)
	}
}

func (p *panicLogger) logPanic(where string, r interface{}) {
	buf := make([]byte, 1<<16)
	n := runtime.Stack(buf, true)
	stack := buf[:n]
	log.Printf("panic in %s: %v\n%s", where, r, stack)
	if p.path == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("panic: unable to write panic log: %v", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "[%s] panic in %s: %v\n%s\n", time.Now().Format(time.RFC3339Nano), where, r, stack)
}
