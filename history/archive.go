// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/archive.go
// Summary: SQLite session archive for every line shown in any window.
//
// Provides a persistent log of the session with:
//   - Async batch inserts so the render loop never waits on disk
//   - Trigram FTS5 substring search (LIKE for queries under 3 characters)
//   - Per-window tail queries

package history

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("history: archive closed")

// Entry is one archived line.
type Entry struct {
	ID        int64
	Window    string
	Timestamp time.Time
	Text      string
	// Input is true for lines typed by the user.
	Input bool
}

// Config holds configuration for the archive.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BatchSize is the number of entries to accumulate before writing.
	// Default: 100
	BatchSize int

	// BatchTimeout is how long to wait before writing a partial batch.
	// Default: 2s
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the async queue.
	// Default: 1000
	ChannelBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:        dbPath,
		BatchSize:     100,
		BatchTimeout:  2 * time.Second,
		ChannelBuffer: 1000,
	}
}

// Archive implements a SQLite-backed session log.
type Archive struct {
	config Config
	db     *sql.DB

	queue   chan Entry
	stopCh  chan struct{}
	doneCh  chan struct{}
	flushCh chan chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
	dropped   int64
	mu        sync.Mutex
}

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS lines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    window TEXT NOT NULL,
    timestamp INTEGER NOT NULL,       -- UnixNano
    is_input INTEGER DEFAULT 0,
    content TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lines_window ON lines(window, id);

CREATE VIRTUAL TABLE IF NOT EXISTS lines_fts USING fts5(
    content,
    content='lines',
    content_rowid='id',
    tokenize='trigram'
);

CREATE TRIGGER IF NOT EXISTS lines_ai AFTER INSERT ON lines BEGIN
    INSERT INTO lines_fts(rowid, content) VALUES (new.id, new.content);
END;
`

// Open creates or opens the archive at cfg.DBPath.
func Open(cfg Config) (*Archive, error) {
	def := DefaultConfig(cfg.DBPath)
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = def.BatchTimeout
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = def.ChannelBuffer
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}

	dsn := cfg.DBPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	if _, err := db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: record schema version: %w", err)
	}

	a := &Archive{
		config:  cfg,
		db:      db,
		queue:   make(chan Entry, cfg.ChannelBuffer),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		flushCh: make(chan chan struct{}),
		closed:  make(chan struct{}),
	}
	go a.batchWriter()
	return a, nil
}

// Record queues a line for writing. It never blocks: when the queue is full
// the line is dropped and counted.
func (a *Archive) Record(window, text string, at time.Time, input bool) error {
	select {
	case <-a.closed:
		return ErrClosed
	default:
	}

	select {
	case a.queue <- Entry{Window: window, Timestamp: at, Text: text, Input: input}:
		return nil
	default:
		a.mu.Lock()
		a.dropped++
		n := a.dropped
		a.mu.Unlock()
		if n == 1 || n%1000 == 0 {
			log.Printf("History: queue full, %d lines dropped", n)
		}
		return nil
	}
}

// Dropped returns how many lines were discarded because the queue was full.
func (a *Archive) Dropped() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

func (a *Archive) batchWriter() {
	defer close(a.doneCh)

	batch := make([]Entry, 0, a.config.BatchSize)
	timer := time.NewTimer(a.config.BatchTimeout)
	defer timer.Stop()

	write := func() {
		if len(batch) == 0 {
			return
		}
		a.writeBatch(batch)
		batch = batch[:0]
	}
	drain := func() {
		for {
			select {
			case e := <-a.queue:
				batch = append(batch, e)
			default:
				return
			}
		}
	}

	for {
		select {
		case e := <-a.queue:
			batch = append(batch, e)
			if len(batch) >= a.config.BatchSize {
				write()
				timer.Reset(a.config.BatchTimeout)
			}
		case <-timer.C:
			write()
			timer.Reset(a.config.BatchTimeout)
		case done := <-a.flushCh:
			drain()
			write()
			close(done)
		case <-a.stopCh:
			drain()
			write()
			return
		}
	}
}

// writeBatch inserts a batch in a single transaction.
func (a *Archive) writeBatch(batch []Entry) {
	tx, err := a.db.Begin()
	if err != nil {
		log.Printf("History: begin transaction: %v", err)
		return
	}
	stmt, err := tx.Prepare("INSERT INTO lines (window, timestamp, is_input, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		log.Printf("History: prepare insert: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		input := 0
		if e.Input {
			input = 1
		}
		if _, err := stmt.Exec(e.Window, e.Timestamp.UnixNano(), input, e.Text); err != nil {
			log.Printf("History: insert: %v", err)
			tx.Rollback()
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("History: commit batch: %v", err)
	}
}

// Flush blocks until every queued line is written.
func (a *Archive) Flush() error {
	done := make(chan struct{})
	select {
	case a.flushCh <- done:
		<-done
		return nil
	case <-a.doneCh:
		return ErrClosed
	}
}

// Search returns up to limit lines containing query, newest first.
func (a *Archive) Search(query string, limit int) ([]Entry, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	// The trigram tokenizer needs at least 3 characters.
	if len([]rune(query)) < 3 {
		pattern := "%" + strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(query) + "%"
		rows, err = a.db.Query(`
			SELECT id, window, timestamp, is_input, content
			FROM lines
			WHERE content LIKE ? ESCAPE '\'
			ORDER BY id DESC
			LIMIT ?
		`, pattern, limit)
	} else {
		quoted := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
		rows, err = a.db.Query(`
			SELECT l.id, l.window, l.timestamp, l.is_input, l.content
			FROM lines_fts
			JOIN lines l ON l.id = lines_fts.rowid
			WHERE lines_fts MATCH ?
			ORDER BY l.id DESC
			LIMIT ?
		`, quoted, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Recent returns the last n lines of window, oldest first.
func (a *Archive) Recent(window string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := a.db.Query(`
		SELECT id, window, timestamp, is_input, content
		FROM lines
		WHERE window = ?
		ORDER BY id DESC
		LIMIT ?
	`, window, n)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e     Entry
			ts    int64
			input int
		)
		if err := rows.Scan(&e.ID, &e.Window, &ts, &input, &e.Text); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		e.Input = input != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close writes pending lines and closes the database.
func (a *Archive) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.closed)
		close(a.stopCh)
		<-a.doneCh
		err = a.db.Close()
	})
	return err
}
