package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stage_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			stage       TEXT NOT NULL,
			tickers     INTEGER,
			fetched     INTEGER,
			skipped     INTEGER,
			rows_out    INTEGER,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON stage_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS fetches (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			provider  TEXT,
			bars      INTEGER,
			skipped   INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetches_symbol ON fetches(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO stage_runs
		(timestamp, stage, tickers, fetched, skipped, rows_out, duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Stage, evt.Tickers, evt.Fetched, evt.Skipped,
		evt.Rows, evt.Duration.Milliseconds(), evt.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	skipped := 0
	if evt.Skipped {
		skipped = 1
	}
	_, err := r.db.Exec(`INSERT INTO fetches
		(timestamp, symbol, provider, bars, skipped)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Provider, evt.Bars, skipped,
	)
	return err
}

// LastRuns returns the most recent stage runs, newest first.
func (r *SQLiteRecorder) LastRuns(limit int) ([]RunEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT stage, tickers, fetched, skipped, rows_out, duration_ms, error
		FROM stage_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunEvent
	for rows.Next() {
		var evt RunEvent
		var ms int64
		if err := rows.Scan(&evt.Stage, &evt.Tickers, &evt.Fetched, &evt.Skipped, &evt.Rows, &ms, &evt.Err); err != nil {
			return nil, err
		}
		evt.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, evt)
	}
	return out, rows.Err()
}

// FetchCount returns how many fetch events were recorded for symbol.
func (r *SQLiteRecorder) FetchCount(symbol string, skipped bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flag := 0
	if skipped {
		flag = 1
	}
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM fetches WHERE symbol = ? AND skipped = ?`, symbol, flag).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
