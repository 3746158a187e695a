package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Ledger records crawl sessions and the delivery outcome of every captured page
type Ledger struct {
	db        *sql.DB
	logger    zerolog.Logger
	mu        sync.RWMutex
	sessionID string
}

// LedgerEntry is one row of the deliveries table
type LedgerEntry struct {
	ID         int64
	SessionID  string
	Seq        int
	URL        string
	Channel    models.DeliveryChannel
	Paths      []string
	Error      sql.NullString
	RecordedAt time.Time
}

// SessionEntry is one row of the sessions table
type SessionEntry struct {
	ID           string
	StartURL     string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	VisitedPages int
}

// NewLedger opens (or creates) the SQLite database at path and ensures the schema
func NewLedger(path string, logger zerolog.Logger) (*Ledger, error) {
	ledgerLogger := logger.With().Str("component", "DeliveryLedger").Logger()

	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", path, err)
	}
	// a single connection serializes writers on the file
	dbInstance.SetMaxOpenConns(1)

	ledger := &Ledger{db: dbInstance, logger: ledgerLogger}
	if err := ledger.InitSchema(); err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ledgerLogger.Info().Str("path", path).Msg("Delivery ledger ready")
	return ledger, nil
}

// Close closes the database connection
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// InitSchema creates the sessions and deliveries tables if missing
func (l *Ledger) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		start_url TEXT NOT NULL,
		started_at_ms INTEGER NOT NULL,
		finished_at_ms INTEGER,
		visited_pages INTEGER DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		url TEXT NOT NULL,
		channel TEXT NOT NULL,
		paths TEXT,
		error TEXT,
		recorded_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_session ON deliveries(session_id, seq);
	`
	if _, err := l.db.Exec(query); err != nil {
		l.logger.Error().Err(err).Msg("Failed to initialize ledger schema")
		return err
	}
	return nil
}

// BeginSession inserts a session row and makes it the target of RecordOutcome
func (l *Ledger) BeginSession(ctx context.Context, sessionID, startURL string, startedAt time.Time) error {
	query := `INSERT INTO sessions (id, start_url, started_at_ms) VALUES (?, ?, ?)`
	if _, err := l.db.ExecContext(ctx, query, sessionID, startURL, startedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert session %s: %w", sessionID, err)
	}

	l.mu.Lock()
	l.sessionID = sessionID
	l.mu.Unlock()

	l.logger.Debug().Str("session_id", sessionID).Msg("Recorded session start")
	return nil
}

// EndSession stamps the current session as finished
func (l *Ledger) EndSession(ctx context.Context, visited int, finishedAt time.Time) error {
	sessionID := l.currentSession()
	if sessionID == "" {
		return nil
	}

	query := `UPDATE sessions SET finished_at_ms = ?, visited_pages = ? WHERE id = ?`
	if _, err := l.db.ExecContext(ctx, query, finishedAt.UnixMilli(), visited, sessionID); err != nil {
		return fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}
	return nil
}

// RecordOutcome appends a delivery row to the outcome's session, or the current one when unset
func (l *Ledger) RecordOutcome(ctx context.Context, outcome models.DeliveryOutcome) error {
	sessionID := outcome.SessionID
	if sessionID == "" {
		sessionID = l.currentSession()
	}

	var errText sql.NullString
	if outcome.Err != nil {
		errText = sql.NullString{String: outcome.Err.Error(), Valid: true}
	}

	query := `INSERT INTO deliveries (session_id, seq, url, channel, paths, error, recorded_at_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := l.db.ExecContext(ctx, query,
		sessionID,
		outcome.Seq,
		outcome.URL,
		string(outcome.Channel),
		strings.Join(outcome.Paths, "\n"),
		errText,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery for %s: %w", outcome.URL, err)
	}
	return nil
}

// Deliveries returns the deliveries of sessionID ordered by sequence number
func (l *Ledger) Deliveries(ctx context.Context, sessionID string) ([]LedgerEntry, error) {
	query := `SELECT id, session_id, seq, url, channel, paths, error, recorded_at_ms FROM deliveries WHERE session_id = ? ORDER BY seq, id`
	rows, err := l.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var (
			entry      LedgerEntry
			channel    string
			paths      sql.NullString
			recordedAt int64
		)
		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.Seq, &entry.URL, &channel, &paths, &entry.Error, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery row: %w", err)
		}
		entry.Channel = models.DeliveryChannel(channel)
		if paths.Valid && paths.String != "" {
			entry.Paths = strings.Split(paths.String, "\n")
		}
		entry.RecordedAt = time.UnixMilli(recordedAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Session returns the session row for sessionID
func (l *Ledger) Session(ctx context.Context, sessionID string) (*SessionEntry, error) {
	query := `SELECT id, start_url, started_at_ms, finished_at_ms, visited_pages FROM sessions WHERE id = ?`

	var (
		entry      SessionEntry
		startedAt  int64
		finishedAt sql.NullInt64
	)
	err := l.db.QueryRowContext(ctx, query, sessionID).Scan(&entry.ID, &entry.StartURL, &startedAt, &finishedAt, &entry.VisitedPages)
	if err != nil {
		return nil, err
	}
	entry.StartedAt = time.UnixMilli(startedAt)
	if finishedAt.Valid {
		entry.FinishedAt = sql.NullTime{Time: time.UnixMilli(finishedAt.Int64), Valid: true}
	}
	return &entry, nil
}

func (l *Ledger) currentSession() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sessionID
}
