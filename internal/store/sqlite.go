package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ossi-voice/ossi/internal/model"
)

// Ensure SQLiteStore implements model.ClassificationLog.
var _ model.ClassificationLog = (*SQLiteStore)(nil)

// SQLiteStore keeps the classification audit log in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and migrates
// it to the latest schema.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite allows one writer; concurrent sessions queue on the pool instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record appends one classification outcome. A zero CreatedAt is set to now.
func (s *SQLiteStore) Record(ctx context.Context, rec model.ClassificationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	keywords := rec.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	kw, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO classifications
			(call_id, intent, confidence, reasoning, next_action, keywords, degraded, tokens_used, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CallID, string(rec.Intent), rec.Confidence, rec.Reasoning, rec.NextAction,
		string(kw), rec.Degraded, rec.TokensUsed, rec.LatencyMS, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording classification for %s: %w", rec.CallID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.ClassificationRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, call_id, intent, confidence, reasoning, next_action, keywords, degraded, tokens_used, latency_ms, created_at
		 FROM classifications ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying classifications: %w", err)
	}
	defer rows.Close()

	var out []model.ClassificationRecord
	for rows.Next() {
		var (
			rec    model.ClassificationRecord
			intent string
			kw     string
		)
		if err := rows.Scan(&rec.ID, &rec.CallID, &intent, &rec.Confidence, &rec.Reasoning, &rec.NextAction,
			&kw, &rec.Degraded, &rec.TokensUsed, &rec.LatencyMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning classification: %w", err)
		}
		rec.Intent = model.IntentType(intent)
		if err := json.Unmarshal([]byte(kw), &rec.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords for record %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating classifications: %w", err)
	}
	return out, nil
}

// Cleanup deletes records older than the given duration and reports how many were removed.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, "DELETE FROM classifications WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up classifications older than %v: %w", olderThan, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting removed classifications: %w", err)
	}
	return n, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM classifications").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting classifications: %w", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
