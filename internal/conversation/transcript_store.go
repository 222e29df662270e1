package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// TranscriptStore archives dialogue turns outside the session store, so the
// salon keeps a durable record after Redis sessions churn. Archiving is
// best-effort; the dialogue never blocks on it.
type TranscriptStore interface {
	SaveTurn(ctx context.Context, senderID, speaker, text string) error
}

const transcriptSchema = `
CREATE TABLE IF NOT EXISTS transcript_turns (
	id         UUID PRIMARY KEY,
	sender_id  TEXT NOT NULL,
	speaker    TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcript_turns_sender
	ON transcript_turns (sender_id, created_at);
`

// PostgresTranscriptStore implements TranscriptStore on Postgres.
type PostgresTranscriptStore struct {
	db *sql.DB
}

// NewPostgresTranscriptStore opens a connection pool to the given database.
func NewPostgresTranscriptStore(databaseURL string) (*PostgresTranscriptStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("conversation: open transcript database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PostgresTranscriptStore{db: db}, nil
}

// NewPostgresTranscriptStoreFromDB wraps an existing handle, for tests.
func NewPostgresTranscriptStoreFromDB(db *sql.DB) *PostgresTranscriptStore {
	return &PostgresTranscriptStore{db: db}
}

// EnsureSchema creates the transcript table if it does not exist.
func (s *PostgresTranscriptStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, transcriptSchema); err != nil {
		return fmt.Errorf("conversation: ensure transcript schema: %w", err)
	}
	return nil
}

// SaveTurn appends one turn to the archive.
func (s *PostgresTranscriptStore) SaveTurn(ctx context.Context, senderID, speaker, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcript_turns (id, sender_id, speaker, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), senderID, speaker, text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("conversation: save transcript turn: %w", err)
	}
	return nil
}

// History returns the most recent turns for a sender, newest first.
func (s *PostgresTranscriptStore) History(ctx context.Context, senderID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT speaker, body, created_at FROM transcript_turns
		 WHERE sender_id = $1 ORDER BY created_at DESC LIMIT $2`,
		senderID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: load transcript history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Speaker, &t.Text, &t.At); err != nil {
			return nil, fmt.Errorf("conversation: scan transcript turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresTranscriptStore) Close() error {
	return s.db.Close()
}
