package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/ai-lawdesk/config"
	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/session"
)

const defaultPostgresDSN = "host=localhost port=5432 user=postgres dbname=lawdesk sslmode=disable"

// PostgresStore keeps conversations in a conversations table and their
// turns in a messages table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects and creates the tables if needed.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS conversations (
		id VARCHAR(255) PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		state VARCHAR(32) NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		id VARCHAR(64) PRIMARY KEY,
		conversation_id VARCHAR(255) NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		role VARCHAR(16) NOT NULL,
		content TEXT NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save upserts the conversation row and inserts turns not stored yet.
// Stored turns are never rewritten.
func (s *PostgresStore) Save(ctx context.Context, record *session.Record) (err error) {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil: %w", lderrors.ErrInvalidInput)
	}
	meta, err := marshalMetadata(record.Metadata)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO conversations (id, title, state, metadata, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		state = EXCLUDED.state,
		metadata = EXCLUDED.metadata,
		updated_at = EXCLUDED.updated_at`,
		record.ID, record.Title, string(record.State), meta, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	for i, msg := range record.Messages {
		if msg == nil {
			continue
		}
		msgMeta, err := marshalMetadata(msg.Metadata)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, seq, role, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
			msg.ID, record.ID, i, string(msg.Role), msg.Content, msgMeta, msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversation: %w", err)
	}
	return nil
}

// Load reads a conversation and its turns in order.
func (s *PostgresStore) Load(ctx context.Context, id string) (*session.Record, error) {
	record := &session.Record{}
	var state, meta string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, state, COALESCE(metadata::text, '{}'), created_at, updated_at FROM conversations WHERE id = $1`, id).
		Scan(&record.ID, &record.Title, &state, &meta, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, lderrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	record.State = session.State(state)
	if record.Metadata, err = unmarshalMetadata(meta); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, COALESCE(metadata::text, '{}'), created_at FROM messages WHERE conversation_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		msg := &message.Message{Completed: true}
		var role, msgMeta string
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &msgMeta, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = message.Role(role)
		if msg.Metadata, err = unmarshalMetadata(msgMeta); err != nil {
			return nil, err
		}
		record.Messages = append(record.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return record, nil
}

// Delete removes a conversation and, by cascade, its turns.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", id, lderrors.ErrNotFound)
	}
	return nil
}

// List returns conversation ids, most recently updated first.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM conversations ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of conversations.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversations").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

// Exists checks if a conversation exists.
func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check conversation existence: %w", err)
	}
	return exists, nil
}

// Close closes the PostgreSQL connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks if PostgreSQL connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func marshalMetadata(meta map[string]any) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(data), nil
}

func unmarshalMetadata(raw string) (map[string]any, error) {
	meta := make(map[string]any)
	if raw == "" || raw == "{}" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return meta, nil
}
