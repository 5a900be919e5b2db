package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/pkg/logger_i"
	"github.com/jackc/pgx/v5/pgxpool"
)

const conversationSchema = `
CREATE TABLE IF NOT EXISTS conversations (
  id         TEXT PRIMARY KEY,
  title      TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS messages (
  id              BIGSERIAL PRIMARY KEY,
  conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
  role            TEXT NOT NULL,
  content         TEXT NOT NULL,
  citations       JSONB NOT NULL DEFAULT '[]'::jsonb,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS messages_conversation_idx ON messages (conversation_id, id);
CREATE INDEX IF NOT EXISTS conversations_updated_idx ON conversations (updated_at DESC);`

type PostgresConversationStore struct {
	pool   *pgxpool.Pool
	logger *logger_i.Logger
}

// NewPostgresConversationStore connects and creates the tables when missing.
func NewPostgresConversationStore(ctx context.Context, dsn string) (*PostgresConversationStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &PostgresConversationStore{
		pool:   pool,
		logger: logger_i.NewLogger("PostgresConversationStore"),
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresConversationStore) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, conversationSchema); err != nil {
		return fmt.Errorf("migrate conversations: %w", err)
	}
	return nil
}

func (s *PostgresConversationStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresConversationStore) Append(ctx context.Context, sessionId string, message chatModel.Message) error {
	citations := message.Citations
	if citations == nil {
		citations = []chatModel.Citation{}
	}
	raw, err := json.Marshal(citations)
	if err != nil {
		return err
	}
	title := ""
	if message.Role == chatModel.RoleUser {
		title = chatModel.TitleFrom(message.Content)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx append message: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// title is only written while it is still empty
	_, err = tx.Exec(ctx, `
INSERT INTO conversations (id, title, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (id)
DO UPDATE SET
  title = CASE WHEN conversations.title = '' THEN EXCLUDED.title ELSE conversations.title END,
  updated_at = now()`, sessionId, title)
	if err != nil {
		return fmt.Errorf("upsert conversation %s: %w", sessionId, err)
	}

	_, err = tx.Exec(ctx, `
INSERT INTO messages (conversation_id, role, content, citations)
VALUES ($1, $2, $3, $4::jsonb)`, sessionId, string(message.Role), message.Content, string(raw))
	if err != nil {
		return fmt.Errorf("insert message %s: %w", sessionId, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit message tx: %w", err)
	}
	logger_i.FromContext(ctx, "PostgresConversationStore").Debug("Saved message", "sessionId", sessionId, "role", message.Role)
	return nil
}

func (s *PostgresConversationStore) GetMessages(ctx context.Context, sessionId string) ([]chatModel.Message, error) {
	rows, err := s.pool.Query(ctx, `
SELECT role, content, citations::text
FROM messages
WHERE conversation_id=$1
ORDER BY id ASC`, sessionId)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]chatModel.Message, 0, 16)
	for rows.Next() {
		var (
			role, content, citations string
		)
		if err := rows.Scan(&role, &content, &citations); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m := chatModel.Message{Role: chatModel.Role(role), Content: content}
		if err := json.Unmarshal([]byte(citations), &m.Citations); err != nil {
			s.logger.Warn("Dropping unreadable citations", "sessionId", sessionId, "error", err)
		}
		if len(m.Citations) == 0 {
			m.Citations = nil
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

func (s *PostgresConversationStore) ListRecent(ctx context.Context, _ string, limit int) ([]chatModel.ConversationSummary, error) {
	if limit <= 0 {
		limit = config.RecentConversationLimit
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, title, updated_at
FROM conversations
ORDER BY updated_at DESC, id ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make([]chatModel.ConversationSummary, 0, limit)
	for rows.Next() {
		var (
			c       chatModel.ConversationSummary
			updated time.Time
		)
		if err := rows.Scan(&c.Id, &c.Title, &updated); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.UpdatedAt = updated
		c.Date = chatModel.DisplayDate(updated)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

// Ping is used by the health endpoint.
func (s *PostgresConversationStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
