package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/data/redisStore"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

// key layout
//
//	conv:{id}:messages  list of JSON messages
//	conv:{id}:meta      hash {title, updated_at}
//	conv:recent         sorted set of ids scored by updated_at
const (
	recentKey      = "conv:recent"
	metaTitle      = "title"
	metaUpdatedAt  = "updated_at"
	messagesSuffix = ":messages"
	metaSuffix     = ":meta"
)

type RedisConversationStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
	ttl    time.Duration
	now    func() time.Time
}

// GetRedisConversationStore returns nil when redis is unreachable.
func GetRedisConversationStore(ctx context.Context, addr string) *RedisConversationStore {
	s := redisStore.GetRedisStore(ctx, addr, config.RedisConversationStore)
	if s == nil {
		return nil
	}
	return newRedisConversationStore(s)
}

func newRedisConversationStore(s *redisStore.Store) *RedisConversationStore {
	return &RedisConversationStore{
		store:  s,
		logger: logger_i.NewLogger("ConversationStore"),
		ttl:    config.RedisConversationStoreTTL,
		now:    time.Now,
	}
}

func messagesKey(id string) string { return "conv:" + id + messagesSuffix }
func metaKey(id string) string     { return "conv:" + id + metaSuffix }

func (s *RedisConversationStore) Append(ctx context.Context, sessionId string, message chatModel.Message) error {
	log := logger_i.FromContext(ctx, "ConversationStore").With("sessionId", sessionId)
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	now := s.now()

	err = s.store.Tx(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, messagesKey(sessionId), data)
		if message.Role == chatModel.RoleUser {
			pipe.HSetNX(ctx, metaKey(sessionId), metaTitle, chatModel.TitleFrom(message.Content))
		}
		pipe.HSet(ctx, metaKey(sessionId), metaUpdatedAt, strconv.FormatInt(now.UnixNano(), 10))
		pipe.ZAdd(ctx, recentKey, redis.Z{Score: float64(now.UnixMilli()), Member: sessionId})
		pipe.Expire(ctx, messagesKey(sessionId), s.ttl)
		pipe.Expire(ctx, metaKey(sessionId), s.ttl)
		return nil
	})
	if err != nil {
		log.Error("error saving message", "error", err)
		return err
	}
	log.Debug("Saved message", "role", message.Role)
	return nil
}

func (s *RedisConversationStore) GetMessages(ctx context.Context, sessionId string) ([]chatModel.Message, error) {
	raw, err := s.store.ListGetAll(ctx, messagesKey(sessionId))
	if err != nil && !s.store.IsNil(err) {
		return nil, err
	}
	out := make([]chatModel.Message, 0, len(raw))
	for _, item := range raw {
		var m chatModel.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			s.logger.Warn("Skipping unreadable message", "sessionId", sessionId, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ListRecent walks the recency index newest first and drops ids whose
// conversation already expired.
func (s *RedisConversationStore) ListRecent(ctx context.Context, _ string, limit int) ([]chatModel.ConversationSummary, error) {
	if limit <= 0 {
		limit = config.RecentConversationLimit
	}
	ids, err := s.store.RecentMembers(ctx, recentKey, 0, -1)
	if err != nil {
		return nil, err
	}

	summaries := make([]chatModel.ConversationSummary, 0, limit)
	var stale []interface{}
	for _, id := range ids {
		if len(summaries) == limit {
			break
		}
		meta, err := s.store.HashGetAll(ctx, metaKey(id))
		if err != nil {
			return nil, err
		}
		if len(meta) == 0 {
			stale = append(stale, id)
			continue
		}
		nanos, _ := strconv.ParseInt(meta[metaUpdatedAt], 10, 64)
		updated := time.Unix(0, nanos)
		summaries = append(summaries, chatModel.ConversationSummary{
			Id:        id,
			Title:     meta[metaTitle],
			Date:      chatModel.DisplayDate(updated),
			UpdatedAt: updated,
		})
	}
	if len(stale) > 0 {
		if err := s.store.RemoveMembers(ctx, recentKey, stale...); err != nil {
			s.logger.Warn("Could not prune expired conversations", "error", err)
		}
	}
	sortRecent(summaries)
	return summaries, nil
}

// TestConversationStore builds a store over a miniredis-backed client.
func TestConversationStore(s *redisStore.Store) *RedisConversationStore {
	return newRedisConversationStore(s)
}
