package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/chatModel"
)

type InMemoryConversationStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string]*chatModel.Conversation
	now      func() time.Time
}

func NewInMemoryConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string]*chatModel.Conversation),
		now:      time.Now,
	}
}

func (store *InMemoryConversationStore) Append(_ context.Context, sessionId string, message chatModel.Message) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()

	convo, ok := store.chatMap[sessionId]
	if !ok {
		convo = &chatModel.Conversation{Id: sessionId}
		store.chatMap[sessionId] = convo
	}
	if convo.Title == "" && message.Role == chatModel.RoleUser {
		convo.Title = chatModel.TitleFrom(message.Content)
	}
	convo.Messages = append(convo.Messages, message)
	convo.UpdatedAt = store.now()
	return nil
}

func (store *InMemoryConversationStore) GetMessages(_ context.Context, sessionId string) ([]chatModel.Message, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()

	convo, ok := store.chatMap[sessionId]
	if !ok {
		return []chatModel.Message{}, nil
	}
	out := make([]chatModel.Message, len(convo.Messages))
	copy(out, convo.Messages)
	return out, nil
}

// ListRecent ignores userId: conversations are not partitioned per user.
func (store *InMemoryConversationStore) ListRecent(_ context.Context, _ string, limit int) ([]chatModel.ConversationSummary, error) {
	if limit <= 0 {
		limit = config.RecentConversationLimit
	}
	store.chatLock.RLock()
	summaries := make([]chatModel.ConversationSummary, 0, len(store.chatMap))
	for _, convo := range store.chatMap {
		summaries = append(summaries, chatModel.Summarize(*convo))
	}
	store.chatLock.RUnlock()

	sortRecent(summaries)
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func sortRecent(summaries []chatModel.ConversationSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].Id < summaries[j].Id
		}
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
}
