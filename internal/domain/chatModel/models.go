package chatModel

import (
	"context"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Citation is a query-time projection of a retrieved chunk. It is copied
// into messages by value so history survives a reindex.
type Citation struct {
	Source         string   `json:"source"`
	Page           int      `json:"page"`
	Text           string   `json:"text"`
	RelevanceScore *float64 `json:"score,omitempty"`
}

// Message is one turn. Only assistant messages carry citations.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
}

type Conversation struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

type ConversationSummary struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationStore is an append-only message log keyed by session id.
type ConversationStore interface {
	Append(ctx context.Context, sessionId string, message Message) error
	GetMessages(ctx context.Context, sessionId string) ([]Message, error)
	ListRecent(ctx context.Context, userId string, limit int) ([]ConversationSummary, error)
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string, citations []Citation) Message {
	return Message{Role: RoleAssistant, Content: content, Citations: citations}
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}
