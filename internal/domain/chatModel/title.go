package chatModel

import (
	"time"

	"github.com/akolanti/vellum/internal/config"
)

// TitleFrom derives a conversation title from its first user message.
func TitleFrom(content string) string {
	runes := []rune(content)
	if len(runes) > config.ConversationTitleRune {
		runes = runes[:config.ConversationTitleRune]
	}
	return string(runes) + "..."
}

// DisplayDate is the short date shown in the history sidebar.
func DisplayDate(t time.Time) string {
	return t.Format("Jan 02")
}

func Summarize(c Conversation) ConversationSummary {
	return ConversationSummary{
		Id:        c.Id,
		Title:     c.Title,
		Date:      DisplayDate(c.UpdatedAt),
		UpdatedAt: c.UpdatedAt,
	}
}
