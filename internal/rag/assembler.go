package rag

import (
	"strings"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/chatModel"
)

const rolePrompt = "You are an expert assistant for Vellum, specialising in Artificial Intelligence, Agentic AI and Large Language Models. " +
	"Give technical, accurate and concise answers grounded in the context provided.\n" +
	"INSTRUCTIONS:\n" +
	"1. Read the Context below carefully.\n" +
	"2. When the Context answers the question, base the answer on it and cite the source as [Source: Filename].\n"

const noContextPrompt = "3. The Context is empty. You MUST begin your answer by stating '" + config.NoContextInstruction + "'. " +
	"After that you may answer from general knowledge.\n"

// Assemble builds the message list sent to the model: a system message with
// the retrieved passages, the last window history messages, then the new
// user message. It never modifies history.
func Assemble(citations []chatModel.Citation, history []chatModel.Message, newMessage string, window int) []chatModel.Message {
	if window < 0 {
		window = 0
	}

	var system strings.Builder
	system.WriteString(rolePrompt)
	if len(citations) == 0 {
		system.WriteString(noContextPrompt)
	}
	system.WriteString("\nContext:\n")
	texts := make([]string, len(citations))
	for i, c := range citations {
		texts[i] = c.Text
	}
	system.WriteString(strings.Join(texts, "\n\n"))

	tail := make([]chatModel.Message, 0, window)
	for _, m := range history {
		if m.Role == chatModel.RoleSystem {
			continue
		}
		tail = append(tail, m)
	}
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}

	messages := make([]chatModel.Message, 0, len(tail)+2)
	messages = append(messages, chatModel.SystemMessage(system.String()))
	for _, m := range tail {
		role := chatModel.RoleAssistant
		if m.Role == chatModel.RoleUser {
			role = chatModel.RoleUser
		}
		messages = append(messages, chatModel.Message{Role: role, Content: m.Content})
	}
	messages = append(messages, chatModel.UserMessage(newMessage))
	return messages
}
