// Package conversation holds the chat history model and its on-disk
// store. Persistence is best effort: a failed write is reported but
// never interrupts a turn.
package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the prompt history. Immutable once appended;
// ordering is semantically significant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered message history. Messages[0] is always the
// system prompt once the conversation exists.
type Conversation struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Created  time.Time `json:"created_at"`
	Messages []Message `json:"messages"`
}

// New creates a conversation seeded with the system prompt.
func New(title, systemPrompt string) *Conversation {
	return &Conversation{
		ID:      uuid.NewString(),
		Title:   title,
		Created: time.Now(),
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
		},
	}
}

// Append adds a message to the history.
func (c *Conversation) Append(role, content string) {
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
}

// TitleFor derives a conversation title from the first user input.
func TitleFor(input string) string {
	title := strings.TrimSpace(input)
	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:50]) + "..."
	}
	return title
}
