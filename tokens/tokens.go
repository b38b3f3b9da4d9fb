// Package tokens estimates the token cost of conversation histories so
// the context manager can act before the model window overflows.
package tokens

import (
	"regexp"
	"unicode/utf8"

	"github.com/adder-cli/adder/conversation"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// Per-message framing overhead and the priming tokens for the reply,
	// per the chat-format accounting most providers document.
	perMessageOverhead = 4
	replyPrimingTokens = 2
)

var controlTokenPattern = regexp.MustCompile(`<\|[^|]+\|>`)

// Counter counts tokens with the encoding of a specific model, falling
// back to cl100k_base and finally to a character heuristic when no
// encoding is available (offline, unknown model).
type Counter struct {
	encoder *tiktoken.Tiktoken
}

// NewCounter builds a counter for the given model identifier.
func NewCounter(model string) *Counter {
	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoder, _ = tiktoken.GetEncoding("cl100k_base")
	}
	return &Counter{encoder: encoder}
}

// NewHeuristicCounter builds a counter that always uses the character
// heuristic, independent of which encodings are installed.
func NewHeuristicCounter() *Counter {
	return &Counter{}
}

// Count returns the token count of text. Vendor control tokens are
// stripped first since they never reach the model as literal text.
func (c *Counter) Count(text string) int {
	text = controlTokenPattern.ReplaceAllString(text, "")
	if text == "" {
		return 0
	}
	if c.encoder != nil {
		return len(c.encoder.Encode(text, nil, nil))
	}
	// Rough heuristic: 1 token per 4 characters.
	return (utf8.RuneCountInString(text) + 3) / 4
}

// MessageCost returns the total token cost of a message list, including
// per-message framing overhead.
func (c *Counter) MessageCost(messages []conversation.Message) int {
	total := 0
	for _, msg := range messages {
		total += perMessageOverhead
		total += c.Count(msg.Role)
		total += c.Count(msg.Content)
	}
	return total + replyPrimingTokens
}
