// Package llm abstracts the model transport. Providers deliver text
// incrementally through a stream callback and return the accumulated
// response; tool use is negotiated in the system prompt, not through
// provider-native tool calling, so every provider reduces to text chat.
package llm

import (
	"context"

	"github.com/adder-cli/adder/conversation"
)

// StreamFunc receives one chunk of incremental model output. Streaming
// is a presentation concern only; functional behavior always operates
// on the accumulated text.
type StreamFunc func(chunk string)

// Client is the interface to a chat completion backend.
type Client interface {
	Chat(ctx context.Context, messages []conversation.Message, stream StreamFunc) (string, error)
}

// MockClient replays scripted responses; used in tests and as the
// fallback when no provider is configured.
type MockClient struct {
	Responses []string
	Calls     [][]conversation.Message
	next      int
}

func (m *MockClient) Chat(ctx context.Context, messages []conversation.Message, stream StreamFunc) (string, error) {
	m.Calls = append(m.Calls, append([]conversation.Message(nil), messages...))
	if m.next >= len(m.Responses) {
		resp := "I have no scripted response left."
		if stream != nil {
			stream(resp)
		}
		return resp, nil
	}
	resp := m.Responses[m.next]
	m.next++
	if stream != nil {
		stream(resp)
	}
	return resp, nil
}
