package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adder-cli/adder/config"
	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/llm"
	"github.com/adder-cli/adder/tokens"
)

func contextConfig() config.Context {
	return config.Context{
		TokenWindowSize:      4096,
		CompressionThreshold: 0.8,
		RecentMessagesToKeep: 10,
	}
}

// bulkyConversation builds a history that crosses the compression
// threshold. The heuristic counter makes the sizing deterministic:
// each filler repeat adds 44 characters, so 11 tokens per repeat.
func bulkyConversation(messages, repeats int) *conversation.Conversation {
	conv := conversation.New("t", "You are a helpful assistant.")
	filler := strings.Repeat("the quick brown fox jumps over the lazy dog ", repeats)
	for i := 0; i < messages; i++ {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleAssistant
		}
		conv.Append(role, fmt.Sprintf("message %d: %s", i, filler))
	}
	return conv
}

func TestManageBelowThresholdIsNoop(t *testing.T) {
	client := &llm.MockClient{}
	m := NewContextManager(client, tokens.NewHeuristicCounter(), contextConfig(), nil)

	conv := conversation.New("t", "sys")
	conv.Append(conversation.RoleUser, "hello")
	before := len(conv.Messages)

	assert.False(t, m.Manage(context.Background(), conv))
	assert.Len(t, conv.Messages, before)
	assert.Empty(t, client.Calls, "no summarization below the threshold")
}

// A history exactly at the threshold is left alone; one more message
// tips it over.
func TestManageNoopAtExactThreshold(t *testing.T) {
	client := &llm.MockClient{}
	counter := tokens.NewHeuristicCounter()

	conv := conversation.New("t", "sys")
	for i := 0; i < 5; i++ {
		conv.Append(conversation.RoleUser, strings.Repeat("tick tock ", 20))
	}

	cfg := contextConfig()
	cfg.CompressionThreshold = 0.5
	cfg.TokenWindowSize = 2 * counter.MessageCost(conv.Messages)
	m := NewContextManager(client, counter, cfg, nil)

	assert.False(t, m.Manage(context.Background(), conv))
	assert.Len(t, conv.Messages, 6)
	assert.Empty(t, client.Calls)

	conv.Append(conversation.RoleUser, "one more")
	assert.True(t, m.Manage(context.Background(), conv))
}

func TestManageCompressesWithSummary(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"User and assistant discussed foxes at length."}}
	m := NewContextManager(client, tokens.NewHeuristicCounter(), contextConfig(), nil)

	conv := bulkyConversation(40, 7)
	systemPrompt := conv.Messages[0]
	tail := append([]conversation.Message(nil), conv.Messages[len(conv.Messages)-10:]...)

	require.True(t, m.Manage(context.Background(), conv))

	// system prompt + summary + the 10 most recent messages
	require.Len(t, conv.Messages, 12)
	assert.Equal(t, systemPrompt, conv.Messages[0])
	assert.Equal(t, conversation.RoleSystem, conv.Messages[1].Role)
	assert.Contains(t, conv.Messages[1].Content, "discussed foxes")
	assert.Equal(t, tail, conv.Messages[2:])

	// The summarization request carried the middle of the history.
	require.Len(t, client.Calls, 1)
	assert.Contains(t, client.Calls[0][1].Content, "message 5")
}

// A summarization request whose own cost would overflow the window is
// never sent; the history is truncated instead.
func TestManageGuardsOversizedSummarizationRequest(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"should never be requested"}}
	m := NewContextManager(client, tokens.NewHeuristicCounter(), contextConfig(), nil)

	conv := bulkyConversation(40, 25)
	tail := append([]conversation.Message(nil), conv.Messages[len(conv.Messages)-3:]...)

	require.True(t, m.Manage(context.Background(), conv))

	assert.Empty(t, client.Calls, "oversized request must not reach the model")
	// system prompt + truncation notice + last 3 messages
	require.Len(t, conv.Messages, 5)
	assert.Contains(t, conv.Messages[1].Content, "dropped")
	assert.Equal(t, tail, conv.Messages[2:])
}

// Manage converges: once compressed, a second call finds the history
// under the threshold and leaves it alone.
func TestManageIsIdempotent(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"short summary", "should never be requested"}}
	m := NewContextManager(client, tokens.NewHeuristicCounter(), contextConfig(), nil)

	conv := bulkyConversation(40, 7)
	require.True(t, m.Manage(context.Background(), conv))
	after := len(conv.Messages)

	assert.False(t, m.Manage(context.Background(), conv))
	assert.Len(t, conv.Messages, after)
	assert.Len(t, client.Calls, 1)
}

func TestManageFallsBackWhenSummarizationFails(t *testing.T) {
	m := NewContextManager(&errClient{err: fmt.Errorf("model offline")}, tokens.NewHeuristicCounter(), contextConfig(), nil)

	conv := bulkyConversation(40, 7)
	tail := append([]conversation.Message(nil), conv.Messages[len(conv.Messages)-14:]...)

	require.True(t, m.Manage(context.Background(), conv))

	// system prompt + the last keep+4 messages, unchanged
	require.Len(t, conv.Messages, 15)
	assert.Equal(t, tail, conv.Messages[1:])
}

// An oversized summary cannot help, so compression degrades to plain
// truncation: system prompt, a notice, and a short tail. This path
// never calls the model again, so it always terminates.
func TestManageTruncatesWhenSummaryTooLarge(t *testing.T) {
	huge := strings.Repeat("an extremely detailed summary ", 600)
	client := &llm.MockClient{Responses: []string{huge}}
	m := NewContextManager(client, tokens.NewHeuristicCounter(), contextConfig(), nil)

	conv := bulkyConversation(40, 7)
	tail := append([]conversation.Message(nil), conv.Messages[len(conv.Messages)-3:]...)

	require.True(t, m.Manage(context.Background(), conv))

	// system prompt + truncation notice + last 3 messages
	require.Len(t, conv.Messages, 5)
	assert.Contains(t, conv.Messages[1].Content, "dropped")
	assert.Equal(t, tail, conv.Messages[2:])
	assert.Len(t, client.Calls, 1, "truncation never asks the model")
}

func TestManageTruncatesShortOversizedHistory(t *testing.T) {
	// Few messages but each enormous: nothing in the middle to
	// summarize, so truncation is the only option.
	cfg := contextConfig()
	client := &llm.MockClient{}
	m := NewContextManager(client, tokens.NewHeuristicCounter(), cfg, nil)

	conv := conversation.New("t", "sys")
	filler := strings.Repeat("words words words ", 1200)
	for i := 0; i < 6; i++ {
		conv.Append(conversation.RoleUser, filler)
	}

	require.True(t, m.Manage(context.Background(), conv))
	assert.Empty(t, client.Calls)
	require.Len(t, conv.Messages, 5) // system + notice + last 3
	assert.Contains(t, conv.Messages[1].Content, "dropped")
}
