package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adder-cli/adder/conversation"
)

// The heuristic path (no encoder) is what tests exercise: encoding
// tables may not be available offline, and the context manager only
// needs estimates to be stable and monotonic, not exact.

func TestCountHeuristic(t *testing.T) {
	c := &Counter{}
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("hi"))
	assert.Equal(t, 2, c.Count("abcdefgh"))
}

func TestCountStripsControlTokens(t *testing.T) {
	c := &Counter{}
	plain := c.Count("final answer")
	marked := c.Count("<|channel|>final<|message|>final answer")
	// The channel framing itself costs nothing; "final" survives.
	assert.Equal(t, plain+c.Count("final"), marked)
	assert.Equal(t, 0, c.Count("<|start|><|end|>"))
}

func TestMessageCost(t *testing.T) {
	c := &Counter{}
	messages := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "be helpful"},
		{Role: conversation.RoleUser, Content: "hello there"},
	}
	want := 2 + // reply priming
		4 + c.Count(conversation.RoleSystem) + c.Count("be helpful") +
		4 + c.Count(conversation.RoleUser) + c.Count("hello there")
	assert.Equal(t, want, c.MessageCost(messages))

	// Cost grows as the history grows.
	longer := append(messages, conversation.Message{Role: conversation.RoleAssistant, Content: "hi"})
	assert.Greater(t, c.MessageCost(longer), c.MessageCost(messages))
}

func TestNewCounterUnknownModel(t *testing.T) {
	c := NewCounter("definitely-not-a-model")
	assert.Greater(t, c.Count("some text to count"), 0)
}

func TestNewHeuristicCounter(t *testing.T) {
	c := NewHeuristicCounter()
	assert.Equal(t, 3, c.Count("twelve chars"))
}
