package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adder-cli/adder/config"
	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/llm"
	"github.com/adder-cli/adder/tokens"
)

// Compression never targets the full window: a compressed history
// still has to leave room for the next exchange.
const (
	// estimateHeadroom rejects a summarization request whose own cost
	// would crowd the window, before it is ever sent.
	estimateHeadroom = 0.9
	// resultHeadroom rejects a finished compression that still came
	// out too large.
	resultHeadroom = 0.95
)

// ContextManager keeps a conversation inside the token window by
// summarizing the middle of the history, falling back to plain
// truncation when summarizing fails or is not enough.
type ContextManager struct {
	client  llm.Client
	counter *tokens.Counter
	cfg     config.Context
	log     *slog.Logger
}

func NewContextManager(client llm.Client, counter *tokens.Counter, cfg config.Context, log *slog.Logger) *ContextManager {
	if log == nil {
		log = slog.Default()
	}
	return &ContextManager{client: client, counter: counter, cfg: cfg, log: log}
}

// Usage returns the conversation's current token cost and the window.
func (m *ContextManager) Usage(conv *conversation.Conversation) (cost, window int) {
	return m.counter.MessageCost(conv.Messages), m.cfg.TokenWindowSize
}

// Manage compresses the conversation if it exceeds the configured
// threshold. It reports whether the history was modified. Manage is
// idempotent: below the threshold it does nothing, and repeated calls
// converge because compression always shrinks the history.
func (m *ContextManager) Manage(ctx context.Context, conv *conversation.Conversation) bool {
	cost := m.counter.MessageCost(conv.Messages)
	threshold := float64(m.cfg.TokenWindowSize) * m.cfg.CompressionThreshold
	if float64(cost) <= threshold {
		return false
	}
	m.log.Info("context over threshold, compressing",
		"tokens", cost, "window", m.cfg.TokenWindowSize)

	keep := m.cfg.RecentMessagesToKeep
	// Need a system prompt, something to summarize, and the kept tail.
	if len(conv.Messages) <= keep+2 {
		m.truncate(conv)
		return true
	}

	system := conv.Messages[0]
	middle := conv.Messages[1 : len(conv.Messages)-keep]
	tail := conv.Messages[len(conv.Messages)-keep:]

	// The summarization request carries the whole middle block, so its
	// own cost is checked before it is sent; a request that would not
	// fit the window cannot help.
	request := summaryRequest(middle)
	if estimated := m.counter.MessageCost(request); float64(estimated) > float64(m.cfg.TokenWindowSize)*estimateHeadroom {
		m.log.Warn("summarization request would overflow the window, truncating instead",
			"estimated", estimated, "window", m.cfg.TokenWindowSize)
		m.truncate(conv)
		return true
	}

	summary, err := m.client.Chat(ctx, request, nil)
	if err != nil {
		m.log.Warn("summarization failed, keeping recent messages only", "error", err)
		m.keepRecent(conv, keep+4)
		return true
	}

	summaryMsg := conversation.Message{
		Role:    conversation.RoleSystem,
		Content: "[Previous conversation summary]\n" + summary,
	}
	compressed := make([]conversation.Message, 0, len(tail)+2)
	compressed = append(compressed, system, summaryMsg)
	compressed = append(compressed, tail...)

	conv.Messages = compressed
	if after := m.counter.MessageCost(conv.Messages); float64(after) > float64(m.cfg.TokenWindowSize)*resultHeadroom {
		m.log.Warn("compression insufficient, truncating", "tokens", after)
		m.truncate(conv)
	}
	return true
}

func summaryRequest(middle []conversation.Message) []conversation.Message {
	var b strings.Builder
	for _, msg := range middle {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return []conversation.Message{
		{
			Role:    conversation.RoleSystem,
			Content: "You summarize conversation history. Be concise but preserve key facts, decisions, file paths, and tool results the assistant may still need.",
		},
		{
			Role:    conversation.RoleUser,
			Content: "Summarize the following conversation:\n\n" + b.String(),
		},
	}
}

// truncate drops everything except the system prompt and a short tail,
// leaving a notice so the model knows history is missing. No model
// call is involved, so this always succeeds.
func (m *ContextManager) truncate(conv *conversation.Conversation) {
	keep := m.cfg.RecentMessagesToKeep / 3
	if keep < 3 {
		keep = 3
	}
	if keep > len(conv.Messages)-1 {
		keep = len(conv.Messages) - 1
	}
	dropped := len(conv.Messages) - 1 - keep
	if dropped <= 0 {
		return
	}
	notice := conversation.Message{
		Role:    conversation.RoleSystem,
		Content: fmt.Sprintf("[%d earlier messages were dropped to fit the context window]", dropped),
	}
	truncated := make([]conversation.Message, 0, keep+2)
	truncated = append(truncated, conv.Messages[0], notice)
	truncated = append(truncated, conv.Messages[len(conv.Messages)-keep:]...)
	conv.Messages = truncated
}

// keepRecent is the summarization-failure fallback: keep the system
// prompt plus the last n messages unchanged.
func (m *ContextManager) keepRecent(conv *conversation.Conversation, n int) {
	if len(conv.Messages)-1 <= n {
		return
	}
	kept := make([]conversation.Message, 0, n+1)
	kept = append(kept, conv.Messages[0])
	kept = append(kept, conv.Messages[len(conv.Messages)-n:]...)
	conv.Messages = kept
}
