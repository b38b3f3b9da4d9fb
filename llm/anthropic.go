package llm

import (
	"context"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/errors"
)

const anthropicMaxTokens = 8192

// AnthropicClient uses the Messages API. System messages are carried
// in the dedicated system field rather than the message list.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClient(model string) (*AnthropicClient, error) {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}
	return &AnthropicClient{
		client: anthropic.NewClient(),
		model:  model,
	}, nil
}

func (c *AnthropicClient) Chat(ctx context.Context, messages []conversation.Message, stream StreamFunc) (string, error) {
	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case conversation.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case conversation.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	s := c.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  turns,
	})
	var full string
	for s.Next() {
		event := s.Current()
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
		if !ok || text.Text == "" {
			continue
		}
		full += text.Text
		if stream != nil {
			stream(text.Text)
		}
	}
	if err := s.Err(); err != nil {
		return "", errors.Wrapf(err, "anthropic stream failed")
	}
	return full, nil
}
