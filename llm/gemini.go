package llm

import (
	"context"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/errors"
)

// GeminiClient adapts the chat history to the genai session model:
// the system message becomes a SystemInstruction, prior turns become
// session history, and the latest user message is the streamed send.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create gemini client")
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Chat(ctx context.Context, messages []conversation.Message, stream StreamFunc) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages to send")
	}

	model := c.client.GenerativeModel(c.model)
	var history []*genai.Content
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case conversation.RoleSystem:
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
		case conversation.RoleAssistant:
			history = append(history, &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
				Role:  "model",
			})
		default:
			history = append(history, &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
				Role:  "user",
			})
		}
	}

	cs := model.StartChat()
	cs.History = history

	iter := cs.SendMessageStream(ctx, genai.Text(messages[len(messages)-1].Content))
	var full string
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", errors.Wrapf(err, "gemini stream failed")
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				text, ok := part.(genai.Text)
				if !ok || text == "" {
					continue
				}
				full += string(text)
				if stream != nil {
					stream(string(text))
				}
			}
		}
	}
	return full, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
