package llm

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/adder-cli/adder/conversation"
	"github.com/adder-cli/adder/errors"
)

const bedrockMaxTokens = 8192

// BedrockClient invokes Anthropic models through AWS Bedrock using the
// anthropic messages body format. Credentials and region come from the
// standard AWS configuration chain. Responses arrive whole; the stream
// callback receives them as a single chunk.
type BedrockClient struct {
	client *bedrockruntime.Client
	model  string
}

func NewBedrockClient(ctx context.Context, model string) (*BedrockClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS configuration")
	}
	return &BedrockClient{
		client: bedrockruntime.NewFromConfig(cfg),
		model:  model,
	}, nil
}

func (c *BedrockClient) Chat(ctx context.Context, messages []conversation.Message, stream StreamFunc) (string, error) {
	var system string
	var turns []map[string]interface{}
	for _, m := range messages {
		switch m.Role {
		case conversation.RoleSystem:
			system = m.Content
		case conversation.RoleAssistant:
			turns = append(turns, map[string]interface{}{
				"role":    "assistant",
				"content": m.Content,
			})
		default:
			turns = append(turns, map[string]interface{}{
				"role":    "user",
				"content": m.Content,
			})
		}
	}

	body := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        bedrockMaxTokens,
		"messages":          turns,
	}
	if system != "" {
		body["system"] = system
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrapf(err, "failed to marshal bedrock request")
	}

	out, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return "", errors.Wrapf(err, "bedrock invocation failed")
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", errors.Wrapf(err, "failed to decode bedrock response")
	}
	var full string
	for _, block := range resp.Content {
		if block.Type == "text" {
			full += block.Text
		}
	}
	if stream != nil && full != "" {
		stream(full)
	}
	return full, nil
}
