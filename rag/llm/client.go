// Package llm wraps the chat-completion service behind the Completer
// contract. One outbound call per Complete; retry policy, if any, belongs to
// the pipeline, not here.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/kittipos/callroom/rag/contract"
)

// Client calls an OpenAI-compatible chat-completion endpoint.
type Client struct {
	client      *openaisdk.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

var _ contractx.Completer = (*Client)(nil)

// NewClient builds a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	sdk := openaisdk.NewClient(opts...)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		client:      &sdk,
		model:       strings.TrimSpace(cfg.Model),
		maxTokens:   cfg.MaxCompletionToken,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

// Complete sends the message list to the completion service and returns the
// generated text. Service failures, timeouts, and empty model output all
// surface as ErrCompletion.
func (c *Client) Complete(ctx context.Context, msgs []*schema.Message) (string, error) {
	if err := ValidateMessages(msgs); err != nil {
		return "", err
	}

	params, err := toCompletionParams(msgs)
	if err != nil {
		return "", err
	}
	params.Model = openaisdk.ChatModel(c.model)
	if c.maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(c.maxTokens))
	}
	params.Temperature = openaisdk.Float(c.temperature)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", contractx.ErrCompletion)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: model returned empty output", contractx.ErrCompletion)
	}
	return content, nil
}

// ValidateMessages enforces the completion calling convention: at least one
// system message, and a user message last.
func ValidateMessages(msgs []*schema.Message) error {
	if len(msgs) == 0 {
		return fmt.Errorf("%w: message list is empty", contractx.ErrValidation)
	}

	hasSystem := false
	for _, m := range msgs {
		if m == nil {
			return fmt.Errorf("%w: message list contains nil entry", contractx.ErrValidation)
		}
		if m.Role == schema.System {
			hasSystem = true
		}
	}
	if !hasSystem {
		return fmt.Errorf("%w: a system message is required", contractx.ErrValidation)
	}
	if msgs[len(msgs)-1].Role != schema.User {
		return fmt.Errorf("%w: last message must be a user message", contractx.ErrValidation)
	}
	return nil
}

func toCompletionParams(msgs []*schema.Message) (openaisdk.ChatCompletionNewParams, error) {
	converted := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case schema.System:
			converted = append(converted, openaisdk.SystemMessage(m.Content))
		case schema.User:
			converted = append(converted, openaisdk.UserMessage(m.Content))
		case schema.Assistant:
			converted = append(converted, openaisdk.AssistantMessage(m.Content))
		default:
			return openaisdk.ChatCompletionNewParams{}, fmt.Errorf("%w: unsupported message role %q", contractx.ErrValidation, m.Role)
		}
	}
	return openaisdk.ChatCompletionNewParams{Messages: converted}, nil
}
