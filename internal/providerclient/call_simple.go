package providerclient

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
)

// CallSimple is the single-shot operation used for title and summary
// generation (spec §4.4, third call_* operation). Unlike CallStreaming,
// which hand-decodes SSE by design, this path is simple enough that
// reaching for the vendor SDK is the right call: there is no streaming
// control flow to get right here, just one request and one string back.
func (c *Client) CallSimple(ctx context.Context, system, userText string, maxTokens int) (string, error) {
	switch c.cfg.Dialect {
	case anthropicSimpleDialect:
		return c.callSimpleAnthropic(ctx, system, userText, maxTokens)
	default:
		return c.callSimpleOpenAI(ctx, system, userText, maxTokens)
	}
}

// anthropicSimpleDialect aliases the wireformat constant locally so this
// file only needs one import for the dialect comparison below.
const anthropicSimpleDialect = "anthropic"

func (c *Client) callSimpleAnthropic(ctx context.Context, system, userText string, maxTokens int) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(c.cfg.APIKey)}
	if c.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("providerclient: anthropic call_simple: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

func (c *Client) callSimpleOpenAI(ctx context.Context, system, userText string, maxTokens int) (string, error) {
	clientCfg := openai.DefaultConfig(c.cfg.APIKey)
	if c.cfg.BaseURL != "" {
		clientCfg.BaseURL = c.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userText})

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("providerclient: openai call_simple: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
