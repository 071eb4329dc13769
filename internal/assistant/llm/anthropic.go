package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	httpclient "fiscal-assistant/internal/common/http"
	"fiscal-assistant/internal/models"
)

// AnthropicProvider implements Provider for Claude models.
type AnthropicProvider struct {
	client anthropic.Client
	opts   Options
}

func NewAnthropicProvider(apiKey, baseURL string, opts Options) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpclient.NewClient(opts.Timeout).Standard()),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}

	return &AnthropicProvider{client: anthropic.NewClient(reqOpts...), opts: opts}, nil
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Chat(ctx context.Context, messages []models.Message) (string, error) {
	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	maxTokens := int64(p.opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1500
	}

	system, turns := splitSystem(messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.opts.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
		Messages:    make([]anthropic.MessageParam, 0, len(turns)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, m := range turns {
		if m.Role == models.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(p.Name(), fmt.Errorf("anthropic API error: %w", err))
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}
