package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	httpclient "fiscal-assistant/internal/common/http"
	"fiscal-assistant/internal/models"
)

// OpenAIProvider talks to any OpenAI-compatible endpoint, Groq included.
type OpenAIProvider struct {
	client openai.Client
	opts   Options
}

func NewOpenAIProvider(apiKey, baseURL string, opts Options) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpclient.NewClient(opts.Timeout).Standard()),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(reqOpts...),
		opts:   opts,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []models.Message) (string, error) {
	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.opts.Model),
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
		Temperature: openai.Float(p.opts.Temperature),
	}
	if p.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.opts.MaxTokens))
	}

	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case models.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(p.Name(), fmt.Errorf("openai API error: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", classify(p.Name(), fmt.Errorf("openai returned no choices"))
	}

	return resp.Choices[0].Message.Content, nil
}
