package openai

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
)

// Config holds OpenAI-compatible provider configuration
type Config struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
}

// Provider implements generation.Provider against any OpenAI-compatible chat endpoint.
type Provider struct {
	name   string
	model  string
	client openaisdk.Client
}

var _ generation.Provider = (*Provider)(nil)

func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai provider: api key: %w", errorskg.ErrUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = string(openaisdk.ChatModelGPT4oMini)
	}
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{
		name:   cfg.Name,
		model:  cfg.Model,
		client: openaisdk.NewClient(opts...),
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) Complete(ctx context.Context, req generation.Request) (string, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openaisdk.SystemMessage(req.System))
	}
	messages = append(messages, openaisdk.UserMessage(req.Prompt))

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(p.model),
		Messages:    messages,
		Temperature: openaisdk.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.name, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices: %w", p.name, errorskg.ErrEmptyGeneration)
	}
	return completion.Choices[0].Message.Content, nil
}
