package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// MaxTokens applies when the request does not set one; the Messages API requires it.
	MaxTokens int64
}

// Provider implements generation.Provider for Claude
type Provider struct {
	config Config
	client anthropic.Client
}

var _ generation.Provider = (*Provider)(nil)

// New creates a new Claude provider using official SDK
func New(config Config) (*Provider, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("claude provider: api key: %w", errorskg.ErrUnavailable)
	}
	if config.Model == "" {
		config.Model = "claude-3-5-haiku-latest"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 2048
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: anthropic.NewClient(options...),
	}, nil
}

func (p *Provider) Name() string {
	return "claude"
}

func (p *Provider) Complete(ctx context.Context, req generation.Request) (string, error) {
	maxTokens := p.config.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.config.Model),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		MaxTokens:   maxTokens,
		Temperature: param.NewOpt(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	apiMessage, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	var b strings.Builder
	for _, content := range apiMessage.Content {
		if content.Type == "text" {
			b.WriteString(content.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("claude returned no text: %w", errorskg.ErrEmptyGeneration)
	}
	return b.String(), nil
}
