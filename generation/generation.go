// Package generation defines the text generation contract used by the
// answering pipeline and a failover gateway over concrete providers.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/pkg/logging"
)

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Provider is a hosted model able to complete a prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Budget clips prompts to a token budget. Satisfied by the tiktoken tokenizer.
type Budget interface {
	CountTokens(text string) int
	Truncate(text string, maxTokens int) string
}

// Gateway tries providers in order and never surfaces an error to callers:
// any failure degrades to the empty string.
type Gateway struct {
	providers       []Provider
	timeout         time.Duration
	budget          Budget
	maxPromptTokens int
	logger          *slog.Logger
}

type Option func(*Gateway)

func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithPromptBudget truncates prompts longer than maxTokens before sending them.
func WithPromptBudget(b Budget, maxTokens int) Option {
	return func(g *Gateway) {
		if b != nil && maxTokens > 0 {
			g.budget = b
			g.maxPromptTokens = maxTokens
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGateway builds a gateway over providers; nil entries are skipped.
// A gateway without providers is the template-only mode.
func NewGateway(providers []Provider, opts ...Option) *Gateway {
	g := &Gateway{
		timeout: 30 * time.Second,
		logger:  logging.WithComponent("generation"),
	}
	for _, p := range providers {
		if p != nil {
			g.providers = append(g.providers, p)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Available reports whether any provider is configured.
func (g *Gateway) Available() bool {
	return g != nil && len(g.providers) > 0
}

// Providers returns the configured provider names in failover order.
func (g *Gateway) Providers() []string {
	if g == nil {
		return nil
	}
	names := make([]string, len(g.providers))
	for i, p := range g.providers {
		names[i] = p.Name()
	}
	return names
}

// Generate returns the first non-empty completion, or "" when every provider fails.
func (g *Gateway) Generate(ctx context.Context, req Request) string {
	out, err := g.Try(ctx, req)
	if err != nil && !errors.Is(err, errorskg.ErrUnavailable) {
		g.logger.Warn("generation degraded to empty output", "error", err)
	}
	return out
}

// Try is Generate with the failure reason attached.
func (g *Gateway) Try(ctx context.Context, req Request) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("no generation provider configured: %w", errorskg.ErrUnavailable)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("empty prompt: %w", errorskg.ErrInvalidInput)
	}
	if g.budget != nil && g.budget.CountTokens(req.Prompt) > g.maxPromptTokens {
		req.Prompt = g.budget.Truncate(req.Prompt, g.maxPromptTokens)
	}

	var errs []error
	for _, p := range g.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		text, err := g.complete(ctx, p, req)
		if err != nil {
			g.logger.Warn("provider failed", "provider", p.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), errorskg.ErrEmptyGeneration))
			continue
		}
		return strings.TrimSpace(text), nil
	}
	return "", errors.Join(errs...)
}

func (g *Gateway) complete(ctx context.Context, p Provider, req Request) (text string, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return p.Complete(ctx, req)
}
