package claude

import (
	"context"
	"errors"
	"os"
	"testing"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
)

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, errorskg.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	p, err := New(Config{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.config.MaxTokens != 2048 || p.config.Model == "" {
		t.Fatalf("defaults not applied: %+v", p.config)
	}
}

func TestCompleteIntegration(t *testing.T) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		t.Skip("ANTHROPIC_API_KEY not set")
	}
	p, err := New(Config{APIKey: key})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := p.Complete(context.Background(), generation.Request{Prompt: "Say ok", MaxTokens: 10})
	if err != nil || out == "" {
		t.Fatalf("Complete: %q %v", out, err)
	}
}
