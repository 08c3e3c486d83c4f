package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/pkg/logging"
)

type stubProvider struct {
	name   string
	out    string
	err    error
	panics bool
	block  bool
	calls  int
	last   Request
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(ctx context.Context, req Request) (string, error) {
	s.calls++
	s.last = req
	if s.panics {
		panic("boom")
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.out, s.err
}

type wordBudget struct{}

func (wordBudget) CountTokens(text string) int { return len(strings.Fields(text)) }

func (wordBudget) Truncate(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}

func TestGenerateFailsOver(t *testing.T) {
	first := &stubProvider{name: "groq", err: errors.New("rate limited")}
	second := &stubProvider{name: "empty", out: "   "}
	third := &stubProvider{name: "claude", out: " answer "}
	g := NewGateway([]Provider{first, nil, second, third}, WithLogger(logging.Discard()))

	if got := g.Generate(context.Background(), Request{Prompt: "hi"}); got != "answer" {
		t.Fatalf("Generate = %q", got)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Fatalf("unexpected call counts %d %d %d", first.calls, second.calls, third.calls)
	}
	if names := g.Providers(); len(names) != 3 {
		t.Fatalf("nil provider should be skipped, got %v", names)
	}
}

func TestGenerateDegradesToEmpty(t *testing.T) {
	g := NewGateway([]Provider{
		&stubProvider{name: "panics", panics: true},
		&stubProvider{name: "slow", block: true},
	}, WithLogger(logging.Discard()), WithTimeout(10*time.Millisecond))

	if got := g.Generate(context.Background(), Request{Prompt: "hi"}); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestGenerateWithoutProviders(t *testing.T) {
	g := NewGateway(nil, WithLogger(logging.Discard()))
	if g.Available() {
		t.Fatalf("expected unavailable")
	}
	_, err := g.Try(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, errorskg.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	var nilGateway *Gateway
	if nilGateway.Generate(context.Background(), Request{Prompt: "hi"}) != "" {
		t.Fatalf("nil gateway should produce nothing")
	}
}

func TestPromptBudget(t *testing.T) {
	p := &stubProvider{name: "p", out: "ok"}
	g := NewGateway([]Provider{p}, WithLogger(logging.Discard()), WithPromptBudget(wordBudget{}, 3))
	g.Generate(context.Background(), Request{Prompt: "one two three four five"})
	if p.last.Prompt != "one two three" {
		t.Fatalf("prompt not truncated: %q", p.last.Prompt)
	}
}
