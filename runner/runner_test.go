package runner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sweetpotato0/nyaya/rag/legal"
)

type echoAnswerer struct {
	active atomic.Int64
	peak   atomic.Int64
	delay  time.Duration
}

func (e *echoAnswerer) Ask(ctx context.Context, req legal.Request) *legal.Response {
	n := e.active.Add(1)
	defer e.active.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if strings.Contains(req.Query, "panic") {
		panic("answerer exploded")
	}
	time.Sleep(e.delay)
	return &legal.Response{Query: req.Query, CaseID: "case-" + req.Query}
}

func TestRunPreservesOrder(t *testing.T) {
	b := New(&echoAnswerer{delay: time.Millisecond}, 3)
	queries := []string{"q1", "q2", "q3", "q4", "q5"}

	results := b.Run(context.Background(), "u1", queries)
	got := make([]string, len(results))
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("task %s failed: %v", r.TaskID, r.Err)
		}
		got[i] = r.Response.Query
	}
	if diff := cmp.Diff(queries, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if results[0].TaskID != "1" || results[4].TaskID != "5" {
		t.Fatalf("unexpected task ids %q..%q", results[0].TaskID, results[4].TaskID)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	a := &echoAnswerer{delay: 10 * time.Millisecond}
	b := New(a, 2)

	b.Run(context.Background(), "", []string{"a", "b", "c", "d", "e", "f"})
	if peak := a.peak.Load(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent answers, saw %d", peak)
	}
}

func TestRunIsolatesPanics(t *testing.T) {
	b := New(&echoAnswerer{}, 2)

	results := b.Run(context.Background(), "", []string{"ok", "panic please", "fine"})
	if results[1].Err == nil || !strings.Contains(results[1].Err.Error(), "answerer exploded") {
		t.Fatalf("expected panic to be reported, got %v", results[1].Err)
	}
	if results[0].Response == nil || results[2].Response == nil {
		t.Fatalf("other tasks must still complete")
	}
}

func TestRunCancelledContext(t *testing.T) {
	b := New(&echoAnswerer{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := b.Run(ctx, "", []string{"a", "b"})
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", r.Err)
		}
	}
}

func TestNewDefaultConcurrency(t *testing.T) {
	if got := New(&echoAnswerer{}, 0).Concurrency(); got != defaultConcurrency {
		t.Fatalf("expected default concurrency %d, got %d", defaultConcurrency, got)
	}
}

func TestAsk(t *testing.T) {
	b := New(&echoAnswerer{}, 1)
	resp, err := b.Ask(context.Background(), legal.Request{Query: "single"})
	if err != nil || resp.CaseID != "case-single" {
		t.Fatalf("unexpected response %+v, %v", resp, err)
	}
}
