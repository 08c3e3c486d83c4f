package cached

import (
	"context"
	"testing"
)

type countingEmbedder struct {
	calls int
	texts int
}

func (c *countingEmbedder) Dimension() int { return 2 }

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.calls++
	c.texts++
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		c.texts++
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func TestEmbedUsesCache(t *testing.T) {
	inner := &countingEmbedder{}
	e, err := New(inner, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := e.Embed(ctx, "bail"); err != nil {
			t.Fatalf("Embed: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected one inner call, got %d", inner.calls)
	}
}

func TestEmbedBatchOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	e, _ := New(inner, 8)
	ctx := context.Background()
	_, _ = e.Embed(ctx, "ab")

	vecs, err := e.EmbedBatch(ctx, []string{"ab", "abcd", "abc"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if inner.texts != 3 {
		t.Fatalf("expected only two misses to reach inner embedder, total texts=%d", inner.texts)
	}
	want := []float32{2, 4, 3}
	for i, vec := range vecs {
		if vec[0] != want[i] {
			t.Fatalf("slot %d = %v, want first component %v", i, vec, want[i])
		}
	}
}
