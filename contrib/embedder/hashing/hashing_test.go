package hashing

import (
	"context"
	"testing"

	"github.com/sweetpotato0/nyaya/vector"
)

func TestEmbedIsDeterministicAndNormalized(t *testing.T) {
	e := New(0)
	if e.Dimension() != vector.DefaultDimension {
		t.Fatalf("default dimension = %d", e.Dimension())
	}
	ctx := context.Background()
	a, _ := e.Embed(ctx, "How do I file an RTI application?")
	b, _ := e.Embed(ctx, "how do i FILE an rti application")
	if sim := vector.CosineSimilarity(a, b); sim < 0.999 {
		t.Fatalf("expected identical embeddings after normalization, got %f", sim)
	}
}

func TestRelatedTextsScoreHigher(t *testing.T) {
	e := New(384)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "right to information application")
	near, _ := e.Embed(ctx, "file a right to information application with the public information officer")
	far, _ := e.Embed(ctx, "divorce by mutual consent under the hindu marriage act")
	if vector.CosineSimilarity(q, near) <= vector.CosineSimilarity(q, far) {
		t.Fatalf("expected related text to score higher")
	}
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	e := New(64)
	ctx := context.Background()
	texts := []string{"bail", "tenancy", "consumer complaint"}
	batch, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	for i, text := range texts {
		single, _ := e.Embed(ctx, text)
		if vector.CosineSimilarity(batch[i], single) < 0.999 {
			t.Fatalf("batch[%d] does not match single embedding", i)
		}
	}
}
