// Package cached memoizes embeddings in an LRU keyed by the exact input text.
package cached

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sweetpotato0/nyaya/vector"
)

type Embedder struct {
	inner vector.Embedder
	cache *lru.Cache[string, []float32]
}

var _ vector.Embedder = (*Embedder)(nil)

// New wraps inner with an LRU of the given size (default 1024).
func New(inner vector.Embedder, size int) (*Embedder, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Embedder{inner: inner, cache: cache}, nil
}

func (e *Embedder) Dimension() int {
	return e.inner.Dimension()
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		return append([]float32(nil), vec...), nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, append([]float32(nil), vec...))
	return vec, nil
}

// EmbedBatch only sends cache misses to the inner embedder.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missing []string
		slots   []int
	)
	for i, text := range texts {
		if vec, ok := e.cache.Get(text); ok {
			out[i] = append([]float32(nil), vec...)
			continue
		}
		missing = append(missing, text)
		slots = append(slots, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	vecs, err := e.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		if j >= len(slots) {
			break
		}
		out[slots[j]] = vec
		e.cache.Add(missing[j], append([]float32(nil), vec...))
	}
	return out, nil
}
