package vector

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// Payload is the metadata stored next to a vector. Values are JSON-compatible.
type Payload map[string]any

// String returns the payload value for key rendered as a string, or "" when absent.
func (p Payload) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// Strings returns a []string for list-valued keys, tolerating []any from decoded JSON.
func (p Payload) Strings(key string) []string {
	switch t := p[key].(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

// Point is one vector with an id and payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a search hit. Score is a cosine similarity in [0, 1].
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload Payload
}

// SearchRequest describes a similarity query against one collection.
type SearchRequest struct {
	Vector         []float32
	Limit          int
	ScoreThreshold float64
	// Filter restricts hits to points whose payload matches every key exactly.
	Filter map[string]string
}

// Store is a collection-oriented vector database.
type Store interface {
	// EnsureCollection creates the collection when it does not exist yet.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// Upsert inserts or replaces points by id.
	Upsert(ctx context.Context, collection string, points ...Point) error

	// Search returns hits ordered by descending score.
	Search(ctx context.Context, collection string, req SearchRequest) ([]ScoredPoint, error)
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings, preserving order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension return number of embedding dimensions
	Dimension() int
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// ClampScore bounds a similarity to [0, 1].
func ClampScore(s float64) float64 {
	switch {
	case math.IsNaN(s) || s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
