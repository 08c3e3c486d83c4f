package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/vector"
)

type collection struct {
	dimension int
	points    map[string]vector.Point
	order     []string
}

// Store implements vector.Store using in-memory collections.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	// autoCreate makes Upsert create unknown collections, inferring the dimension.
	autoCreate bool
}

// New creates an empty store that creates collections on first upsert.
func New() *Store {
	return &Store{collections: make(map[string]*collection), autoCreate: true}
}

// NewStrict creates a store that rejects upserts and searches against unknown collections.
func NewStrict() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if name == "" {
		return fmt.Errorf("collection name cannot be empty: %w", errorskg.ErrInvalidInput)
	}
	if dimension <= 0 {
		return fmt.Errorf("collection %s: dimension must be positive: %w", name, errorskg.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = &collection{dimension: dimension, points: make(map[string]vector.Point)}
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, name string, points ...vector.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		if !s.autoCreate || len(points) == 0 {
			return fmt.Errorf("collection %s: %w", name, errorskg.ErrNotFound)
		}
		c = &collection{dimension: len(points[0].Vector), points: make(map[string]vector.Point)}
		s.collections[name] = c
	}

	for _, p := range points {
		if p.ID == "" {
			return fmt.Errorf("point ID cannot be empty: %w", errorskg.ErrInvalidInput)
		}
		if len(p.Vector) != c.dimension {
			return fmt.Errorf("point %s: dimension %d does not match collection %s (%d): %w",
				p.ID, len(p.Vector), name, c.dimension, errorskg.ErrInvalidInput)
		}
		if _, exists := c.points[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		payload := make(vector.Payload, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = v
		}
		c.points[p.ID] = vector.Point{ID: p.ID, Vector: append([]float32(nil), p.Vector...), Payload: payload}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, name string, req vector.SearchRequest) ([]vector.ScoredPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty: %w", errorskg.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		if s.autoCreate {
			return nil, nil
		}
		return nil, fmt.Errorf("collection %s: %w", name, errorskg.ErrNotFound)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	results := make([]vector.ScoredPoint, 0, len(c.order))
	for _, id := range c.order {
		p := c.points[id]
		if len(p.Vector) != len(req.Vector) || !matches(p.Payload, req.Filter) {
			continue
		}
		score := vector.CosineSimilarity(req.Vector, p.Vector)
		if score < req.ScoreThreshold {
			continue
		}
		results = append(results, vector.ScoredPoint{ID: p.ID, Score: score, Payload: p.Payload})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of points in a collection.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.points)
	}
	return 0
}

// Get returns a point by id.
func (s *Store) Get(name, id string) (vector.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return vector.Point{}, false
	}
	p, ok := c.points[id]
	return p, ok
}

func matches(payload vector.Payload, filter map[string]string) bool {
	for k, want := range filter {
		if payload.String(k) != want {
			return false
		}
	}
	return true
}
