package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/memory"
)

// InMemoryStore implements memory.Store in process memory.
type InMemoryStore struct {
	records map[string][]byte
	mu      sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]byte)}
}

// Save stores a serialized copy so callers cannot mutate stored records.
func (s *InMemoryStore) Save(ctx context.Context, rec *memory.Record) error {
	if err := memory.Prepare(rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = data
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (*memory.Record, error) {
	s.mu.RLock()
	data, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, errorskg.ErrNotFound)
	}
	return decodeRecord(data)
}

func (s *InMemoryStore) Recent(ctx context.Context, userID string, limit int) ([]*memory.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*memory.Record, 0, len(s.records))
	for _, data := range s.records {
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		if userID == "" || rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return newest(out, limit), nil
}

func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func decodeRecord(data []byte) (*memory.Record, error) {
	var rec memory.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

func newest(recs []*memory.Record, limit int) []*memory.Record {
	memory.SortNewest(recs)
	if n := memory.Limit(limit); len(recs) > n {
		recs = recs[:n]
	}
	return recs
}
