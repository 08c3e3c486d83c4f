// Package memory persists answered queries so they can be recalled later.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	errorskg "github.com/sweetpotato0/nyaya/errors"
)

// SourceUserQuery marks records produced by answering a user query.
const SourceUserQuery = "user_query"

// StatuteRef is the persisted view of a retrieved statute.
type StatuteRef struct {
	Title   string  `json:"title" bson:"title"`
	Section string  `json:"section,omitempty" bson:"section,omitempty"`
	ActName string  `json:"act_name,omitempty" bson:"act_name,omitempty"`
	Source  string  `json:"source,omitempty" bson:"source,omitempty"`
	Score   float64 `json:"score" bson:"score"`
}

// CaseRef is the persisted view of an analysed precedent.
type CaseRef struct {
	CaseName string  `json:"case_name" bson:"case_name"`
	Year     string  `json:"year,omitempty" bson:"year,omitempty"`
	Outcome  string  `json:"outcome,omitempty" bson:"outcome,omitempty"`
	Source   string  `json:"source,omitempty" bson:"source,omitempty"`
	Score    float64 `json:"score" bson:"score"`
}

// ActionRef is the persisted view of a civic recommendation.
type ActionRef struct {
	Sequence  int    `json:"sequence" bson:"sequence"`
	Action    string `json:"action" bson:"action"`
	Authority string `json:"authority,omitempty" bson:"authority,omitempty"`
	Timeline  string `json:"timeline,omitempty" bson:"timeline,omitempty"`
}

// Record is one answered query.
type Record struct {
	ID              string       `json:"id" bson:"_id"`
	UserID          string       `json:"user_id" bson:"user_id"`
	Query           string       `json:"query" bson:"query"`
	Domains         []string     `json:"domains" bson:"domains"`
	Statutes        []StatuteRef `json:"statutes" bson:"statutes"`
	Cases           []CaseRef    `json:"cases" bson:"cases"`
	Explanation     string       `json:"explanation" bson:"explanation"`
	Recommendations []ActionRef  `json:"recommendations" bson:"recommendations"`
	// Timestamp is RFC 3339.
	Timestamp string `json:"timestamp" bson:"timestamp"`
	Source    string `json:"source" bson:"source"`
}

// Store saves and loads records.
type Store interface {
	// Save inserts or replaces the record with the same ID.
	Save(ctx context.Context, rec *Record) error

	// Get returns errors.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*Record, error)

	// Recent returns up to limit records, newest first. An empty userID matches everyone.
	Recent(ctx context.Context, userID string, limit int) ([]*Record, error)
}

// Prepare validates rec and fills id, timestamp and source defaults.
func Prepare(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil: %w", errorskg.ErrInvalidInput)
	}
	if strings.TrimSpace(rec.Query) == "" {
		return fmt.Errorf("record query cannot be empty: %w", errorskg.ErrInvalidInput)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.UserID == "" {
		rec.UserID = "anonymous"
	}
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if rec.Source == "" {
		rec.Source = SourceUserQuery
	}
	return nil
}

// SortNewest orders records by timestamp descending, then by id.
func SortNewest(recs []*Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Timestamp != recs[j].Timestamp {
			return recs[i].Timestamp > recs[j].Timestamp
		}
		return recs[i].ID < recs[j].ID
	})
}

// Limit normalises a caller-supplied limit.
func Limit(n int) int {
	if n <= 0 {
		return 10
	}
	if n > 100 {
		return 100
	}
	return n
}
