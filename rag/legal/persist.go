package legal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/memory"
	"github.com/sweetpotato0/nyaya/vector"
)

// persistStep records the answered query in the memory store and in the
// memory vector collections. Its failures never reach the response beyond
// the error list.
type persistStep struct{ *deps }

func (s *persistStep) Name() StepName  { return StepPersist }
func (s *persistStep) Writes() []Slice { return []Slice{SliceMemory} }

func (s *persistStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	rec := recordFromState(st, s.cfg.now().UTC())
	if err := memory.Prepare(rec); err != nil {
		return AgentResult{}, errorskg.NewFault(errorskg.KindPersistence, string(StepPersist), err)
	}

	var errs []error
	if len(st.Embedding) > 0 {
		payload := vector.Payload{
			"case_id":   rec.ID,
			"user_id":   rec.UserID,
			"query":     rec.Query,
			"domain":    st.PrimaryDomain,
			"domains":   append([]string(nil), rec.Domains...),
			"timestamp": rec.Timestamp,
			"source":    rec.Source,
		}
		if err := s.vectors.Upsert(ctx, vector.CollectionCaseMemory, vector.Point{ID: rec.ID, Vector: st.Embedding, Payload: payload}); err != nil {
			errs = append(errs, fmt.Errorf("case memory upsert: %w", err))
		}
		interaction := vector.Payload{
			"case_id":   rec.ID,
			"user_id":   rec.UserID,
			"query":     rec.Query,
			"domain":    st.PrimaryDomain,
			"timestamp": rec.Timestamp,
		}
		if err := s.vectors.Upsert(ctx, vector.CollectionUserMemory, vector.Point{ID: uuid.NewString(), Vector: st.Embedding, Payload: interaction}); err != nil {
			errs = append(errs, fmt.Errorf("interaction memory upsert: %w", err))
		}
	}
	if s.memory != nil {
		if err := s.memory.Save(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("save record: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("persist failed", "case_id", st.CaseID, "error", err)
		return AgentResult{}, errorskg.NewFault(errorskg.KindPersistence, string(StepPersist), err)
	}
	st.MemoryID = rec.ID
	return AgentResult{
		Result:     rec.ID,
		Confidence: 1,
		Reasoning:  "interaction stored",
		TierUsed:   TierRule,
	}, nil
}

func recordFromState(st *State, now time.Time) *memory.Record {
	rec := &memory.Record{
		ID:          st.CaseID,
		UserID:      st.UserID,
		Query:       st.Query,
		Domains:     append([]string(nil), st.Domains...),
		Explanation: st.Explanation,
		Timestamp:   now.Format(time.RFC3339),
		Source:      memory.SourceUserQuery,
	}
	for _, s := range st.Statutes {
		rec.Statutes = append(rec.Statutes, memory.StatuteRef{
			Title: s.Title, Section: s.Section, ActName: s.ActName, Source: s.Source, Score: s.Score,
		})
	}
	for _, c := range st.Cases {
		rec.Cases = append(rec.Cases, memory.CaseRef{
			CaseName: c.CaseName, Year: c.Year, Outcome: c.Outcome, Source: c.Source, Score: c.Score,
		})
	}
	for _, r := range st.Recommendations {
		rec.Recommendations = append(rec.Recommendations, memory.ActionRef{
			Sequence: r.Sequence, Action: r.Action, Authority: r.ResponsibleAuthority, Timeline: r.EstimatedTimeline,
		})
	}
	return rec
}
