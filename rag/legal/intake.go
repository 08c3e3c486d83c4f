package legal

import (
	"context"
	"fmt"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/rag/preprocess"
)

// intakeStep normalises the query and embeds it once for every later search.
type intakeStep struct{ *deps }

func (s *intakeStep) Name() StepName  { return StepIntake }
func (s *intakeStep) Writes() []Slice { return []Slice{SliceIntake} }

func (s *intakeStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	normalized := preprocess.Collapse(preprocess.CleanBasic(st.Query))
	if s.cfg.MaxQueryLength > 0 {
		normalized = preprocess.Truncate(normalized, s.cfg.MaxQueryLength)
	}
	st.NormalizedQuery = normalized

	res := AgentResult{
		Result:     normalized,
		Confidence: 1,
		Reasoning:  "query normalised",
		TierUsed:   TierRule,
	}
	if s.embedder == nil {
		return res, nil
	}
	vec, err := s.embedder.Embed(ctx, normalized)
	if err != nil {
		// Later steps embed on demand or run without vectors.
		st.AddError(errorskg.NewFault(errorskg.KindRetrieval, string(StepIntake), fmt.Errorf("embed query: %w", err)))
		res.Reasoning = "query normalised; embedding unavailable"
		res.Confidence = 0.5
		return res, nil
	}
	st.Embedding = vec
	res.Reasoning = fmt.Sprintf("query normalised and embedded (dim %d)", len(vec))
	return res, nil
}
