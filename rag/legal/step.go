package legal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/nyaya/generation"
	"github.com/sweetpotato0/nyaya/memory"
	"github.com/sweetpotato0/nyaya/vector"
	"github.com/sweetpotato0/nyaya/websearch"
)

// Step is one unit of pipeline work. A step reads any State field written by
// an earlier stage and writes only the slices it declares.
type Step interface {
	Name() StepName
	Writes() []Slice
	Run(ctx context.Context, st *State) (AgentResult, error)
}

// deps is shared by every built-in step.
type deps struct {
	cfg      *Config
	embedder vector.Embedder
	vectors  *vector.Gateway
	llm      *generation.Gateway
	web      websearch.Provider
	memory   memory.Store
	logger   *slog.Logger
}

// stage is a group of steps that may run concurrently.
type stage []Step

// verifyStages fails when two steps of one stage declare the same slice, or
// when a slice is owned by steps in different stages.
func verifyStages(stages []stage) error {
	owner := make(map[Slice]StepName)
	for i, stg := range stages {
		inStage := make(map[Slice]StepName)
		for _, step := range stg {
			for _, sl := range step.Writes() {
				if other, ok := inStage[sl]; ok {
					return fmt.Errorf("stage %d: steps %s and %s both write %s", i, other, step.Name(), sl)
				}
				inStage[sl] = step.Name()
				if other, ok := owner[sl]; ok && other != step.Name() {
					return fmt.Errorf("slice %s written by both %s and %s", sl, other, step.Name())
				}
				owner[sl] = step.Name()
			}
		}
	}
	return nil
}

// buildStages groups steps by the canonical pipeline layout, dropping names
// that have no step.
func buildStages(steps map[StepName]Step) []stage {
	layout := [][]StepName{
		{StepIntake},
		{StepClassify},
		{StepKnowledge, StepCases, StepWebSearch},
		{StepReason},
		{StepRecommend},
		{StepSafety},
		{StepPersist},
		{StepSynthesize},
	}
	var out []stage
	for _, names := range layout {
		var stg stage
		for _, n := range names {
			if s, ok := steps[n]; ok {
				stg = append(stg, s)
			}
		}
		if len(stg) > 0 {
			out = append(out, stg)
		}
	}
	return out
}

// searchText picks the text used when no embedding is available.
func searchText(st *State) string {
	return strings.TrimSpace(st.query())
}

// embedding returns the intake embedding or computes one on demand.
func (d *deps) embedding(ctx context.Context, st *State) ([]float32, error) {
	if len(st.Embedding) > 0 {
		return st.Embedding, nil
	}
	text := searchText(st)
	if text == "" || d.embedder == nil {
		return nil, nil
	}
	return d.embedder.Embed(ctx, text)
}
