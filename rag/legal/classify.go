package legal

import (
	"context"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
	"github.com/sweetpotato0/nyaya/vector"
)

const (
	modelClassificationConfidence = 0.85
	ruleClassificationConfidence  = 0.5
)

type classification struct {
	Domains    []string
	Confidence float64
}

// classifyStep assigns up to three taxonomy domains to the query.
type classifyStep struct{ *deps }

func (s *classifyStep) Name() StepName  { return StepClassify }
func (s *classifyStep) Writes() []Slice { return []Slice{SliceClassification} }

func (s *classifyStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	query := st.query()
	res := Resolve(ctx,
		func() classification {
			return classification{Domains: keywordDomains(query), Confidence: ruleClassificationConfidence}
		},
		Attempt[classification]{Tier: TierModel, Run: func(ctx context.Context) Outcome[classification] {
			return s.modelTier(ctx, query)
		}},
		Attempt[classification]{Tier: TierHeuristic, Run: func(ctx context.Context) Outcome[classification] {
			return s.taxonomyTier(ctx, st)
		}},
	)
	for _, f := range res.Failures {
		s.logger.Debug("classification tier failed", "error", f)
	}

	st.Domains = res.Value.Domains
	st.PrimaryDomain = generalDomain
	if len(res.Value.Domains) > 0 {
		st.PrimaryDomain = res.Value.Domains[0]
	}
	st.ClassificationConfidence = res.Value.Confidence

	return AgentResult{
		Result:         res.Value.Domains,
		Confidence:     res.Value.Confidence,
		Reasoning:      fmt.Sprintf("classified into %d domain(s) via %s tier", len(res.Value.Domains), res.Tier),
		TierUsed:       res.Tier,
		RetrievedCount: len(res.Value.Domains),
	}, nil
}

func (s *classifyStep) modelTier(ctx context.Context, query string) Outcome[classification] {
	if !s.llm.Available() {
		return None[classification](errorskg.ErrUnavailable)
	}
	raw := s.llm.Generate(ctx, generation.Request{
		System:      strings.ReplaceAll(s.cfg.ClassificationPrompt, "{{domains}}", strings.Join(Domains(), ", ")),
		Prompt:      "User query: " + query,
		Temperature: 0.1,
		MaxTokens:   100,
	})
	out, err := decodeJSON[struct {
		Domains []string `json:"domains"`
	}](raw)
	if err != nil {
		return None[classification](err)
	}
	domains := filterDomains(out.Domains)
	if len(domains) == 0 {
		return None[classification](fmt.Errorf("no valid domain labels: %w", errorskg.ErrInvalidOutput))
	}
	return Some(classification{Domains: domains, Confidence: modelClassificationConfidence})
}

// taxonomyTier maps the query onto the nearest taxonomy entries.
func (s *classifyStep) taxonomyTier(ctx context.Context, st *State) Outcome[classification] {
	vec, err := s.embedding(ctx, st)
	if err != nil {
		return None[classification](err)
	}
	hits := s.vectors.Search(ctx, vector.CollectionTaxonomy, vec, s.cfg.TaxonomyLimit, s.cfg.TaxonomyThreshold, "")
	labels := make([]string, 0, len(hits))
	for _, h := range hits {
		labels = append(labels, h.Payload.String("domain"))
	}
	domains := filterDomains(labels)
	if len(domains) == 0 {
		return None[classification](fmt.Errorf("taxonomy search: %w", errorskg.ErrNotFound))
	}
	return Some(classification{Domains: domains, Confidence: hits[0].Score})
}
