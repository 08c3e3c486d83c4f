package legal

import (
	"context"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
	"github.com/sweetpotato0/nyaya/vector"
)

const modelRecommendationConfidence = 0.8

// recommendStep turns retrieved civic processes into ordered actions.
type recommendStep struct{ *deps }

func (s *recommendStep) Name() StepName  { return StepRecommend }
func (s *recommendStep) Writes() []Slice { return []Slice{SliceRecommendations} }

func (s *recommendStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	vec, err := s.embedding(ctx, st)
	if err != nil {
		return AgentResult{}, errorskg.NewFault(errorskg.KindRetrieval, string(StepRecommend), fmt.Errorf("embed query: %w", err))
	}
	hits := s.vectors.Search(ctx, vector.CollectionCivicProcess, vec, s.cfg.ProcessLimit, s.cfg.ProcessThreshold, st.PrimaryDomain)
	max := s.cfg.MaxRecommendations

	query := st.query()
	res := Resolve(ctx,
		func() []Recommendation { return ruleRecommendations(hits, max) },
		Attempt[[]Recommendation]{Tier: TierModel, Run: func(ctx context.Context) Outcome[[]Recommendation] {
			return s.modelTier(ctx, query, hits)
		}},
	)
	for _, f := range res.Failures {
		s.logger.Debug("recommendation tier failed", "error", f)
	}
	st.Recommendations = res.Value

	confidence := 0.0
	if len(hits) > 0 {
		confidence = hits[0].Score
	}
	if res.Tier == TierModel {
		confidence = modelRecommendationConfidence
	}
	return AgentResult{
		Result:         res.Value,
		Confidence:     confidence,
		Reasoning:      fmt.Sprintf("Generated %d unique, structured civic action(s) using %s tier", len(res.Value), res.Tier),
		TierUsed:       res.Tier,
		RetrievedCount: len(hits),
	}, nil
}

type modelRecommendation struct {
	Action               string   `json:"action"`
	ResponsibleAuthority string   `json:"responsible_authority"`
	WhyThisMatters       string   `json:"why_this_matters"`
	NextStep             string   `json:"next_step"`
	EstimatedTimeline    string   `json:"estimated_timeline"`
	RequiredDocuments    []string `json:"required_documents"`
}

func (s *recommendStep) modelTier(ctx context.Context, query string, hits []vector.ScoredPoint) Outcome[[]Recommendation] {
	if !s.llm.Available() {
		return None[[]Recommendation](errorskg.ErrUnavailable)
	}
	if len(hits) == 0 {
		return None[[]Recommendation](fmt.Errorf("no civic processes retrieved: %w", errorskg.ErrNotFound))
	}
	lines := make([]string, 0, len(hits))
	for i, h := range hits {
		p := h.Payload
		steps := p.Strings("steps")
		if len(steps) > 3 {
			steps = steps[:3]
		}
		lines = append(lines, fmt.Sprintf("%d. Action: %s\n   Authority: %s\n   Description: %s\n   Steps: %s\n   Timeline: %s",
			i+1,
			firstNonEmpty(p.String("action"), "Unknown"),
			firstNonEmpty(p.String("authority"), "N/A"),
			clip(p.String("description"), 200),
			strings.Join(steps, ", "),
			firstNonEmpty(p.String("timeline"), "N/A"),
		))
	}
	raw := s.llm.Generate(ctx, generation.Request{
		System: s.cfg.RecommendationPrompt,
		Prompt: fmt.Sprintf(`User Query: %s

Retrieved Civic Processes:
%s

Generate 3-5 structured, actionable recommendations based on the retrieved processes.
Focus on what the user can actually do to address their query.
Return ONLY a JSON array.`, query, strings.Join(lines, "\n")),
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	items, err := decodeJSON[[]modelRecommendation](raw)
	if err != nil {
		return None[[]Recommendation](err)
	}
	recs := make([]Recommendation, 0, len(*items))
	for _, it := range *items {
		recs = append(recs, Recommendation{
			Action:               firstNonEmpty(it.Action, "Unnamed Action"),
			ResponsibleAuthority: firstNonEmpty(it.ResponsibleAuthority, "Relevant Authority"),
			WhyThisMatters:       it.WhyThisMatters,
			NextStep:             it.NextStep,
			EstimatedTimeline:    firstNonEmpty(it.EstimatedTimeline, "Varies by case"),
			RequiredDocuments:    it.RequiredDocuments,
		})
	}
	recs = dedupRecommendations(recs, s.cfg.MaxRecommendations)
	if len(recs) == 0 {
		return None[[]Recommendation](fmt.Errorf("empty recommendation list: %w", errorskg.ErrInvalidOutput))
	}
	return Some(recs)
}

// ruleRecommendations builds recommendations straight from process payloads.
func ruleRecommendations(hits []vector.ScoredPoint, max int) []Recommendation {
	recs := make([]Recommendation, 0, len(hits))
	for _, h := range hits {
		p := h.Payload
		recs = append(recs, Recommendation{
			Action:               firstNonEmpty(p.String("action"), "Unnamed Action"),
			ResponsibleAuthority: firstNonEmpty(p.String("authority"), "Relevant Government Authority"),
			WhyThisMatters:       whyItMatters(p),
			NextStep:             nextStep(p),
			EstimatedTimeline:    firstNonEmpty(p.String("timeline"), "Varies by case"),
			RequiredDocuments:    p.Strings("required_documents"),
		})
	}
	return dedupRecommendations(recs, max)
}

// dedupRecommendations keeps the first recommendation per case-insensitive action,
// caps the list at max and renumbers it from 1.
func dedupRecommendations(in []Recommendation, max int) []Recommendation {
	if max <= 0 {
		max = 5
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]Recommendation, 0, len(in))
	for _, r := range in {
		key := strings.ToLower(strings.TrimSpace(r.Action))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		r.Sequence = len(out) + 1
		r.IsLegalAdvice = false
		out = append(out, r)
		if len(out) == max {
			break
		}
	}
	return out
}

func whyItMatters(p vector.Payload) string {
	if why := p.String("importance"); why != "" {
		return clip(why, 200)
	}
	action := p.String("action")
	lower := strings.ToLower(action)
	switch {
	case strings.Contains(strings.ToUpper(action), "RTI"):
		return "This allows you to access information held by public authorities, which can help understand your case better."
	case strings.Contains(lower, "petition") || strings.Contains(lower, "application"):
		return "This formal step officially registers your case and starts the legal process."
	case strings.Contains(lower, "appeal"):
		return "This allows you to challenge a decision if you disagree with it."
	default:
		return "This is a key step in addressing your legal issue through proper channels."
	}
}

func nextStep(p vector.Payload) string {
	if next := p.String("next_step"); next != "" {
		return clip(next, 150)
	}
	lower := strings.ToLower(p.String("action"))
	authority := firstNonEmpty(p.String("authority"), "relevant authority")
	switch {
	case strings.Contains(lower, "file") || strings.Contains(lower, "submit"):
		if docs := p.Strings("required_documents"); len(docs) > 0 {
			if len(docs) > 2 {
				docs = docs[:2]
			}
			return fmt.Sprintf("Gather required documents: %s. Then submit to %s.", strings.Join(docs, ", "), authority)
		}
		return fmt.Sprintf("Prepare application and submit to %s.", authority)
	case strings.Contains(lower, "appeal"):
		return fmt.Sprintf("Check the appeal deadline and file your appeal with %s, citing the decision you want reviewed.", authority)
	case strings.Contains(lower, "contact"):
		return fmt.Sprintf("Identify the correct office of %s and reach out with your query.", authority)
	default:
		return fmt.Sprintf("Take this action through %s. Consult official channels for detailed steps.", authority)
	}
}
