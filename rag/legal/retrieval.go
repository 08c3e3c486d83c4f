package legal

import (
	"context"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
	"github.com/sweetpotato0/nyaya/rag/preprocess"
	"github.com/sweetpotato0/nyaya/vector"
	"github.com/sweetpotato0/nyaya/websearch"
)

const modelCaseConfidence = 0.8

// knowledgeStep retrieves statutes for the primary domain.
type knowledgeStep struct{ *deps }

func (s *knowledgeStep) Name() StepName  { return StepKnowledge }
func (s *knowledgeStep) Writes() []Slice { return []Slice{SliceStatutes} }

func (s *knowledgeStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	vec, err := s.embedding(ctx, st)
	if err != nil {
		return AgentResult{}, errorskg.NewFault(errorskg.KindRetrieval, string(StepKnowledge), fmt.Errorf("embed query: %w", err))
	}
	hits := s.vectors.Search(ctx, vector.CollectionStatutes, vec, s.cfg.StatuteLimit, s.cfg.StatuteThreshold, st.PrimaryDomain)
	statutes := dedupStatutes(statutesFromHits(hits))
	st.Statutes = statutes

	confidence := 0.0
	if len(statutes) > 0 {
		confidence = statutes[0].Score
	}
	return AgentResult{
		Result:         statutes,
		Confidence:     confidence,
		Reasoning:      fmt.Sprintf("Retrieved %d statute(s) from corpus (domain filter %s)", len(statutes), st.PrimaryDomain),
		TierUsed:       TierHeuristic,
		RetrievedCount: len(statutes),
	}, nil
}

func statutesFromHits(hits []vector.ScoredPoint) []Statute {
	out := make([]Statute, 0, len(hits))
	for _, h := range hits {
		p := h.Payload
		title := firstNonEmpty(p.String("title"), p.String("act_name"), "Untitled provision")
		section := p.String("section")
		source := firstNonEmpty(p.String("source"), p.String("url"), p.String("citation"))
		if source == "" {
			source = title
			if section != "" {
				source += ", Section " + section
			}
		}
		out = append(out, Statute{
			Title:        title,
			Section:      section,
			ActName:      p.String("act_name"),
			Content:      p.String("content"),
			Jurisdiction: firstNonEmpty(p.String("jurisdiction"), "india"),
			Source:       source,
			Score:        h.Score,
		})
	}
	return out
}

// dedupStatutes keeps the first occurrence of each title/section pair.
func dedupStatutes(in []Statute) []Statute {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		key := strings.ToLower(strings.TrimSpace(s.Title)) + "|" + strings.ToLower(strings.TrimSpace(s.Section))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// casesStep retrieves similar precedents and explains each one.
type casesStep struct{ *deps }

func (s *casesStep) Name() StepName  { return StepCases }
func (s *casesStep) Writes() []Slice { return []Slice{SliceCases} }

func (s *casesStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	vec, err := s.embedding(ctx, st)
	if err != nil {
		return AgentResult{}, errorskg.NewFault(errorskg.KindRetrieval, string(StepCases), fmt.Errorf("embed query: %w", err))
	}
	hits := s.vectors.Search(ctx, vector.CollectionCaseLaw, vec, s.cfg.CaseLimit, s.cfg.CaseThreshold, st.PrimaryDomain)
	if len(hits) == 0 {
		st.Cases = nil
		return AgentResult{Reasoning: "no similar cases retrieved", TierUsed: TierRule}, nil
	}

	query := st.query()
	res := Resolve(ctx,
		func() []CaseAnalysis { return ruleCases(hits) },
		Attempt[[]CaseAnalysis]{Tier: TierModel, Run: func(ctx context.Context) Outcome[[]CaseAnalysis] {
			return s.modelTier(ctx, query, hits)
		}},
	)
	for _, f := range res.Failures {
		s.logger.Debug("case analysis tier failed", "error", f)
	}
	st.Cases = res.Value

	confidence := hits[0].Score
	if res.Tier == TierModel {
		confidence = modelCaseConfidence
	}
	return AgentResult{
		Result:         res.Value,
		Confidence:     confidence,
		Reasoning:      fmt.Sprintf("Identified %d similar case(s) with structured analysis using %s tier", len(res.Value), res.Tier),
		TierUsed:       res.Tier,
		RetrievedCount: len(res.Value),
	}, nil
}

type caseFields struct {
	CaseContext      string `json:"case_context"`
	WhatHappened     string `json:"what_happened"`
	Outcome          string `json:"outcome"`
	RelevanceToQuery string `json:"relevance_to_query"`
}

func (s *casesStep) modelTier(ctx context.Context, query string, hits []vector.ScoredPoint) Outcome[[]CaseAnalysis] {
	if !s.llm.Available() {
		return None[[]CaseAnalysis](errorskg.ErrUnavailable)
	}
	var b strings.Builder
	for i, h := range hits {
		p := h.Payload
		fmt.Fprintf(&b, "%d. Case: %s (%s)\n   Court: %s\n   Summary: %s\n   Similarity Score: %.2f\n",
			i+1,
			firstNonEmpty(p.String("case_name"), "Unknown"),
			firstNonEmpty(p.String("year"), "N/A"),
			firstNonEmpty(p.String("court"), "N/A"),
			clip(p.String("summary"), 300),
			h.Score,
		)
	}
	raw := s.llm.Generate(ctx, generation.Request{
		System: s.cfg.CasePrompt,
		Prompt: fmt.Sprintf("User Query: %s\n\nRetrieved Similar Cases:\n%s\nAnalyze each case and provide structured information. Return ONLY a JSON array.",
			query, b.String()),
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	fields, err := decodeJSON[[]caseFields](raw)
	if err != nil {
		return None[[]CaseAnalysis](err)
	}
	// Analyses are bound to retrieved cases by position; extra entries are dropped
	// so the model cannot introduce cases that were not retrieved.
	base := ruleCases(hits)
	used := 0
	for i := range base {
		if i >= len(*fields) {
			break
		}
		f := (*fields)[i]
		if strings.TrimSpace(f.CaseContext) == "" && strings.TrimSpace(f.Outcome) == "" {
			continue
		}
		base[i].CaseContext = firstNonEmpty(f.CaseContext, base[i].CaseContext)
		base[i].WhatHappened = firstNonEmpty(f.WhatHappened, base[i].WhatHappened)
		base[i].Outcome = firstNonEmpty(f.Outcome, base[i].Outcome)
		base[i].RelevanceToQuery = firstNonEmpty(f.RelevanceToQuery, base[i].RelevanceToQuery)
		used++
	}
	if used == 0 {
		return None[[]CaseAnalysis](fmt.Errorf("no usable case analysis: %w", errorskg.ErrInvalidOutput))
	}
	return Some(base)
}

// ruleCases extracts the four analysis fields from payload text.
func ruleCases(hits []vector.ScoredPoint) []CaseAnalysis {
	out := make([]CaseAnalysis, 0, len(hits))
	for _, h := range hits {
		p := h.Payload
		name := firstNonEmpty(p.String("case_name"), "Unknown")
		out = append(out, CaseAnalysis{
			CaseName:         name,
			Year:             p.String("year"),
			Court:            p.String("court"),
			Summary:          p.String("summary"),
			CaseContext:      caseContext(p),
			WhatHappened:     caseAction(p),
			Outcome:          caseOutcome(p),
			RelevanceToQuery: caseRelevance(name, h.Score),
			Source:           firstNonEmpty(p.String("citation"), p.String("source"), name),
			Score:            h.Score,
		})
	}
	return out
}

func caseContext(p vector.Payload) string {
	if v := firstNonEmpty(p.String("context"), p.String("issue"), p.String("facts")); v != "" {
		return clip(v, 200)
	}
	if summary := p.String("summary"); summary != "" {
		return clip(summary, 200)
	}
	return "Issue not specified"
}

func caseAction(p vector.Payload) string {
	if v := firstNonEmpty(p.String("action"), p.String("proceedings"), p.String("relief_sought")); v != "" {
		return clip(v, 250)
	}
	summary := []rune(p.String("summary"))
	if len(summary) > 200 {
		end := 350
		if len(summary) < end {
			end = len(summary)
		}
		return string(summary[100:end])
	}
	return "Actions not detailed in record"
}

func caseOutcome(p vector.Payload) string {
	if v := firstNonEmpty(p.String("outcome"), p.String("judgment"), p.String("ruling"), p.String("decision")); v != "" {
		return clip(v, 250)
	}
	summary := []rune(p.String("summary"))
	if len(summary) > 300 {
		return string(summary[len(summary)-250:])
	}
	return "Outcome not specified"
}

func caseRelevance(name string, score float64) string {
	level := "Potentially relevant"
	switch {
	case score > 0.85:
		level = "Highly relevant"
	case score > 0.70:
		level = "Moderately relevant"
	}
	return fmt.Sprintf("%s (%.2f). Similar because: %s involves comparable legal principles. Can help understand potential precedents and outcomes.",
		level, score, name)
}

// webStep fetches supplementary sources from the configured web search provider.
type webStep struct{ *deps }

func (s *webStep) Name() StepName  { return StepWebSearch }
func (s *webStep) Writes() []Slice { return []Slice{SliceWeb} }

func (s *webStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	if s.web == nil {
		return AgentResult{Reasoning: "web search not configured", TierUsed: TierRule}, nil
	}
	text := st.query()
	if st.PrimaryDomain != "" && st.PrimaryDomain != generalDomain {
		text += " " + strings.ReplaceAll(st.PrimaryDomain, "_", " ")
	}
	results, err := s.web.Search(ctx, websearch.Query{
		Text:           text + " Indian law",
		MaxResults:     s.cfg.WebMaxResults,
		IncludeDomains: s.cfg.WebDomains,
	})
	if err != nil {
		return AgentResult{}, errorskg.NewFault(errorskg.KindRetrieval, string(StepWebSearch), err)
	}
	cleaned := make([]WebResult, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		r.Content = preprocess.StripHTML(r.Content)
		r.Score = vector.ClampScore(r.Score)
		cleaned = append(cleaned, r)
		if len(cleaned) == s.cfg.WebMaxResults {
			break
		}
	}
	st.WebResults = cleaned

	confidence := 0.0
	if len(cleaned) > 0 {
		confidence = cleaned[0].Score
	}
	return AgentResult{
		Result:         cleaned,
		Confidence:     confidence,
		Reasoning:      fmt.Sprintf("Retrieved %d web source(s)", len(cleaned)),
		TierUsed:       TierHeuristic,
		RetrievedCount: len(cleaned),
	}, nil
}
