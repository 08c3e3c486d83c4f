package legal

import (
	"context"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
)

const modelSynthesisConfidence = 0.9

// synthesizeStep merges every piece of evidence into one narrative answer.
type synthesizeStep struct{ *deps }

func (s *synthesizeStep) Name() StepName  { return StepSynthesize }
func (s *synthesizeStep) Writes() []Slice { return []Slice{SliceSynthesis} }

func (s *synthesizeStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	res := Resolve(ctx,
		func() string { return templateAnswer(st) },
		Attempt[string]{Tier: TierModel, Run: func(ctx context.Context) Outcome[string] {
			if !s.llm.Available() {
				return None[string](errorskg.ErrUnavailable)
			}
			text, err := s.llm.Try(ctx, generation.Request{
				System:      s.cfg.SynthesisPrompt,
				Prompt:      synthesisUserPrompt(st),
				Temperature: 0.3,
				MaxTokens:   2000,
			})
			if err != nil {
				return None[string](errorskg.NewFault(errorskg.KindSynthesis, string(StepSynthesize), err))
			}
			return Some(text)
		}},
	)
	if len(res.Failures) > 0 && s.llm.Available() {
		s.logger.Warn("synthesis fell back to template", "case_id", st.CaseID)
	}
	st.Answer = res.Value
	st.AnswerTier = res.Tier

	confidence := evidenceConfidence(st.Statutes, st.Cases)
	if res.Tier == TierModel {
		confidence = modelSynthesisConfidence
	}
	return AgentResult{
		Result:         res.Value,
		Confidence:     confidence,
		Reasoning:      "Unified answer assembled via " + res.Tier.String() + " tier",
		TierUsed:       res.Tier,
		RetrievedCount: len(st.Statutes) + len(st.Cases) + len(st.WebResults),
	}, nil
}

func synthesisUserPrompt(st *State) string {
	parts := []string{
		"=== USER QUERY ===",
		st.query(),
		"",
		"=== LEGAL DOMAIN CLASSIFICATION ===",
		"Primary Domain: " + firstNonEmpty(st.PrimaryDomain, generalDomain),
	}
	if len(st.Domains) > 0 {
		parts = append(parts, "All Domains: "+strings.Join(st.Domains, ", "))
	} else {
		parts = append(parts, "All Domains: Not classified")
	}

	parts = append(parts, "", "=== RETRIEVED STATUTES ===")
	if len(st.Statutes) == 0 {
		parts = append(parts, "No relevant statutes found.")
	}
	for i, s := range st.Statutes {
		if i == 5 {
			break
		}
		parts = append(parts, fmt.Sprintf("%d. %s - Section %s\n   Source: %s\n   %s...",
			i+1, s.Title, firstNonEmpty(s.Section, "N/A"), s.Source, clip(s.Content, 300)))
	}

	parts = append(parts, "", "=== SIMILAR CASES ===")
	if len(st.Cases) == 0 {
		parts = append(parts, "No similar cases found.")
	}
	for i, c := range st.Cases {
		if i == 5 {
			break
		}
		parts = append(parts, fmt.Sprintf("%d. %s (%s)\n   Source: %s\n   Context: %s...\n   Outcome: %s...",
			i+1, c.CaseName, firstNonEmpty(c.Year, "N/A"), c.Source, clip(c.CaseContext, 200), clip(c.Outcome, 200)))
	}

	parts = append(parts, "", "=== PRELIMINARY EXPLANATION ===", firstNonEmpty(st.Explanation, "No explanation generated yet."))

	parts = append(parts, "", "=== CIVIC ACTION RECOMMENDATIONS ===")
	if len(st.Recommendations) == 0 {
		parts = append(parts, "No recommendations generated.")
	}
	for i, r := range st.Recommendations {
		if i == 5 {
			break
		}
		parts = append(parts, fmt.Sprintf("%d. %s\n   Authority: %s\n   Why: %s...",
			r.Sequence, r.Action, r.ResponsibleAuthority, clip(r.WhyThisMatters, 150)))
	}

	if len(st.WebResults) > 0 {
		parts = append(parts, "", "=== ADDITIONAL WEB SOURCES & RECENT UPDATES ===")
		for i, w := range st.WebResults {
			if i == 5 {
				break
			}
			parts = append(parts, fmt.Sprintf("%d. %s\n   Source: %s\n   Content: %s...",
				i+1, firstNonEmpty(w.Title, "Unknown"), w.URL, clip(w.Content, 300)))
		}
	}

	parts = append(parts, "", "=== TASK ===", synthesisTask)
	return strings.Join(parts, "\n")
}

// templateAnswer assembles the answer from evidence counts and titles only.
func templateAnswer(st *State) string {
	parts := []string{fmt.Sprintf("Based on your query: '%s'", st.query()), ""}
	if len(st.Domains) > 0 {
		parts = append(parts, "This query relates to: "+strings.Join(st.Domains, ", "))
	}

	parts = append(parts,
		"",
		"=== RETRIEVED INFORMATION ===",
		fmt.Sprintf("• Found %d relevant statute(s)", len(st.Statutes)),
		fmt.Sprintf("• Found %d similar case(s)", len(st.Cases)),
		fmt.Sprintf("• Generated %d recommendation(s)", len(st.Recommendations)),
	)

	if st.Explanation != "" {
		parts = append(parts, "", "=== EXPLANATION ===", st.Explanation)
	}
	if len(st.Statutes) > 0 {
		parts = append(parts, "", "=== KEY STATUTES ===")
		for i, s := range st.Statutes {
			if i == 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%d. %s - Section %s", i+1, s.Title, firstNonEmpty(s.Section, "N/A")))
		}
	}
	if len(st.Cases) > 0 {
		parts = append(parts, "", "=== SIMILAR CASES ===")
		for i, c := range st.Cases {
			if i == 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%d. %s (%s)", i+1, c.CaseName, firstNonEmpty(c.Year, "N/A")))
		}
	}
	if len(st.Recommendations) > 0 {
		parts = append(parts, "", "=== RECOMMENDED ACTIONS ===")
		for i, r := range st.Recommendations {
			if i == 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, r.Action))
		}
	}

	parts = append(parts, "", "=== IMPORTANT DISCLAIMER ===", fallbackDisclaimer)
	return strings.Join(parts, "\n")
}
