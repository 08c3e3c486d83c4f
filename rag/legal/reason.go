package legal

import (
	"context"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
)

const noEvidenceExplanation = "No relevant legal documents were found to base reasoning on."

// reasonStep explains the retrieved law in plain language, bounded to the evidence.
type reasonStep struct{ *deps }

func (s *reasonStep) Name() StepName  { return StepReason }
func (s *reasonStep) Writes() []Slice { return []Slice{SliceExplanation} }

func (s *reasonStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	evidence := reasoningContext(st.Statutes, st.Cases)
	if evidence == "" {
		st.Explanation = noEvidenceExplanation
		return AgentResult{
			Result:    st.Explanation,
			Reasoning: "No retrieved documents available for reasoning",
			TierUsed:  TierRule,
		}, nil
	}

	query := st.query()
	nStatutes, nCases := len(st.Statutes), len(st.Cases)
	res := Resolve(ctx,
		func() string {
			return fmt.Sprintf("Based on the %d retrieved statutes and %d similar cases, here are the relevant legal provisions that apply to your query. Please review the documents above for specific details.",
				nStatutes, nCases)
		},
		Attempt[string]{Tier: TierModel, Run: func(ctx context.Context) Outcome[string] {
			if !s.llm.Available() {
				return None[string](errorskg.ErrUnavailable)
			}
			text, err := s.llm.Try(ctx, generation.Request{
				System:      s.cfg.ReasoningPrompt,
				Prompt:      reasoningUserPrompt(query, evidence),
				Temperature: 0.2,
				MaxTokens:   1500,
			})
			if err != nil {
				return None[string](err)
			}
			return Some(text)
		}},
	)
	if len(res.Failures) > 0 {
		s.logger.Warn("using fallback explanation", "failures", len(res.Failures))
	}
	st.Explanation = res.Value

	return AgentResult{
		Result:         res.Value,
		Confidence:     evidenceConfidence(st.Statutes, st.Cases),
		Reasoning:      "Generated retrieval-bounded legal reasoning via " + res.Tier.String() + " tier",
		TierUsed:       res.Tier,
		RetrievedCount: nStatutes + nCases,
	}, nil
}

func reasoningUserPrompt(query, evidence string) string {
	return fmt.Sprintf(`User Query: %s

Retrieved Legal Documents:
%s

Based ONLY on the retrieved documents above, provide:
1. A clear explanation of relevant legal provisions
2. How they apply to the user's query
3. What information is missing or unclear
4. Citations to specific statutes/cases used

Remember: Only use information from the retrieved documents. Do not make up or assume legal provisions.`, query, evidence)
}

func reasoningContext(statutes []Statute, cases []CaseAnalysis) string {
	var parts []string
	if len(statutes) > 0 {
		parts = append(parts, "=== STATUTES ===")
		for i, s := range statutes {
			if i == 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%d. %s - Section %s\n   %s...",
				i+1, firstNonEmpty(s.ActName, s.Title, "Unknown Act"), firstNonEmpty(s.Section, "N/A"), clip(s.Content, 300)))
		}
	}
	if len(cases) > 0 {
		parts = append(parts, "\n=== SIMILAR CASES ===")
		for i, c := range cases {
			if i == 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%d. %s (%s)\n   Court: %s\n   Summary: %s...",
				i+1, firstNonEmpty(c.CaseName, "Unknown Case"), firstNonEmpty(c.Year, "N/A"),
				firstNonEmpty(c.Court, "N/A"), clip(firstNonEmpty(c.Summary, c.CaseContext), 300)))
		}
	}
	return strings.Join(parts, "\n")
}

// evidenceConfidence is the mean retrieval score of the evidence, capped at 1.
func evidenceConfidence(statutes []Statute, cases []CaseAnalysis) float64 {
	n := len(statutes) + len(cases)
	if n == 0 {
		return 0
	}
	var sum float64
	for _, s := range statutes {
		sum += s.Score
	}
	for _, c := range cases {
		sum += c.Score
	}
	avg := sum / float64(n)
	if avg > 1 {
		return 1
	}
	return avg
}
