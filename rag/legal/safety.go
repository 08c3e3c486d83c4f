package legal

import (
	"context"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
)

// problematicPhrases mark advice, guarantees or litigation strategy.
var problematicPhrases = []string{
	"sue them",
	"file a lawsuit",
	"litigation strategy",
	"legal advice",
	"guaranteed win",
	"definitely illegal",
	"you should sue",
}

const safetyNotRunIssue = "Safety check did not run; review this answer with care."

// safetyStep screens the explanation and recommendations before synthesis.
type safetyStep struct{ *deps }

func (s *safetyStep) Name() StepName  { return StepSafety }
func (s *safetyStep) Writes() []Slice { return []Slice{SliceSafety} }

func (s *safetyStep) Run(ctx context.Context, st *State) (AgentResult, error) {
	explanation := st.Explanation
	recs := st.Recommendations
	res := Resolve(ctx,
		func() []string { return nil },
		Attempt[[]string]{Tier: TierModel, Run: func(ctx context.Context) Outcome[[]string] {
			return s.modelTier(ctx, explanation, recs)
		}},
	)

	// The phrase scan always runs; model findings can only add issues.
	issues := append(scanPhrases(explanation, recs), res.Value...)
	report := buildSafetyReport(issues)
	st.Safety = report

	confidence := 1.0
	if !report.IsSafe {
		confidence = 0.5
	}
	return AgentResult{
		Result:     report,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("Ethics check completed. Found %d issue(s).", len(report.Issues)),
		TierUsed:   res.Tier,
	}, nil
}

func (s *safetyStep) modelTier(ctx context.Context, explanation string, recs []Recommendation) Outcome[[]string] {
	if !s.llm.Available() {
		return None[[]string](errorskg.ErrUnavailable)
	}
	text := strings.TrimSpace(explanation + "\n" + recommendationText(recs))
	if text == "" {
		return None[[]string](errorskg.ErrInvalidInput)
	}
	raw := s.llm.Generate(ctx, generation.Request{
		System:      s.cfg.SafetyPrompt,
		Prompt:      "Text to review:\n" + text,
		Temperature: 0,
		MaxTokens:   300,
	})
	out, err := decodeJSON[struct {
		Issues []string `json:"issues"`
	}](raw)
	if err != nil {
		return None[[]string](err)
	}
	issues := make([]string, 0, len(out.Issues))
	for _, is := range out.Issues {
		if is = strings.TrimSpace(is); is != "" {
			issues = append(issues, "Reviewer flagged: "+is)
		}
	}
	return Some(issues)
}

// scanPhrases reports every problematic phrase found, case-insensitively.
func scanPhrases(explanation string, recs []Recommendation) []string {
	var issues []string
	lower := strings.ToLower(explanation)
	for _, p := range problematicPhrases {
		if strings.Contains(lower, p) {
			issues = append(issues, fmt.Sprintf("Found problematic phrase: '%s'", p))
		}
	}
	for _, r := range recs {
		combined := strings.ToLower(recommendationText([]Recommendation{r}))
		for _, p := range problematicPhrases {
			if strings.Contains(combined, p) {
				issues = append(issues, fmt.Sprintf("Problematic content in recommendation: '%s'", p))
			}
		}
	}
	return issues
}

func recommendationText(recs []Recommendation) string {
	parts := make([]string, 0, len(recs)*4)
	for _, r := range recs {
		parts = append(parts, r.Action, r.WhyThisMatters, r.NextStep, r.ResponsibleAuthority)
	}
	return strings.Join(parts, " ")
}

func buildSafetyReport(issues []string) SafetyReport {
	report := SafetyReport{
		IsSafe:             len(issues) == 0,
		Issues:             issues,
		StandardDisclaimer: standardDisclaimer,
	}
	if report.Issues == nil {
		report.Issues = []string{}
	}
	if !report.IsSafe {
		report.SafetyDisclaimer = safetyDisclaimer
	}
	return report
}
