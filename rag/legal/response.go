package legal

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

const maxEvidenceItems = 5

// Response is the structured answer to one query.
type Response struct {
	CaseID          string           `json:"case_id"`
	Query           string           `json:"query"`
	LegalDomain     string           `json:"legal_domain"`
	Domains         []string         `json:"domains"`
	Route           Route            `json:"route,omitempty"`
	Answer          Answer           `json:"llm_reasoned_answer"`
	Evidence        Evidence         `json:"retrieved_evidence"`
	SimilarCases    []CaseAnalysis   `json:"similar_case_analysis"`
	Recommendations []Recommendation `json:"civic_action_recommendations"`
	WebSources      []WebResult      `json:"web_sources,omitempty"`
	Safety          SafetyReport     `json:"safety"`
	Trace           Trace            `json:"agent_trace"`
	Confidence      float64          `json:"confidence"`
	Errors          []string         `json:"errors"`
	GeneratedAt     string           `json:"generated_at"`
}

// Answer is the narrative part of the response.
type Answer struct {
	Summary         string          `json:"summary"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	ReasoningSteps  []string        `json:"reasoning_steps"`
	Limitations     []string        `json:"limitations"`
	Disclaimers     []string        `json:"disclaimers"`
}

type Evidence struct {
	Statutes           []StatuteEvidence `json:"statutes"`
	Cases              []CaseEvidence    `json:"cases"`
	TotalEvidenceCount int               `json:"total_evidence_count"`
}

type StatuteEvidence struct {
	Title          string  `json:"title"`
	Summary        string  `json:"summary"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
}

type CaseEvidence struct {
	CaseName       string  `json:"case_name"`
	Year           string  `json:"year,omitempty"`
	Summary        string  `json:"summary"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
}

type Trace struct {
	Retrieval    string      `json:"retrieval"`
	CaseAnalysis string      `json:"case_analysis"`
	Steps        []StepTrace `json:"steps"`
}

func buildResponse(st *State, now time.Time) *Response {
	errs := st.Errors()
	score := Confidence(signalsFromState(st))

	resp := &Response{
		CaseID:          st.CaseID,
		Query:           st.Query,
		LegalDomain:     firstNonEmpty(st.PrimaryDomain, generalDomain),
		Domains:         nonNil(st.Domains),
		Route:           st.Route,
		SimilarCases:    nonNil(st.Cases),
		Recommendations: nonNil(st.Recommendations),
		WebSources:      st.WebResults,
		Safety:          safetyReportFor(st),
		Confidence:      score,
		Errors:          nonNil(errs),
		GeneratedAt:     now.UTC().Format(time.RFC3339),
		Evidence: Evidence{
			Statutes:           make([]StatuteEvidence, 0, len(st.Statutes)),
			Cases:              make([]CaseEvidence, 0, len(st.Cases)),
			TotalEvidenceCount: len(st.Statutes) + len(st.Cases),
		},
		Trace: Trace{
			Retrieval:    fmt.Sprintf("Retrieved %d statutes, %d cases", len(st.Statutes), len(st.Cases)),
			CaseAnalysis: fmt.Sprintf("Analyzed %d similar cases", len(st.Cases)),
			Steps:        orderedTrace(st.Trace()),
		},
	}

	for i, s := range st.Statutes {
		if i == maxEvidenceItems {
			break
		}
		resp.Evidence.Statutes = append(resp.Evidence.Statutes, StatuteEvidence{
			Title:          s.Title,
			Summary:        clip(s.Content, 300),
			Source:         s.Source,
			RelevanceScore: s.Score,
		})
	}
	for i, c := range st.Cases {
		if i == maxEvidenceItems {
			break
		}
		resp.Evidence.Cases = append(resp.Evidence.Cases, CaseEvidence{
			CaseName:       c.CaseName,
			Year:           c.Year,
			Summary:        clip(firstNonEmpty(c.Summary, c.Outcome), 300),
			Source:         c.Source,
			RelevanceScore: c.Score,
		})
	}

	summary := st.Answer
	if summary == "" {
		summary = templateAnswer(st)
	}
	resp.Answer = Answer{
		Summary:         summary,
		ConfidenceLevel: Level(score),
		ReasoningSteps:  reasoningSteps(resp.Trace.Steps),
		Limitations:     limitations(st, len(errs)),
		Disclaimers:     disclaimers(resp.Safety),
	}
	return resp
}

// safetyReportFor returns the safety step's report. A pipeline whose safety step
// failed is reported unsafe; a response built before any step ran has nothing to screen.
func safetyReportFor(st *State) SafetyReport {
	if res, ok := st.Result(StepSafety); ok {
		if report, ok := res.Result.(SafetyReport); ok {
			return buildSafetyReport(report.Issues)
		}
		return buildSafetyReport([]string{safetyNotRunIssue})
	}
	if len(st.Trace()) == 0 {
		return buildSafetyReport(nil)
	}
	return buildSafetyReport([]string{safetyNotRunIssue})
}

// orderedTrace sorts step records into canonical order; the router comes first.
func orderedTrace(in []StepTrace) []StepTrace {
	rank := make(map[StepName]int, len(canonicalOrder))
	for i, n := range canonicalOrder {
		rank[n] = i + 1
	}
	sort.SliceStable(in, func(i, j int) bool { return rank[in[i].Step] < rank[in[j].Step] })
	return in
}

func reasoningSteps(trace []StepTrace) []string {
	out := make([]string, 0, len(trace))
	for _, tr := range trace {
		line := fmt.Sprintf("%s (%s tier, confidence %.2f): %s", tr.Step, tr.Tier, tr.Confidence, tr.Reasoning)
		if tr.Error != "" {
			line = fmt.Sprintf("%s: failed (%s)", tr.Step, tr.Error)
		}
		out = append(out, line)
	}
	return out
}

func limitations(st *State, errCount int) []string {
	out := []string{"Information is limited to the indexed legal corpus and may not reflect recent amendments."}
	if len(st.Statutes) == 0 {
		out = append(out, "No statutes matched this query in the indexed corpus.")
	}
	if len(st.Cases) == 0 {
		out = append(out, "No similar cases were found.")
	}
	if st.AnswerTier != TierModel {
		out = append(out, "LLM synthesis unavailable; returning retrieval-grounded summary only.")
	}
	if errCount > 0 {
		out = append(out, fmt.Sprintf("%d pipeline step(s) degraded; see errors.", errCount))
	}
	return out
}

func disclaimers(report SafetyReport) []string {
	out := []string{firstNonEmpty(report.StandardDisclaimer, standardDisclaimer)}
	if report.SafetyDisclaimer != "" {
		out = append(out, report.SafetyDisclaimer)
	}
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// Unavailable is the apologetic response returned when the engine could not be built.
func Unavailable(err error) *Response {
	st := newState(uuid.NewString(), "", "")
	if err != nil {
		st.AddError(err)
	}
	resp := buildResponse(st, time.Now())
	resp.Confidence = 0
	resp.Answer.ConfidenceLevel = ConfidenceLow
	resp.Answer.Summary = "We're sorry, the legal information service is temporarily unavailable. Please try again later."
	resp.Answer.Limitations = []string{"The answering pipeline could not be initialised."}
	return resp
}

// rejected builds the response for a query that failed validation.
func rejected(st *State, err error, now time.Time) *Response {
	st.AddError(err)
	resp := buildResponse(st, now)
	resp.Confidence = 0
	resp.Answer.ConfidenceLevel = ConfidenceLow
	resp.Answer.Summary = "Please provide a non-empty legal question."
	resp.Answer.Limitations = []string{"The query was rejected before any retrieval ran."}
	return resp
}
