package legal

import (
	"github.com/sweetpotato0/nyaya/websearch"
)

// Tier identifies which strategy produced a step's output.
type Tier int

const (
	TierModel Tier = iota + 1
	TierHeuristic
	TierRule
)

func (t Tier) String() string {
	switch t {
	case TierModel:
		return "model"
	case TierHeuristic:
		return "heuristic"
	case TierRule:
		return "rule"
	default:
		return "unknown"
	}
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// StepName names a pipeline step.
type StepName string

const (
	StepRoute      StepName = "route"
	StepIntake     StepName = "intake"
	StepClassify   StepName = "classify"
	StepKnowledge  StepName = "retrieve_knowledge"
	StepCases      StepName = "retrieve_cases"
	StepWebSearch  StepName = "web_search"
	StepReason     StepName = "reason"
	StepRecommend  StepName = "recommend"
	StepSafety     StepName = "safety_check"
	StepPersist    StepName = "persist"
	StepSynthesize StepName = "synthesize"
)

// canonicalOrder is the only order steps ever run in.
var canonicalOrder = []StepName{
	StepIntake,
	StepClassify,
	StepKnowledge,
	StepCases,
	StepWebSearch,
	StepReason,
	StepRecommend,
	StepSafety,
	StepPersist,
	StepSynthesize,
}

// Slice is a named region of State owned by exactly one step.
type Slice int

const (
	SliceIntake Slice = iota + 1
	SliceClassification
	SliceStatutes
	SliceCases
	SliceWeb
	SliceExplanation
	SliceRecommendations
	SliceSafety
	SliceMemory
	SliceSynthesis
)

func (s Slice) String() string {
	switch s {
	case SliceIntake:
		return "intake"
	case SliceClassification:
		return "classification"
	case SliceStatutes:
		return "statutes"
	case SliceCases:
		return "cases"
	case SliceWeb:
		return "web_results"
	case SliceExplanation:
		return "explanation"
	case SliceRecommendations:
		return "recommendations"
	case SliceSafety:
		return "safety"
	case SliceMemory:
		return "memory"
	case SliceSynthesis:
		return "synthesis"
	default:
		return "unknown"
	}
}

// Statute is a retrieved statutory provision.
type Statute struct {
	Title        string  `json:"title"`
	Section      string  `json:"section,omitempty"`
	ActName      string  `json:"act_name,omitempty"`
	Content      string  `json:"content"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	Source       string  `json:"source"`
	Score        float64 `json:"score"`
}

// CaseAnalysis is a retrieved precedent broken into four explanatory fields.
type CaseAnalysis struct {
	CaseName         string  `json:"case_name"`
	Year             string  `json:"year,omitempty"`
	Court            string  `json:"court,omitempty"`
	Summary          string  `json:"summary,omitempty"`
	CaseContext      string  `json:"case_context"`
	WhatHappened     string  `json:"what_happened"`
	Outcome          string  `json:"outcome"`
	RelevanceToQuery string  `json:"relevance_to_query"`
	Source           string  `json:"source"`
	Score            float64 `json:"score"`
}

// Recommendation is one civic action the user can take. IsLegalAdvice is always false.
type Recommendation struct {
	Sequence             int      `json:"sequence"`
	Action               string   `json:"action"`
	ResponsibleAuthority string   `json:"responsible_authority"`
	WhyThisMatters       string   `json:"why_this_matters"`
	NextStep             string   `json:"next_step"`
	EstimatedTimeline    string   `json:"estimated_timeline,omitempty"`
	RequiredDocuments    []string `json:"required_documents,omitempty"`
	IsLegalAdvice        bool     `json:"is_legal_advice"`
}

// WebResult is a supplementary web source.
type WebResult = websearch.Result

// SafetyReport is the outcome of the safety check.
type SafetyReport struct {
	IsSafe             bool     `json:"is_safe"`
	Issues             []string `json:"issues"`
	SafetyDisclaimer   string   `json:"safety_disclaimer,omitempty"`
	StandardDisclaimer string   `json:"standard_disclaimer"`
}

// AgentResult records one step invocation.
type AgentResult struct {
	Result         any     `json:"-"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	TierUsed       Tier    `json:"tier_used"`
	RetrievedCount int     `json:"retrieved_count"`
}
