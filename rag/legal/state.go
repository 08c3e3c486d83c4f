package legal

import (
	"sync"
)

// State is the per-query record threaded through every step.
// Each typed field belongs to one step's write set; only the orchestrator
// bookkeeping (errors and per-step results) is shared and guarded by mu.
type State struct {
	CaseID string
	UserID string
	Query  string
	Route  Route

	// intake
	NormalizedQuery string
	Embedding       []float32

	// classify
	Domains                  []string
	PrimaryDomain            string
	ClassificationConfidence float64

	// retrieval stage
	Statutes   []Statute
	Cases      []CaseAnalysis
	WebResults []WebResult

	// reason
	Explanation string

	// recommend
	Recommendations []Recommendation

	// safety_check
	Safety SafetyReport

	// persist
	MemoryID string

	// synthesize
	Answer         string
	AnswerTier     Tier
	ReasoningSteps []string

	mu      sync.Mutex
	errors  []string
	results map[StepName]AgentResult
	trace   []StepTrace
}

// StepTrace is the observable record of one step invocation.
type StepTrace struct {
	Step           StepName `json:"step"`
	Tier           Tier     `json:"tier"`
	Confidence     float64  `json:"confidence"`
	RetrievedCount int      `json:"retrieved_count"`
	Reasoning      string   `json:"reasoning,omitempty"`
	DurationMS     int64    `json:"duration_ms"`
	Error          string   `json:"error,omitempty"`
}

func newState(caseID, userID, query string) *State {
	return &State{
		CaseID:        caseID,
		UserID:        userID,
		Query:         query,
		PrimaryDomain: generalDomain,
		Route:         RouteFull,
		results:       make(map[StepName]AgentResult),
	}
}

// AddError appends a non-fatal failure.
func (s *State) AddError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.errors = append(s.errors, err.Error())
	s.mu.Unlock()
}

// Errors returns a copy of the accumulated failures.
func (s *State) Errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.errors))
	copy(out, s.errors)
	return out
}

// Result returns the recorded output of a step.
func (s *State) Result(step StepName) (AgentResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[step]
	return r, ok
}

func (s *State) record(step StepName, res AgentResult, tr StepTrace) {
	s.mu.Lock()
	s.results[step] = res
	s.trace = append(s.trace, tr)
	s.mu.Unlock()
}

// Trace returns the step records in completion order.
func (s *State) Trace() []StepTrace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StepTrace, len(s.trace))
	copy(out, s.trace)
	return out
}

// query returns the cleaned query when intake has run, otherwise the raw one.
func (s *State) query() string {
	return firstNonEmpty(s.NormalizedQuery, s.Query)
}
