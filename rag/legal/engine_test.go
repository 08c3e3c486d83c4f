package legal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sweetpotato0/nyaya/contrib/embedder/hashing"
	"github.com/sweetpotato0/nyaya/contrib/vector/inmemory"
	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/memory"
	memstore "github.com/sweetpotato0/nyaya/memory/store"
	"github.com/sweetpotato0/nyaya/pkg/logging"
	"github.com/sweetpotato0/nyaya/vector"
	"github.com/sweetpotato0/nyaya/websearch"
)

const rtiQuery = "How do I file an RTI application?"

func newTestEngine(t *testing.T, d Dependencies, opts ...Option) *Engine {
	t.Helper()
	if d.Embedder == nil {
		d.Embedder = keywordEmbedder{}
	}
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	e, err := New(d, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func stepTrace(t *testing.T, resp *Response, step StepName) StepTrace {
	t.Helper()
	for _, tr := range resp.Trace.Steps {
		if tr.Step == step {
			return tr
		}
	}
	t.Fatalf("step %s missing from trace %+v", step, resp.Trace.Steps)
	return StepTrace{}
}

func stepNames(resp *Response) []StepName {
	out := make([]StepName, 0, len(resp.Trace.Steps))
	for _, tr := range resp.Trace.Steps {
		out = append(out, tr.Step)
	}
	return out
}

type failingWeb struct{}

func (failingWeb) Search(context.Context, websearch.Query) ([]websearch.Result, error) {
	return nil, errors.New("web search quota exceeded")
}

type staticWeb struct{ results []websearch.Result }

func (s staticWeb) Search(context.Context, websearch.Query) ([]websearch.Result, error) {
	return s.results, nil
}

type failingMemory struct{}

func (failingMemory) Save(context.Context, *memory.Record) error { return errors.New("disk full") }

func (failingMemory) Get(context.Context, string) (*memory.Record, error) {
	return nil, errorskg.ErrNotFound
}

func (failingMemory) Recent(context.Context, string, int) ([]*memory.Record, error) {
	return nil, errors.New("disk full")
}

func TestAskClassifiesFromTaxonomySearch(t *testing.T) {
	store := newFixtureStore().with(vector.CollectionTaxonomy,
		hit("t1", 0.6, vector.Payload{"domain": "civic_rights", "label": "Right to information"}))
	e := newTestEngine(t, Dependencies{Vectors: gatewayOver(store)})

	resp := e.Ask(context.Background(), Request{Query: rtiQuery})
	if resp.LegalDomain != "civic_rights" {
		t.Fatalf("expected civic_rights, got %q", resp.LegalDomain)
	}
	tr := stepTrace(t, resp, StepClassify)
	if tr.Tier != TierHeuristic || tr.Confidence != 0.6 {
		t.Fatalf("expected heuristic tier with confidence 0.6, got %s %v", tr.Tier, tr.Confidence)
	}
}

func TestAskClassifiesFromKeywordsWhenTaxonomyEmpty(t *testing.T) {
	e := newTestEngine(t, Dependencies{Vectors: gatewayOver(newFixtureStore())})

	resp := e.Ask(context.Background(), Request{Query: rtiQuery})
	if !strings.Contains(strings.Join(resp.Domains, ","), "civic_rights") {
		t.Fatalf("expected keyword fallback to include civic_rights, got %v", resp.Domains)
	}
	tr := stepTrace(t, resp, StepClassify)
	if tr.Tier != TierRule || tr.Confidence != ruleClassificationConfidence {
		t.Fatalf("expected rule tier, got %s %v", tr.Tier, tr.Confidence)
	}
}

func TestAskDegradesWhenEveryProviderIsDown(t *testing.T) {
	store := newFixtureStore()
	store.err = errors.New("connection refused")
	provider := newStubProvider()
	provider.err = errors.New("503 service unavailable")

	e := newTestEngine(t, Dependencies{
		Embedder:  failingEmbedder{},
		Vectors:   gatewayOver(store),
		Generator: gatewayFor(provider),
		Web:       failingWeb{},
		Memory:    failingMemory{},
	})

	resp := e.Ask(context.Background(), Request{Query: rtiQuery})
	if resp == nil {
		t.Fatalf("expected a response")
	}
	if len(resp.Answer.Disclaimers) == 0 {
		t.Fatalf("expected disclaimers")
	}
	if resp.Evidence.TotalEvidenceCount != 0 {
		t.Fatalf("expected no evidence, got %d", resp.Evidence.TotalEvidenceCount)
	}
	if resp.Answer.ConfidenceLevel != ConfidenceLow {
		t.Fatalf("expected low confidence, got %s (%v)", resp.Answer.ConfidenceLevel, resp.Confidence)
	}
	if len(resp.Errors) == 0 {
		t.Fatalf("expected recorded errors")
	}
	if !strings.Contains(resp.Answer.Summary, "=== IMPORTANT DISCLAIMER ===") {
		t.Fatalf("expected template answer, got %q", resp.Answer.Summary)
	}
	if stepTrace(t, resp, StepSynthesize).Tier != TierRule {
		t.Fatalf("synthesis must fall back to the template")
	}
	var persistFailed bool
	for _, msg := range resp.Errors {
		if strings.HasPrefix(msg, "persist error:") {
			persistFailed = true
		}
	}
	if !persistFailed {
		t.Fatalf("expected persist failure in %v", resp.Errors)
	}
}

func TestAskUsesModelTiersWhenGenerationWorks(t *testing.T) {
	provider := newStubProvider().
		on("You are a legal query", `{"domains":["civic_rights","astrology"]}`).
		on("You are a legal case", "```json\n"+`[{"case_context":"Exam answer sheets were sought.","what_happened":"A student filed an RTI request.","outcome":"Inspection was allowed.","relevance_to_query":"Shows the reach of the RTI Act."},{"case_context":"An invented case","outcome":"Invented"}]`+"\n```").
		on("You are a legal information assistant", "Section 6 of the Right to Information Act, 2005 lets any citizen request information in writing.").
		on("You are an expert civic", `[{"action":"File RTI Application","responsible_authority":"PIO"},{"action":"file rti application"},{"action":"First Appeal"}]`).
		on("You review", `{"issues":[]}`).
		on("You are an expert legal information synthesis", "EXECUTIVE SUMMARY: You can request information under the RTI Act.")
	store := legalFixture()
	mem := memstore.NewInMemoryStore()

	e := newTestEngine(t, Dependencies{
		Vectors:   gatewayOver(store),
		Generator: gatewayFor(provider),
		Memory:    mem,
	})
	resp := e.Ask(context.Background(), Request{Query: rtiQuery, UserID: "citizen-1"})

	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	if resp.LegalDomain != "civic_rights" || stepTrace(t, resp, StepClassify).Tier != TierModel {
		t.Fatalf("expected model classification, got %q", resp.LegalDomain)
	}
	if resp.Answer.Summary != "EXECUTIVE SUMMARY: You can request information under the RTI Act." {
		t.Fatalf("unexpected summary %q", resp.Answer.Summary)
	}
	for _, s := range resp.Evidence.Statutes {
		if s.Source == "" {
			t.Fatalf("statute %q has no source", s.Title)
		}
	}
	if len(resp.SimilarCases) != 1 {
		t.Fatalf("model must not add cases beyond retrieval, got %d", len(resp.SimilarCases))
	}
	c := resp.SimilarCases[0]
	if c.CaseContext != "Exam answer sheets were sought." || c.Source != "(2011) 8 SCC 497" || c.Year != "2011" {
		t.Fatalf("unexpected case analysis %+v", c)
	}

	var actions []string
	for i, r := range resp.Recommendations {
		actions = append(actions, r.Action)
		if r.Sequence != i+1 || r.IsLegalAdvice {
			t.Fatalf("bad recommendation %+v", r)
		}
	}
	if diff := cmp.Diff([]string{"File RTI Application", "First Appeal"}, actions); diff != "" {
		t.Fatalf("recommendations mismatch (-want +got):\n%s", diff)
	}
	if !resp.Safety.IsSafe {
		t.Fatalf("expected safe answer, issues %v", resp.Safety.Issues)
	}
	if resp.Answer.ConfidenceLevel != ConfidenceMedium {
		t.Fatalf("expected medium confidence, got %s (%v)", resp.Answer.ConfidenceLevel, resp.Confidence)
	}

	if store.upsertCount(vector.CollectionCaseMemory) != 1 || store.upsertCount(vector.CollectionUserMemory) != 1 {
		t.Fatalf("expected one upsert per memory collection")
	}
	rec, err := e.Recall(context.Background(), resp.CaseID)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if rec.Query != rtiQuery || rec.UserID != "citizen-1" || len(rec.Statutes) != 2 || rec.Source != memory.SourceUserQuery {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestAskFallsBackToTemplateWithoutGeneration(t *testing.T) {
	e := newTestEngine(t, Dependencies{Vectors: gatewayOver(legalFixture())})

	resp := e.Ask(context.Background(), Request{Query: rtiQuery})
	summary := resp.Answer.Summary
	for _, want := range []string{
		"Based on your query: '" + rtiQuery + "'",
		"• Found 2 relevant statute(s)",
		"• Found 1 similar case(s)",
		"• Generated 2 recommendation(s)",
		"1. Right to Information Act, 2005 - Section 6",
		"1. CBSE v. Aditya Bandopadhyay (2011)",
		"=== IMPORTANT DISCLAIMER ===",
		"Based on the 2 retrieved statutes and 1 similar cases",
	} {
		if !strings.Contains(summary, want) {
			t.Fatalf("template answer missing %q:\n%s", want, summary)
		}
	}
	if stepTrace(t, resp, StepSynthesize).Tier != TierRule {
		t.Fatalf("expected rule tier synthesis")
	}
	if !strings.Contains(strings.Join(resp.Answer.Limitations, "\n"), "LLM synthesis unavailable") {
		t.Fatalf("expected limitation about synthesis, got %v", resp.Answer.Limitations)
	}
	if resp.Trace.Retrieval != "Retrieved 2 statutes, 1 cases" {
		t.Fatalf("unexpected retrieval trace %q", resp.Trace.Retrieval)
	}
}

func TestAskRejectsEmptyQuery(t *testing.T) {
	e := newTestEngine(t, Dependencies{Vectors: gatewayOver(newFixtureStore())})

	for _, q := range []string{"", "   \n\t"} {
		resp := e.Ask(context.Background(), Request{Query: q})
		if resp == nil || resp.CaseID == "" {
			t.Fatalf("expected response with case id")
		}
		if resp.Confidence != 0 || resp.Answer.ConfidenceLevel != ConfidenceLow {
			t.Fatalf("expected zero confidence, got %v", resp.Confidence)
		}
		if len(resp.Errors) != 1 || !strings.HasPrefix(resp.Errors[0], "validation:") {
			t.Fatalf("expected validation error, got %v", resp.Errors)
		}
		if len(resp.Trace.Steps) != 0 {
			t.Fatalf("no step may run for an invalid query")
		}
		if len(resp.Answer.Disclaimers) == 0 {
			t.Fatalf("expected disclaimers")
		}
	}
}

func TestAskIsolatesPanickingSteps(t *testing.T) {
	e := newTestEngine(t, Dependencies{Embedder: panickingEmbedder{}, Vectors: gatewayOver(newFixtureStore())})

	resp := e.Ask(context.Background(), Request{Query: rtiQuery})
	if resp == nil {
		t.Fatalf("expected response")
	}
	if len(resp.Errors) == 0 || !strings.HasPrefix(resp.Errors[0], "intake error: panic: embedder exploded") {
		t.Fatalf("expected intake panic to be recorded, got %v", resp.Errors)
	}
	if stepTrace(t, resp, StepSynthesize).Error != "" {
		t.Fatalf("synthesis must still succeed")
	}
}

func TestAskFallsThroughToRulesAfterDeadline(t *testing.T) {
	e := newTestEngine(t,
		Dependencies{Vectors: gatewayOver(legalFixture()), Generator: gatewayFor(blockingProvider{})},
		WithQueryTimeout(50*time.Millisecond),
	)

	start := time.Now()
	resp := e.Ask(context.Background(), Request{Query: rtiQuery})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Ask blocked for %s", elapsed)
	}
	for _, tr := range resp.Trace.Steps {
		if tr.Tier == TierModel {
			t.Fatalf("step %s used the model after the deadline", tr.Step)
		}
	}
	if stepTrace(t, resp, StepPersist).Error != "" {
		t.Fatalf("persist must run past the query deadline")
	}
	if !strings.Contains(resp.Answer.Summary, "=== IMPORTANT DISCLAIMER ===") {
		t.Fatalf("expected template answer")
	}
}

func TestAskRoutesToCivicActionSubsequence(t *testing.T) {
	e := newTestEngine(t, Dependencies{Vectors: gatewayOver(legalFixture())}, WithRouting(true))

	resp := e.Ask(context.Background(), Request{Query: "What is the procedure to file a complaint?"})
	if resp.Route != RouteCivicAction {
		t.Fatalf("expected civic_action route, got %s", resp.Route)
	}
	want := []StepName{StepRoute, StepIntake, StepClassify, StepKnowledge, StepRecommend, StepSafety, StepPersist, StepSynthesize}
	if diff := cmp.Diff(want, stepNames(resp)); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestAskRunsWebSearchInRetrievalStage(t *testing.T) {
	web := staticWeb{results: []websearch.Result{
		{Title: "RTI portal", URL: "https://rtionline.gov.in", Content: "<p>Apply <b>online</b></p>", Score: 0.9},
		{Title: "No url", Content: "dropped"},
	}}
	e := newTestEngine(t, Dependencies{Vectors: gatewayOver(legalFixture()), Web: web})

	if diff := cmp.Diff([]StepName{StepKnowledge, StepCases, StepWebSearch}, e.Steps()[2]); diff != "" {
		t.Fatalf("retrieval stage mismatch (-want +got):\n%s", diff)
	}
	resp := e.Ask(context.Background(), Request{Query: rtiQuery})
	if len(resp.WebSources) != 1 || resp.WebSources[0].Content != "Apply online" {
		t.Fatalf("unexpected web sources %+v", resp.WebSources)
	}
	if resp.Evidence.TotalEvidenceCount != 3 {
		t.Fatalf("expected 3 evidence items, got %d", resp.Evidence.TotalEvidenceCount)
	}
}

func TestSimilarMemoriesFindsPersistedCase(t *testing.T) {
	emb := hashing.New(vector.DefaultDimension)
	e := newTestEngine(t, Dependencies{Embedder: emb, Vectors: gatewayOver(inmemory.New())})
	if err := e.EnsureCollections(context.Background()); err != nil {
		t.Fatalf("EnsureCollections: %v", err)
	}

	resp := e.Ask(context.Background(), Request{Query: rtiQuery})
	hits, err := e.SimilarMemories(context.Background(), rtiQuery, 3)
	if err != nil {
		t.Fatalf("SimilarMemories: %v", err)
	}
	if len(hits) != 1 || hits[0].CaseID != resp.CaseID || hits[0].Query != rtiQuery {
		t.Fatalf("unexpected memories %+v", hits)
	}
	if _, err := e.Recall(context.Background(), resp.CaseID); !errors.Is(err, errorskg.ErrUnavailable) {
		t.Fatalf("Recall without memory store should be unavailable, got %v", err)
	}
}

type writesStep struct {
	name   StepName
	writes []Slice
}

func (w writesStep) Name() StepName  { return w.name }
func (w writesStep) Writes() []Slice { return w.writes }
func (w writesStep) Run(context.Context, *State) (AgentResult, error) {
	return AgentResult{}, nil
}

func TestVerifyStagesRejectsOverlappingWrites(t *testing.T) {
	ok := []stage{{
		writesStep{StepKnowledge, []Slice{SliceStatutes}},
		writesStep{StepCases, []Slice{SliceCases}},
	}}
	if err := verifyStages(ok); err != nil {
		t.Fatalf("disjoint stage rejected: %v", err)
	}
	clash := []stage{{
		writesStep{StepKnowledge, []Slice{SliceStatutes}},
		writesStep{StepCases, []Slice{SliceCases, SliceStatutes}},
	}}
	if err := verifyStages(clash); err == nil {
		t.Fatalf("expected overlapping writes to be rejected")
	}
	crossStage := []stage{
		{writesStep{StepReason, []Slice{SliceExplanation}}},
		{writesStep{StepSynthesize, []Slice{SliceExplanation}}},
	}
	if err := verifyStages(crossStage); err == nil {
		t.Fatalf("expected a slice owned by two stages to be rejected")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Dependencies{Vectors: gatewayOver(newFixtureStore())}); !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Fatalf("expected invalid input without embedder, got %v", err)
	}
	if _, err := New(Dependencies{Embedder: keywordEmbedder{}}); !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Fatalf("expected invalid input without vector gateway, got %v", err)
	}
}

func TestUnavailableResponse(t *testing.T) {
	resp := Unavailable(errors.New("postgres unreachable"))
	if resp.CaseID == "" || resp.Answer.ConfidenceLevel != ConfidenceLow || resp.Confidence != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.Errors) != 1 || resp.Errors[0] != "postgres unreachable" {
		t.Fatalf("unexpected errors %v", resp.Errors)
	}
	if len(resp.Answer.Disclaimers) == 0 {
		t.Fatalf("expected disclaimers")
	}
	if Unavailable(nil).CaseID == resp.CaseID {
		t.Fatalf("each unavailable response needs a fresh id")
	}
}

func TestAskCountsNoEvidenceExplanation(t *testing.T) {
	e := newTestEngine(t, Dependencies{Vectors: gatewayOver(newFixtureStore())})

	resp := e.Ask(context.Background(), Request{Query: rtiQuery})
	if diff := cmp.Diff([]string{"civic_rights"}, resp.Domains); diff != "" {
		t.Fatalf("domains mismatch (-want +got):\n%s", diff)
	}
	if resp.Evidence.TotalEvidenceCount != 0 {
		t.Fatalf("expected an empty corpus, got %d items", resp.Evidence.TotalEvidenceCount)
	}
	want := Confidence(Signals{HasDomain: true, Recommendations: len(resp.Recommendations), HasExplanation: true})
	if resp.Confidence != want || resp.Confidence < 0.5 {
		t.Fatalf("confidence = %v, want %v", resp.Confidence, want)
	}
}
