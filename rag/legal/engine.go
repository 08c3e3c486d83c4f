package legal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
	"github.com/sweetpotato0/nyaya/memory"
	"github.com/sweetpotato0/nyaya/pkg/logging"
	"github.com/sweetpotato0/nyaya/pkg/telemetry"
	"github.com/sweetpotato0/nyaya/vector"
	"github.com/sweetpotato0/nyaya/websearch"
)

// Dependencies are the external collaborators of the engine. Embedder and
// Vectors are required; everything else is optional.
type Dependencies struct {
	Embedder  vector.Embedder
	Vectors   *vector.Gateway
	Generator *generation.Gateway
	Web       websearch.Provider
	Memory    memory.Store
}

// Request is one question to answer.
type Request struct {
	Query  string `json:"query"`
	UserID string `json:"user_id,omitempty"`
}

// Engine answers legal questions by running the step pipeline over a fresh State.
type Engine struct {
	cfg    *Config
	deps   *deps
	stages []stage
	router *router
	logger *slog.Logger
	tracer trace.Tracer
}

// New wires the engine. It fails only when required dependencies are missing
// or the step layout is inconsistent.
func New(d Dependencies, opts ...Option) (*Engine, error) {
	cfg := applyOptions(nil, opts)
	if d.Embedder == nil {
		return nil, fmt.Errorf("embedder is required: %w", errorskg.ErrInvalidInput)
	}
	if d.Vectors == nil {
		return nil, fmt.Errorf("vector gateway is required: %w", errorskg.ErrInvalidInput)
	}
	llm := d.Generator
	if llm == nil {
		llm = generation.NewGateway(nil)
	}
	logger := cfg.logger
	if logger == nil {
		logger = logging.WithComponent("legal_engine").With("engine", cfg.Name)
	}
	tracer := cfg.tracer
	if tracer == nil {
		tracer = telemetry.Tracer("github.com/sweetpotato0/nyaya/rag/legal")
	}

	shared := &deps{
		cfg:      cfg,
		embedder: d.Embedder,
		vectors:  d.Vectors,
		llm:      llm,
		web:      d.Web,
		memory:   d.Memory,
		logger:   logger,
	}
	steps := map[StepName]Step{
		StepIntake:     &intakeStep{shared},
		StepClassify:   &classifyStep{shared},
		StepKnowledge:  &knowledgeStep{shared},
		StepCases:      &casesStep{shared},
		StepReason:     &reasonStep{shared},
		StepRecommend:  &recommendStep{shared},
		StepSafety:     &safetyStep{shared},
		StepPersist:    &persistStep{shared},
		StepSynthesize: &synthesizeStep{shared},
	}
	if d.Web != nil {
		steps[StepWebSearch] = &webStep{shared}
	}
	stages := buildStages(steps)
	if err := verifyStages(stages); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		deps:   shared,
		stages: stages,
		router: &router{llm: llm},
		logger: logger,
		tracer: tracer,
	}
	logger.Info("legal engine initialised",
		"providers", llm.Providers(),
		"web_search", d.Web != nil,
		"memory", d.Memory != nil,
		"routing", cfg.Routing,
	)
	return e, nil
}

// Ask answers one query. It never returns nil and never panics; failures are
// reported in Response.Errors.
func (e *Engine) Ask(ctx context.Context, req Request) (resp *Response) {
	caseID := uuid.NewString()
	st := newState(caseID, strings.TrimSpace(req.UserID), req.Query)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("pipeline panic", "case_id", caseID, "panic", r)
			st.AddError(errorskg.NewFault(errorskg.KindStep, "pipeline", fmt.Errorf("panic: %v", r)))
			resp = buildResponse(st, e.cfg.now())
		}
	}()

	if strings.TrimSpace(req.Query) == "" {
		e.logger.Warn("rejected empty query", "case_id", caseID)
		return rejected(st, errorskg.Validation("query cannot be empty"), e.cfg.now())
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()
	ctx, span := telemetry.StartQuery(ctx, e.tracer, caseID, len(req.Query))

	e.logger.Info("pipeline run started", "case_id", caseID, "query", trimForLog(req.Query, 120))
	started := e.cfg.now()

	if e.cfg.Routing {
		e.route(ctx, st)
	}
	for _, stg := range e.stages {
		e.runStage(ctx, st, stg)
	}

	resp = buildResponse(st, e.cfg.now())
	span.SetAttributes(
		attribute.String("nyaya.domain", resp.LegalDomain),
		attribute.Float64("nyaya.confidence", resp.Confidence),
		attribute.Int("nyaya.errors", len(resp.Errors)),
	)
	telemetry.End(span, nil)
	e.logger.Info("pipeline run completed",
		"case_id", caseID,
		"domain", resp.LegalDomain,
		"evidence", resp.Evidence.TotalEvidenceCount,
		"confidence", resp.Confidence,
		"errors", len(resp.Errors),
		"elapsed", e.cfg.now().Sub(started),
	)
	return resp
}

func (e *Engine) route(ctx context.Context, st *State) {
	start := e.cfg.now()
	res, confidence := e.router.route(ctx, st.Query)
	st.Route = res.Value.Route
	st.record(StepRoute, AgentResult{
		Result:     res.Value,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("Classified as '%s' via %s tier", res.Value.Route, res.Tier),
		TierUsed:   res.Tier,
	}, StepTrace{
		Step:       StepRoute,
		Tier:       res.Tier,
		Confidence: confidence,
		Reasoning:  string(res.Value.Route),
		DurationMS: e.cfg.now().Sub(start).Milliseconds(),
	})
}

// runStage runs the routed steps of one stage, concurrently when there are several.
func (e *Engine) runStage(ctx context.Context, st *State, stg stage) {
	active := make([]Step, 0, len(stg))
	for _, s := range stg {
		if st.Route.Includes(s.Name()) {
			active = append(active, s)
		}
	}
	switch len(active) {
	case 0:
		return
	case 1:
		e.runStep(ctx, st, active[0])
		return
	}
	var g errgroup.Group
	for _, s := range active {
		g.Go(func() error {
			e.runStep(ctx, st, s)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) runStep(ctx context.Context, st *State, step Step) {
	name := step.Name()
	if name == StepPersist {
		// Persistence outlives the query deadline; it still has its own step timeout.
		ctx = context.WithoutCancel(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StepTimeout)
	defer cancel()
	ctx, span := telemetry.StartStep(ctx, e.tracer, st.CaseID, string(name))

	start := e.cfg.now()
	res, err := invoke(ctx, st, step)
	elapsed := e.cfg.now().Sub(start)

	tr := StepTrace{Step: name, DurationMS: elapsed.Milliseconds()}
	if err != nil {
		fault := asFault(name, err)
		st.AddError(fault)
		e.logger.Warn("step failed", "case_id", st.CaseID, "step", name, "error", err)
		res = AgentResult{TierUsed: TierRule, Reasoning: "step failed"}
		tr.Error = fault.Error()
	} else {
		e.logger.Debug("step completed", "case_id", st.CaseID, "step", name,
			"tier", res.TierUsed, "confidence", res.Confidence, "elapsed", elapsed)
	}
	if res.TierUsed == 0 {
		res.TierUsed = TierRule
	}
	tr.Tier = res.TierUsed
	tr.Confidence = res.Confidence
	tr.RetrievedCount = res.RetrievedCount
	tr.Reasoning = res.Reasoning

	telemetry.Annotate(span, res.TierUsed.String(), res.Confidence)
	telemetry.End(span, err)
	st.record(name, res, tr)
}

func invoke(ctx context.Context, st *State, step Step) (res AgentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step.Run(ctx, st)
}

func asFault(step StepName, err error) *errorskg.Fault {
	var f *errorskg.Fault
	if errors.As(err, &f) {
		if f.Step == "" {
			return errorskg.NewFault(f.Kind, string(step), f.Err)
		}
		return f
	}
	return errorskg.NewFault(errorskg.KindStep, string(step), err)
}

// Recall loads a stored interaction by case id.
func (e *Engine) Recall(ctx context.Context, caseID string) (*memory.Record, error) {
	if e.deps.memory == nil {
		return nil, fmt.Errorf("memory store not configured: %w", errorskg.ErrUnavailable)
	}
	if strings.TrimSpace(caseID) == "" {
		return nil, errorskg.Validation("case id cannot be empty")
	}
	return e.deps.memory.Get(ctx, strings.TrimSpace(caseID))
}

// Recent lists stored interactions, newest first.
func (e *Engine) Recent(ctx context.Context, userID string, limit int) ([]*memory.Record, error) {
	if e.deps.memory == nil {
		return nil, fmt.Errorf("memory store not configured: %w", errorskg.ErrUnavailable)
	}
	return e.deps.memory.Recent(ctx, userID, memory.Limit(limit))
}

// MemoryHit is a past interaction similar to a new query.
type MemoryHit struct {
	CaseID    string   `json:"case_id"`
	Query     string   `json:"query"`
	Domain    string   `json:"domain"`
	Domains   []string `json:"domains,omitempty"`
	Timestamp string   `json:"timestamp"`
	Score     float64  `json:"score"`
}

// SimilarMemories finds earlier cases close to query in the case memory collection.
func (e *Engine) SimilarMemories(ctx context.Context, query string, limit int) ([]MemoryHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errorskg.Validation("query cannot be empty")
	}
	vec, err := e.deps.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if limit <= 0 {
		limit = e.cfg.MemoryLimit
	}
	hits := e.deps.vectors.Search(ctx, vector.CollectionCaseMemory, vec, limit, e.cfg.MemoryThreshold, "")
	out := make([]MemoryHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, MemoryHit{
			CaseID:    firstNonEmpty(h.Payload.String("case_id"), h.ID),
			Query:     h.Payload.String("query"),
			Domain:    h.Payload.String("domain"),
			Domains:   h.Payload.Strings("domains"),
			Timestamp: h.Payload.String("timestamp"),
			Score:     h.Score,
		})
	}
	return out, nil
}

// EnsureCollections creates the engine's collections using the embedder dimension.
func (e *Engine) EnsureCollections(ctx context.Context) error {
	return e.deps.vectors.EnsureCollections(ctx, e.deps.embedder.Dimension())
}

// EnsureCollections idempotently creates every collection the engine uses.
func EnsureCollections(ctx context.Context, store vector.Store, dimension int) error {
	if dimension <= 0 {
		dimension = vector.DefaultDimension
	}
	return vector.NewGateway(store).EnsureCollections(ctx, dimension)
}

// Steps reports the step names in execution order, grouped by stage.
func (e *Engine) Steps() [][]StepName {
	out := make([][]StepName, len(e.stages))
	for i, stg := range e.stages {
		for _, s := range stg {
			out[i] = append(out[i], s.Name())
		}
	}
	return out
}
