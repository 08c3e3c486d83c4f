package legal

import (
	"context"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/generation"
)

// Route selects which steps run for a query. Every route is a subsequence of
// the canonical order.
type Route string

const (
	RouteFull        Route = "full"
	RouteLegalInfo   Route = "legal_info"
	RouteCaseSearch  Route = "case_search"
	RouteCivicAction Route = "civic_action"
	RouteWebSearch   Route = "web_search"
	RouteSimpleQA    Route = "simple_qa"
)

// routeSteps lists the content steps of each route. safety_check and persist are
// added to every route.
var routeSteps = map[Route][]StepName{
	RouteLegalInfo:   {StepIntake, StepClassify, StepKnowledge, StepReason, StepSynthesize},
	RouteCaseSearch:  {StepIntake, StepClassify, StepCases, StepReason, StepSynthesize},
	RouteCivicAction: {StepIntake, StepClassify, StepKnowledge, StepRecommend, StepSynthesize},
	RouteWebSearch:   {StepIntake, StepClassify, StepWebSearch, StepReason, StepSynthesize},
	RouteSimpleQA:    {StepIntake, StepReason, StepSynthesize},
}

// routeOrder fixes tie-breaking for keyword scoring.
var routeOrder = []Route{RouteLegalInfo, RouteCaseSearch, RouteCivicAction, RouteWebSearch, RouteSimpleQA}

var routeKeywords = map[Route][]string{
	RouteLegalInfo:   {"law", "act", "section", "article", "rights", "legal", "constitution", "ipc", "crpc"},
	RouteCaseSearch:  {"case", "judgment", "verdict", "court", "precedent", "similar", "ruling"},
	RouteCivicAction: {"file", "complaint", "rti", "application", "how to", "procedure", "steps", "process", "lodge", "register"},
	RouteWebSearch:   {"latest", "recent", "current", "news", "update", "2024", "2025", "2026"},
	RouteSimpleQA:    {"what is", "define", "meaning", "explain", "who is"},
}

// Includes reports whether the route runs step.
func (r Route) Includes(step StepName) bool {
	if r == RouteFull || r == "" {
		return true
	}
	if step == StepSafety || step == StepPersist {
		return true
	}
	for _, s := range routeSteps[r] {
		if s == step {
			return true
		}
	}
	return false
}

func parseRoute(name string) (Route, bool) {
	r := Route(strings.ToLower(strings.TrimSpace(name)))
	_, ok := routeSteps[r]
	return r, ok
}

type routeDecision struct {
	Route  Route
	Reason string
}

type router struct {
	llm *generation.Gateway
}

func (r *router) route(ctx context.Context, query string) (Resolution[routeDecision], float64) {
	res := Resolve(ctx,
		func() routeDecision { return routeDecision{Route: keywordRoute(query), Reason: "keyword scoring"} },
		Attempt[routeDecision]{Tier: TierModel, Run: func(ctx context.Context) Outcome[routeDecision] {
			return r.modelRoute(ctx, query)
		}},
	)
	confidence := 0.7
	if res.Tier == TierModel {
		confidence = 0.9
	}
	return res, confidence
}

func (r *router) modelRoute(ctx context.Context, query string) Outcome[routeDecision] {
	if !r.llm.Available() {
		return None[routeDecision](errorskg.ErrUnavailable)
	}
	raw := r.llm.Generate(ctx, generation.Request{
		Prompt:      strings.ReplaceAll(routerPrompt, "{{query}}", query),
		Temperature: 0.1,
		MaxTokens:   100,
	})
	out, err := decodeJSON[struct {
		QueryType string `json:"query_type"`
		Reason    string `json:"reason"`
	}](raw)
	if err != nil {
		return None[routeDecision](err)
	}
	route, ok := parseRoute(out.QueryType)
	if !ok {
		return None[routeDecision](fmt.Errorf("unknown query type %q: %w", out.QueryType, errorskg.ErrInvalidOutput))
	}
	return Some(routeDecision{Route: route, Reason: out.Reason})
}

// keywordRoute scores each route by keyword hits; legal_info wins when nothing matches.
func keywordRoute(query string) Route {
	lower := strings.ToLower(query)
	best, bestScore := RouteLegalInfo, 0
	for _, route := range routeOrder {
		score := 0
		for _, kw := range routeKeywords[route] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = route, score
		}
	}
	return best
}
