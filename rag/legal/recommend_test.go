package legal

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sweetpotato0/nyaya/vector"
)

func TestRuleRecommendationsDeduplicateByAction(t *testing.T) {
	hits := []vector.ScoredPoint{
		hit("1", 0.9, vector.Payload{"action": "File RTI Application", "authority": "PIO"}),
		hit("2", 0.8, vector.Payload{"action": "  file rti application ", "authority": "Other"}),
		hit("3", 0.7, vector.Payload{"action": "First Appeal", "authority": "FAA"}),
		hit("4", 0.6, vector.Payload{"action": "FILE RTI APPLICATION"}),
		hit("5", 0.5, vector.Payload{"action": "Second Appeal", "authority": "Information Commission"}),
	}

	recs := ruleRecommendations(hits, 5)
	var actions []string
	for i, r := range recs {
		actions = append(actions, r.Action)
		if r.Sequence != i+1 {
			t.Fatalf("recommendation %d has sequence %d", i, r.Sequence)
		}
		if r.IsLegalAdvice {
			t.Fatalf("recommendation %q flagged as legal advice", r.Action)
		}
	}
	want := []string{"File RTI Application", "First Appeal", "Second Appeal"}
	if diff := cmp.Diff(want, actions); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
	if recs[0].ResponsibleAuthority != "PIO" {
		t.Fatalf("first occurrence must win, got authority %q", recs[0].ResponsibleAuthority)
	}
}

func TestRuleRecommendationsIdempotent(t *testing.T) {
	hits := []vector.ScoredPoint{
		hit("1", 0.9, vector.Payload{"action": "Contact District Collector"}),
		hit("2", 0.8, vector.Payload{"action": "contact district collector"}),
	}
	first := ruleRecommendations(hits, 5)
	again := dedupRecommendations(append(first, first...), 5)
	if diff := cmp.Diff(first, again); diff != "" {
		t.Fatalf("dedup is not idempotent (-first +again):\n%s", diff)
	}
}

func TestRuleRecommendationsCapAtMax(t *testing.T) {
	var hits []vector.ScoredPoint
	for _, a := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		hits = append(hits, hit(a, 0.5, vector.Payload{"action": "Action " + a}))
	}
	if got := len(ruleRecommendations(hits, 5)); got != 5 {
		t.Fatalf("expected 5 recommendations, got %d", got)
	}
}

func TestRecommendationTextRules(t *testing.T) {
	tests := []struct {
		payload  vector.Payload
		why      string
		nextPart string
	}{
		{
			payload:  vector.Payload{"action": "File RTI Application", "authority": "PIO", "required_documents": []any{"Form A", "Fee", "ID"}},
			why:      "This allows you to access information held by public authorities",
			nextPart: "Gather required documents: Form A, Fee. Then submit to PIO.",
		},
		{
			payload:  vector.Payload{"action": "Submit petition", "authority": "Collector"},
			why:      "This formal step officially registers your case",
			nextPart: "Prepare application and submit to Collector.",
		},
		{
			payload:  vector.Payload{"action": "Appeal the order", "authority": "Tribunal"},
			why:      "This allows you to challenge a decision",
			nextPart: "file your appeal with Tribunal",
		},
		{
			payload:  vector.Payload{"action": "Visit office", "importance": "It matters.", "next_step": "Go on Monday."},
			why:      "It matters.",
			nextPart: "Go on Monday.",
		},
	}
	for _, tt := range tests {
		if got := whyItMatters(tt.payload); !strings.HasPrefix(got, tt.why) {
			t.Fatalf("whyItMatters(%v) = %q, want prefix %q", tt.payload["action"], got, tt.why)
		}
		if got := nextStep(tt.payload); !strings.Contains(got, tt.nextPart) {
			t.Fatalf("nextStep(%v) = %q, want %q", tt.payload["action"], got, tt.nextPart)
		}
	}
}
