package legal

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sweetpotato0/nyaya/generation"
	"github.com/sweetpotato0/nyaya/pkg/logging"
	"github.com/sweetpotato0/nyaya/vector"
)

// stubProvider answers by matching the system prompt against registered prefixes.
type stubProvider struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
	calls   atomic.Int64
}

func newStubProvider() *stubProvider {
	return &stubProvider{replies: make(map[string]string)}
}

func (s *stubProvider) on(systemPrefix, reply string) *stubProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[systemPrefix] = reply
	return s
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req generation.Request) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for prefix, reply := range s.replies {
		if strings.HasPrefix(req.System, prefix) || (req.System == "" && strings.HasPrefix(req.Prompt, prefix)) {
			return reply, nil
		}
	}
	return "", nil
}

// blockingProvider never answers before its context is done.
type blockingProvider struct{}

func (blockingProvider) Name() string { return "blocking" }

func (blockingProvider) Complete(ctx context.Context, _ generation.Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func gatewayFor(providers ...generation.Provider) *generation.Gateway {
	return generation.NewGateway(providers, generation.WithLogger(logging.Discard()))
}

type keywordEmbedder struct{}

var keywordSpace = []string{"rti", "information", "file", "tenant", "wage", "police", "consumer", "court"}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(keywordSpace)+1)
	lower := strings.ToLower(text)
	for i, kw := range keywordSpace {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	vec[len(keywordSpace)] = 0.1
	return vec, nil
}

func (k keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := k.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func (keywordEmbedder) Dimension() int { return len(keywordSpace) + 1 }

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service down")
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding service down")
}

func (failingEmbedder) Dimension() int { return 9 }

type panickingEmbedder struct{}

func (panickingEmbedder) Embed(context.Context, string) ([]float32, error) { panic("embedder exploded") }

func (panickingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	panic("embedder exploded")
}

func (panickingEmbedder) Dimension() int { return 9 }

// fixtureStore returns canned hits per collection and counts upserts.
type fixtureStore struct {
	mu      sync.Mutex
	hits    map[string][]vector.ScoredPoint
	upserts map[string]int
	err     error
}

func newFixtureStore() *fixtureStore {
	return &fixtureStore{hits: make(map[string][]vector.ScoredPoint), upserts: make(map[string]int)}
}

func (f *fixtureStore) with(collection string, hits ...vector.ScoredPoint) *fixtureStore {
	f.hits[collection] = append(f.hits[collection], hits...)
	return f
}

func (f *fixtureStore) EnsureCollection(context.Context, string, int) error { return f.err }

func (f *fixtureStore) Upsert(_ context.Context, collection string, points ...vector.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts[collection] += len(points)
	return nil
}

func (f *fixtureStore) Search(_ context.Context, collection string, _ vector.SearchRequest) ([]vector.ScoredPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]vector.ScoredPoint(nil), f.hits[collection]...), nil
}

func (f *fixtureStore) upsertCount(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts[collection]
}

func hit(id string, score float64, payload vector.Payload) vector.ScoredPoint {
	return vector.ScoredPoint{ID: id, Score: score, Payload: payload}
}

func gatewayOver(store vector.Store) *vector.Gateway {
	return vector.NewGateway(store, vector.WithGatewayLogger(logging.Discard()))
}

// legalFixture is a small corpus around the right to information.
func legalFixture() *fixtureStore {
	return newFixtureStore().
		with(vector.CollectionStatutes,
			hit("s1", 0.82, vector.Payload{
				"title": "Right to Information Act, 2005", "section": "6", "act_name": "Right to Information Act, 2005",
				"content": "A person who desires to obtain any information shall make a request in writing.",
				"domain": "civic_rights", "source": "https://rti.gov.in/rti-act.pdf",
			}),
			hit("s2", 0.74, vector.Payload{
				"title": "Right to Information Act, 2005", "section": "7", "act_name": "Right to Information Act, 2005",
				"content": "The Public Information Officer shall provide the information within thirty days.",
				"domain": "civic_rights",
			}),
		).
		with(vector.CollectionCaseLaw,
			hit("c1", 0.78, vector.Payload{
				"case_name": "CBSE v. Aditya Bandopadhyay", "year": 2011, "court": "Supreme Court of India",
				"summary":  "Evaluated answer sheets are information under the RTI Act and examinees may inspect them.",
				"citation": "(2011) 8 SCC 497", "domain": "civic_rights",
			}),
		).
		with(vector.CollectionCivicProcess,
			hit("p1", 0.7, vector.Payload{
				"action": "File RTI Application", "authority": "Public Information Officer",
				"required_documents": []any{"Application", "Fee receipt"}, "timeline": "30 days", "domain": "civic_rights",
			}),
			hit("p2", 0.65, vector.Payload{
				"action": "file rti application", "authority": "PIO", "domain": "civic_rights",
			}),
			hit("p3", 0.6, vector.Payload{
				"action": "First Appeal to Appellate Authority", "authority": "First Appellate Authority", "domain": "civic_rights",
			}),
		)
}

func testLogger() *slog.Logger { return logging.Discard() }
