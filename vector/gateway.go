package vector

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sweetpotato0/nyaya/pkg/logging"
)

// Collections used by the answering pipeline.
const (
	CollectionTaxonomy       = "legal_taxonomy_vectors"
	CollectionStatutes       = "statutes_vectors"
	CollectionCaseLaw        = "case_law_vectors"
	CollectionCivicProcess   = "civic_process_vectors"
	CollectionCaseMemory     = "case_memory_vectors"
	CollectionUserMemory     = "user_interaction_memory"
	DefaultDimension         = 384
	defaultGatewaySearchTime = 5 * time.Second
)

// Collections lists every collection the pipeline reads from or writes to.
func Collections() []string {
	return []string{
		CollectionTaxonomy,
		CollectionStatutes,
		CollectionCaseLaw,
		CollectionCivicProcess,
		CollectionCaseMemory,
		CollectionUserMemory,
	}
}

// Gateway wraps a Store for the pipeline. Search never fails: backend faults
// degrade to an empty result so callers fall through to their next tier.
type Gateway struct {
	store   Store
	timeout time.Duration
	logger  *slog.Logger
}

type GatewayOption func(*Gateway)

func WithSearchTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewGateway(store Store, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:   store,
		timeout: defaultGatewaySearchTime,
		logger:  logging.WithComponent("vector_gateway"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Search returns at most limit hits with score >= threshold, highest first.
// An empty domain or "general" disables the domain filter.
func (g *Gateway) Search(ctx context.Context, collection string, vec []float32, limit int, threshold float64, domain string) []ScoredPoint {
	if g == nil || g.store == nil || len(vec) == 0 || limit <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return nil
	}

	req := SearchRequest{Vector: vec, Limit: limit, ScoreThreshold: threshold}
	if d := strings.TrimSpace(domain); d != "" && d != "general" {
		req.Filter = map[string]string{"domain": d}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	hits, err := g.store.Search(ctx, collection, req)
	if err != nil {
		g.logger.Warn("vector search failed", "collection", collection, "domain", domain, "error", err)
		return nil
	}

	out := make([]ScoredPoint, 0, len(hits))
	for _, h := range hits {
		h.Score = ClampScore(h.Score)
		if h.Score < threshold {
			continue
		}
		if h.Payload == nil {
			h.Payload = Payload{}
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Upsert writes points, surfacing backend errors.
func (g *Gateway) Upsert(ctx context.Context, collection string, points ...Point) error {
	if g == nil || g.store == nil {
		return errNoStore
	}
	return g.store.Upsert(ctx, collection, points...)
}

// EnsureCollections creates every pipeline collection with the given dimension.
func (g *Gateway) EnsureCollections(ctx context.Context, dimension int) error {
	if g == nil || g.store == nil {
		return errNoStore
	}
	for _, name := range Collections() {
		if err := g.store.EnsureCollection(ctx, name, dimension); err != nil {
			return err
		}
	}
	return nil
}
