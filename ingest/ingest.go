// Package ingest loads the legal corpus into the vector collections the
// answering engine searches.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/pkg/logging"
	"github.com/sweetpotato0/nyaya/rag/preprocess"
	"github.com/sweetpotato0/nyaya/vector"
)

const (
	defaultBatchSize = 32
	defaultChunkSize = 1200
	defaultOverlap   = 150
)

// idSpace namespaces deterministic point ids so re-seeding overwrites instead of duplicating.
var idSpace = uuid.MustParse("6f1c7f3e-9a53-4f0e-8d0e-2b1f4c9d7a11")

// Ingester embeds corpus entries and upserts them into their collections.
type Ingester struct {
	embedder  vector.Embedder
	vectors   *vector.Gateway
	batchSize int
	chunks    chunker
	logger    *slog.Logger
}

type Option func(*Ingester)

// WithBatchSize sets how many texts go into one EmbedBatch call.
func WithBatchSize(n int) Option {
	return func(in *Ingester) {
		if n > 0 {
			in.batchSize = n
		}
	}
}

// WithChunking sets the statute window size and overlap in runes. size 0 disables chunking.
func WithChunking(size, overlap int) Option {
	return func(in *Ingester) {
		if size < 0 || overlap < 0 || (size > 0 && overlap >= size) {
			return
		}
		in.chunks.size = size
		in.chunks.overlap = overlap
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(in *Ingester) {
		if l != nil {
			in.logger = l
		}
	}
}

func New(embedder vector.Embedder, vectors *vector.Gateway, opts ...Option) *Ingester {
	in := &Ingester{
		embedder:  embedder,
		vectors:   vectors,
		batchSize: defaultBatchSize,
		chunks:    chunker{size: defaultChunkSize, overlap: defaultOverlap, sep: "\n\n"},
		logger:    logging.WithComponent("ingest"),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Stats counts indexed points per collection.
type Stats map[string]int

// Total sums all collections.
func (s Stats) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

type entry struct {
	id      string
	text    string
	payload vector.Payload
}

// Run indexes the corpus. It stops at the first failing collection and returns
// what was indexed so far.
func (in *Ingester) Run(ctx context.Context, c *Corpus) (Stats, error) {
	if c == nil {
		return nil, errorskg.Validation("corpus is nil")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := in.vectors.EnsureCollections(ctx, in.embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("ensure collections: %w", err)
	}

	groups := []struct {
		collection string
		entries    []entry
	}{
		{vector.CollectionTaxonomy, taxonomyEntries(c.Taxonomy)},
		{vector.CollectionStatutes, in.statuteEntries(c.Statutes)},
		{vector.CollectionCaseLaw, caseEntries(c.Cases)},
		{vector.CollectionCivicProcess, processEntries(c.Processes)},
	}
	stats := make(Stats, len(groups))
	for _, g := range groups {
		n, err := in.index(ctx, g.collection, g.entries)
		stats[g.collection] = n
		if err != nil {
			return stats, fmt.Errorf("index %s: %w", g.collection, err)
		}
		in.logger.Debug("collection indexed", "collection", g.collection, "points", n)
	}
	in.logger.Info("corpus indexed", "points", stats.Total())
	return stats, nil
}

func (in *Ingester) index(ctx context.Context, collection string, entries []entry) (int, error) {
	done := 0
	for start := 0; start < len(entries); start += in.batchSize {
		batch := entries[start:min(start+in.batchSize, len(entries))]
		texts := make([]string, len(batch))
		for i, e := range batch {
			texts[i] = e.text
		}
		vecs, err := in.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return done, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vecs) != len(batch) {
			return done, fmt.Errorf("embed batch at %d: got %d vectors for %d texts: %w",
				start, len(vecs), len(batch), errorskg.ErrInvalidOutput)
		}
		points := make([]vector.Point, len(batch))
		for i, e := range batch {
			points[i] = vector.Point{ID: e.id, Vector: vecs[i], Payload: e.payload}
		}
		if err := in.vectors.Upsert(ctx, collection, points...); err != nil {
			return done, err
		}
		done += len(batch)
	}
	return done, nil
}

func pointID(collection string, key ...string) string {
	return uuid.NewSHA1(idSpace, []byte(collection+"|"+strings.ToLower(strings.Join(key, "|")))).String()
}

func clean(parts ...string) string {
	return preprocess.Collapse(preprocess.CleanBasic(strings.Join(parts, " ")))
}

func orText(text string, parts ...string) string {
	if strings.TrimSpace(text) != "" {
		return clean(text)
	}
	return clean(parts...)
}

func taxonomyEntries(in []TaxonomyEntry) []entry {
	out := make([]entry, 0, len(in))
	for _, t := range in {
		out = append(out, entry{
			id:   pointID(vector.CollectionTaxonomy, t.Domain, t.Text),
			text: orText(t.Text, strings.ReplaceAll(t.Domain, "_", " "), t.Description),
			payload: vector.Payload{
				"domain":      strings.ToLower(strings.TrimSpace(t.Domain)),
				"description": t.Description,
				"source":      "corpus",
			},
		})
	}
	return out
}

func (in *Ingester) statuteEntries(statutes []Statute) []entry {
	out := make([]entry, 0, len(statutes))
	for _, s := range statutes {
		title := s.Title
		if title == "" {
			title = s.ActName
		}
		chunks := in.chunks.split(clean(s.Content))
		for i, chunk := range chunks {
			p := vector.Payload{
				"title":        title,
				"section":      s.Section,
				"act_name":     s.ActName,
				"content":      chunk,
				"domain":       s.Domain,
				"jurisdiction": s.Jurisdiction,
			}
			if s.Source != "" {
				p["source"] = s.Source
			}
			if s.URL != "" {
				p["url"] = s.URL
			}
			if len(chunks) > 1 {
				p["chunk"] = i + 1
				p["chunks"] = len(chunks)
			}
			var text string
			if i == 0 {
				text = orText(s.Text, title, "Section", s.Section, chunk)
			} else {
				text = clean(title, "Section", s.Section, chunk)
			}
			out = append(out, entry{
				id:      pointID(vector.CollectionStatutes, title, s.Section, fmt.Sprint(i)),
				text:    text,
				payload: p,
			})
		}
	}
	return out
}

func caseEntries(cases []Case) []entry {
	out := make([]entry, 0, len(cases))
	for _, c := range cases {
		p := vector.Payload{
			"case_name": c.CaseName,
			"court":     c.Court,
			"year":      c.Year,
			"summary":   clean(c.Summary),
			"citation":  c.Citation,
			"domain":    c.Domain,
		}
		if c.Outcome != "" {
			p["outcome"] = clean(c.Outcome)
		}
		if len(c.KeyPoints) > 0 {
			p["key_points"] = append([]string(nil), c.KeyPoints...)
		}
		out = append(out, entry{
			id:      pointID(vector.CollectionCaseLaw, c.CaseName, c.Year),
			text:    orText(c.Text, c.CaseName, c.Year, c.Summary, strings.Join(c.KeyPoints, " ")),
			payload: p,
		})
	}
	return out
}

func processEntries(processes []Process) []entry {
	out := make([]entry, 0, len(processes))
	for _, pr := range processes {
		p := vector.Payload{
			"action":      pr.Action,
			"description": clean(pr.Description),
			"authority":   pr.Authority,
			"timeline":    pr.Timeline,
			"domain":      pr.Domain,
		}
		if len(pr.Steps) > 0 {
			p["steps"] = append([]string(nil), pr.Steps...)
		}
		if len(pr.RequiredDocuments) > 0 {
			p["required_documents"] = append([]string(nil), pr.RequiredDocuments...)
		}
		if pr.Cost != "" {
			p["cost"] = pr.Cost
		}
		if pr.Importance != "" {
			p["importance"] = pr.Importance
		}
		out = append(out, entry{
			id:      pointID(vector.CollectionCivicProcess, pr.Action),
			text:    orText(pr.Text, "How to", pr.Action, pr.Description, strings.Join(pr.Steps, " ")),
			payload: p,
		})
	}
	return out
}
