package ingest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sweetpotato0/nyaya/contrib/embedder/hashing"
	"github.com/sweetpotato0/nyaya/contrib/vector/inmemory"
	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/pkg/logging"
	"github.com/sweetpotato0/nyaya/rag/legal"
	"github.com/sweetpotato0/nyaya/vector"
)

func newTestIngester(store *inmemory.Store, opts ...Option) *Ingester {
	gw := vector.NewGateway(store, vector.WithGatewayLogger(logging.Discard()))
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return New(hashing.New(vector.DefaultDimension), gw, opts...)
}

func TestSampleCorpus(t *testing.T) {
	c, err := Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(c.Taxonomy) != 14 || len(c.Statutes) != 9 || len(c.Cases) != 5 || len(c.Processes) != 5 {
		t.Fatalf("unexpected sample sizes %d/%d/%d/%d", len(c.Taxonomy), len(c.Statutes), len(c.Cases), len(c.Processes))
	}
	domains := legal.Domains()
	for _, e := range c.Taxonomy {
		if !slices.Contains(domains, e.Domain) {
			t.Fatalf("taxonomy entry uses unknown domain %q", e.Domain)
		}
	}
	if c.Cases[0].Year != "2011" {
		t.Fatalf("expected year as text, got %q", c.Cases[0].Year)
	}
}

func TestRunIndexesEveryCollection(t *testing.T) {
	store := inmemory.New()
	in := newTestIngester(store, WithBatchSize(4))
	c, err := Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	stats, err := in.Run(context.Background(), c)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Stats{
		vector.CollectionTaxonomy:     14,
		vector.CollectionStatutes:     9,
		vector.CollectionCaseLaw:      5,
		vector.CollectionCivicProcess: 5,
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	// Seeding twice overwrites the same ids.
	if _, err := in.Run(context.Background(), c); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	for collection, n := range want {
		if got := store.Count(collection); got != n {
			t.Fatalf("%s holds %d points after reseed, want %d", collection, got, n)
		}
	}
}

func TestRunMakesProcessesSearchable(t *testing.T) {
	store := inmemory.New()
	in := newTestIngester(store)
	c, _ := Sample()
	if _, err := in.Run(context.Background(), c); err != nil {
		t.Fatalf("Run: %v", err)
	}

	emb := hashing.New(vector.DefaultDimension)
	q, _ := emb.Embed(context.Background(), "file RTI application")
	gw := vector.NewGateway(store, vector.WithGatewayLogger(logging.Discard()))
	hits := gw.Search(context.Background(), vector.CollectionCivicProcess, q, 3, 0, "")
	if len(hits) == 0 {
		t.Fatalf("expected process hits")
	}
	if hits[0].Payload.String("domain") != "civic_rights" {
		t.Fatalf("expected an RTI process first, got %+v", hits[0].Payload)
	}
	if docs := hits[0].Payload.Strings("required_documents"); len(docs) == 0 {
		t.Fatalf("required documents were not indexed")
	}
}

func TestRunChunksLongStatutes(t *testing.T) {
	store := inmemory.New()
	in := newTestIngester(store, WithChunking(60, 10))
	c := &Corpus{Statutes: []Statute{{
		Title:   "Payment of Wages Act, 1936",
		Section: "5",
		Content: "Wages shall be paid before the expiry of the seventh day.\n\nWhere less than one thousand persons are employed the same period applies to every establishment.",
		Domain:  "labor_law",
	}}}

	stats, err := in.Run(context.Background(), c)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	n := stats[vector.CollectionStatutes]
	if n < 2 {
		t.Fatalf("expected the statute to be chunked, got %d point(s)", n)
	}
	id := pointID(vector.CollectionStatutes, "Payment of Wages Act, 1936", "5", "0")
	p, ok := store.Get(vector.CollectionStatutes, id)
	if !ok {
		t.Fatalf("first chunk missing")
	}
	if p.Payload.String("chunks") != "2" && p.Payload.String("chunks") != "3" {
		t.Fatalf("unexpected chunk count %q", p.Payload.String("chunks"))
	}
	if len([]rune(p.Payload.String("content"))) > 60 {
		t.Fatalf("chunk exceeds window: %q", p.Payload.String("content"))
	}
}

func TestChunkerSplit(t *testing.T) {
	c := chunker{size: 10, overlap: 2, sep: "\n\n"}
	got := c.split("abcdefghijklmnopqrstuvwxy")
	want := []string{"abcdefghij", "ijklmnopqr", "qrstuvwxy"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
	if got := c.split("short"); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text must stay whole, got %v", got)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`{"civic_processes":[{"action":"File FIR","authority":"Police Station","domain":"criminal_law"}]}`)
	c, err := Parse(data, "json")
	if err != nil {
		t.Fatalf("Parse json: %v", err)
	}
	if c.Len() != 1 || c.Processes[0].Action != "File FIR" {
		t.Fatalf("unexpected corpus %+v", c)
	}

	if _, err := Parse([]byte("statutes:\n  - title: Untitled\n"), "yaml"); !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Fatalf("expected validation error for statute without content, got %v", err)
	}
	if _, err := Parse(data, "toml"); !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
	if _, err := Parse([]byte("{"), "json"); err == nil || !strings.Contains(err.Error(), "parse json corpus") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	a := &Corpus{Cases: []Case{{CaseName: "A"}}}
	b := &Corpus{Cases: []Case{{CaseName: "B"}}, Taxonomy: []TaxonomyEntry{{Domain: "tax_law"}}}
	m := Merge(a, nil, b)
	if m.Len() != 3 || m.Cases[1].CaseName != "B" {
		t.Fatalf("unexpected merge %+v", m)
	}
}
