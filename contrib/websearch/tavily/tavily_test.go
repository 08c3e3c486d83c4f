package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/websearch"
)

func TestSearch(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"x","results":[
			{"title":"RTI <b>Portal</b>","url":" https://rtionline.gov.in ","content":"<p>File   online</p>","score":0.9},
			{"title":"Second","url":"https://indiankanoon.org/doc/1","content":"text","score":0.5}
		]}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "tvly-test", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	results, err := c.Search(context.Background(), websearch.Query{
		Text:           "rti application Indian law official sources",
		MaxResults:     1,
		IncludeDomains: websearch.DefaultLegalDomains,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := []websearch.Result{{Title: "RTI Portal", URL: "https://rtionline.gov.in", Content: "File online", Score: 0.9}}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
	if got.SearchDepth != "advanced" || !got.IncludeAnswer || got.MaxResults != 1 {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.IncludeDomains) != len(websearch.DefaultLegalDomains) {
		t.Fatalf("domains not forwarded: %v", got.IncludeDomains)
	}
}

func TestSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := New(Config{APIKey: "k", Endpoint: srv.URL})
	_, err := c.Search(context.Background(), websearch.Query{Text: "bail"})
	if !errors.Is(err, errorskg.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, errorskg.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
