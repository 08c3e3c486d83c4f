// Package websearch defines the contract for supplementary web lookups.
package websearch

import "context"

// DefaultLegalDomains restricts lookups to official and academic legal sources.
var DefaultLegalDomains = []string{
	"gov.in",
	"indiankanoon.org",
	"supremecourtofindia.nic.in",
	"legislative.gov.in",
	"lawcommissionofindia.nic.in",
	"worldlii.org",
	"edu",
}

type Query struct {
	Text           string
	MaxResults     int
	IncludeDomains []string
}

type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Provider performs a web search.
type Provider interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}
