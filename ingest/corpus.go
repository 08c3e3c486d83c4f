package ingest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	errorskg "github.com/sweetpotato0/nyaya/errors"
)

//go:embed sample/corpus.yaml
var sampleCorpus []byte

// TaxonomyEntry anchors one legal domain in the taxonomy collection.
type TaxonomyEntry struct {
	Domain      string `yaml:"domain" json:"domain"`
	Text        string `yaml:"text" json:"text"`
	Description string `yaml:"description" json:"description"`
}

// Statute is one section of an act.
type Statute struct {
	Title        string `yaml:"title" json:"title"`
	Section      string `yaml:"section" json:"section"`
	ActName      string `yaml:"act_name" json:"act_name"`
	Content      string `yaml:"content" json:"content"`
	Text         string `yaml:"text,omitempty" json:"text,omitempty"`
	Domain       string `yaml:"domain" json:"domain"`
	Jurisdiction string `yaml:"jurisdiction,omitempty" json:"jurisdiction,omitempty"`
	Source       string `yaml:"source,omitempty" json:"source,omitempty"`
	URL          string `yaml:"url,omitempty" json:"url,omitempty"`
}

// Case is one reported judgment.
type Case struct {
	CaseName  string   `yaml:"case_name" json:"case_name"`
	Court     string   `yaml:"court" json:"court"`
	Year      string   `yaml:"year" json:"year"`
	Summary   string   `yaml:"summary" json:"summary"`
	Outcome   string   `yaml:"outcome,omitempty" json:"outcome,omitempty"`
	KeyPoints []string `yaml:"key_points,omitempty" json:"key_points,omitempty"`
	Citation  string   `yaml:"citation,omitempty" json:"citation,omitempty"`
	Text      string   `yaml:"text,omitempty" json:"text,omitempty"`
	Domain    string   `yaml:"domain" json:"domain"`
}

// Process is a civic procedure a citizen can follow.
type Process struct {
	Action            string   `yaml:"action" json:"action"`
	Description       string   `yaml:"description" json:"description"`
	Steps             []string `yaml:"steps,omitempty" json:"steps,omitempty"`
	Authority         string   `yaml:"authority" json:"authority"`
	RequiredDocuments []string `yaml:"required_documents,omitempty" json:"required_documents,omitempty"`
	Timeline          string   `yaml:"timeline,omitempty" json:"timeline,omitempty"`
	Cost              string   `yaml:"cost,omitempty" json:"cost,omitempty"`
	Importance        string   `yaml:"importance,omitempty" json:"importance,omitempty"`
	Text              string   `yaml:"text,omitempty" json:"text,omitempty"`
	Domain            string   `yaml:"domain" json:"domain"`
}

// Corpus is everything the engine searches, grouped by collection.
type Corpus struct {
	Taxonomy  []TaxonomyEntry `yaml:"taxonomy" json:"taxonomy"`
	Statutes  []Statute       `yaml:"statutes" json:"statutes"`
	Cases     []Case          `yaml:"cases" json:"cases"`
	Processes []Process       `yaml:"civic_processes" json:"civic_processes"`
}

// Len counts entries across all sections.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Taxonomy) + len(c.Statutes) + len(c.Cases) + len(c.Processes)
}

// Validate reports every entry that is missing its key field or domain.
func (c *Corpus) Validate() error {
	var errs []error
	missing := func(section string, i int, field string) {
		errs = append(errs, fmt.Errorf("%s[%d]: %s is required", section, i, field))
	}
	for i, t := range c.Taxonomy {
		if strings.TrimSpace(t.Domain) == "" {
			missing("taxonomy", i, "domain")
		}
	}
	for i, s := range c.Statutes {
		if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.ActName) == "" {
			missing("statutes", i, "title")
		}
		if strings.TrimSpace(s.Content) == "" {
			missing("statutes", i, "content")
		}
	}
	for i, k := range c.Cases {
		if strings.TrimSpace(k.CaseName) == "" {
			missing("cases", i, "case_name")
		}
	}
	for i, p := range c.Processes {
		if strings.TrimSpace(p.Action) == "" {
			missing("civic_processes", i, "action")
		}
	}
	if err := errors.Join(errs...); err != nil {
		return errorskg.Validation("corpus: %v", err)
	}
	return nil
}

// Parse decodes a corpus. format is "yaml" or "json".
func Parse(data []byte, format string) (*Corpus, error) {
	var c Corpus
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse yaml corpus: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse json corpus: %w", err)
		}
	default:
		return nil, errorskg.Validation("unsupported corpus format %q", format)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads a corpus file, choosing the decoder from its extension.
func LoadFile(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// Sample returns the corpus bundled with the binary for offline demos.
func Sample() (*Corpus, error) {
	return Parse(sampleCorpus, "yaml")
}

// Merge concatenates corpora in order.
func Merge(corpora ...*Corpus) *Corpus {
	out := &Corpus{}
	for _, c := range corpora {
		if c == nil {
			continue
		}
		out.Taxonomy = append(out.Taxonomy, c.Taxonomy...)
		out.Statutes = append(out.Statutes, c.Statutes...)
		out.Cases = append(out.Cases, c.Cases...)
		out.Processes = append(out.Processes, c.Processes...)
	}
	return out
}
