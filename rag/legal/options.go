package legal

import (
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/nyaya/websearch"
)

// Config controls the behaviour of the answering engine.
type Config struct {
	Name           string        // Logical name for tracing/logging
	QueryTimeout   time.Duration // Deadline for one Ask call
	StepTimeout    time.Duration // Deadline for one step
	Routing        bool          // Run the router pre-step
	MaxQueryLength int           // Queries longer than this are truncated at intake

	TaxonomyLimit     int
	TaxonomyThreshold float64
	StatuteLimit      int
	StatuteThreshold  float64
	CaseLimit         int
	CaseThreshold     float64
	ProcessLimit      int // Processes fetched before deduplication
	ProcessThreshold  float64
	MemoryLimit       int
	MemoryThreshold   float64

	MaxRecommendations int
	WebMaxResults      int
	WebDomains         []string

	ClassificationPrompt string
	CasePrompt           string
	ReasoningPrompt      string
	RecommendationPrompt string
	SafetyPrompt         string
	SynthesisPrompt      string

	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Option customises the engine configuration.
type Option func(*Config)

func WithName(name string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(name) != "" {
			cfg.Name = name
		}
	}
}

// WithQueryTimeout bounds a whole Ask call. Once it elapses every remaining
// step falls through to its rule tier.
func WithQueryTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.QueryTimeout = d
		}
	}
}

// WithStepTimeout bounds each step individually.
func WithStepTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.StepTimeout = d
		}
	}
}

// WithRouting enables the query-type router that selects a subset of steps.
func WithRouting(enabled bool) Option {
	return func(cfg *Config) {
		cfg.Routing = enabled
	}
}

func WithMaxQueryLength(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxQueryLength = n
		}
	}
}

// WithStatuteSearch overrides how many statutes are retrieved and the minimum score.
func WithStatuteSearch(limit int, threshold float64) Option {
	return func(cfg *Config) {
		if limit > 0 {
			cfg.StatuteLimit = limit
		}
		if threshold >= 0 && threshold <= 1 {
			cfg.StatuteThreshold = threshold
		}
	}
}

// WithCaseSearch overrides how many precedents are retrieved and the minimum score.
func WithCaseSearch(limit int, threshold float64) Option {
	return func(cfg *Config) {
		if limit > 0 {
			cfg.CaseLimit = limit
		}
		if threshold >= 0 && threshold <= 1 {
			cfg.CaseThreshold = threshold
		}
	}
}

// WithProcessSearch overrides the civic process lookup used for recommendations.
func WithProcessSearch(limit int, threshold float64) Option {
	return func(cfg *Config) {
		if limit > 0 {
			cfg.ProcessLimit = limit
		}
		if threshold >= 0 && threshold <= 1 {
			cfg.ProcessThreshold = threshold
		}
	}
}

// WithTaxonomySearch overrides the taxonomy lookup used by classification.
func WithTaxonomySearch(limit int, threshold float64) Option {
	return func(cfg *Config) {
		if limit > 0 {
			cfg.TaxonomyLimit = limit
		}
		if threshold >= 0 && threshold <= 1 {
			cfg.TaxonomyThreshold = threshold
		}
	}
}

// WithWebSearch sets the number of web results and the domain allow-list.
func WithWebSearch(maxResults int, domains ...string) Option {
	return func(cfg *Config) {
		if maxResults > 0 {
			cfg.WebMaxResults = maxResults
		}
		if len(domains) > 0 {
			cfg.WebDomains = append([]string(nil), domains...)
		}
	}
}

func WithSynthesisPrompt(prompt string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(prompt) != "" {
			cfg.SynthesisPrompt = prompt
		}
	}
}

func WithReasoningPrompt(prompt string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(prompt) != "" {
			cfg.ReasoningPrompt = prompt
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *Config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(cfg *Config) {
		if t != nil {
			cfg.tracer = t
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(cfg *Config) {
		if now != nil {
			cfg.now = now
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		Name:                 "nyaya",
		QueryTimeout:         60 * time.Second,
		StepTimeout:          20 * time.Second,
		MaxQueryLength:       4000,
		TaxonomyLimit:        3,
		TaxonomyThreshold:    0.4,
		StatuteLimit:         5,
		StatuteThreshold:     0.5,
		CaseLimit:            5,
		CaseThreshold:        0.5,
		ProcessLimit:         10,
		ProcessThreshold:     0.4,
		MemoryLimit:          5,
		MemoryThreshold:      0.5,
		MaxRecommendations:   5,
		WebMaxResults:        5,
		WebDomains:           websearch.DefaultLegalDomains,
		ClassificationPrompt: classificationPrompt,
		CasePrompt:           casePrompt,
		ReasoningPrompt:      reasoningPrompt,
		RecommendationPrompt: recommendationPrompt,
		SafetyPrompt:         safetyPrompt,
		SynthesisPrompt:      synthesisPrompt,
		now:                  time.Now,
	}
}

func applyOptions(cfg *Config, opts []Option) *Config {
	if cfg == nil {
		cfg = defaultConfig()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}
