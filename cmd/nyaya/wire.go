package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sweetpotato0/nyaya/config"
	"github.com/sweetpotato0/nyaya/contrib/embedder/cached"
	"github.com/sweetpotato0/nyaya/contrib/embedder/hashing"
	embopenai "github.com/sweetpotato0/nyaya/contrib/embedder/openai"
	"github.com/sweetpotato0/nyaya/contrib/provider/claude"
	"github.com/sweetpotato0/nyaya/contrib/provider/gemini"
	"github.com/sweetpotato0/nyaya/contrib/provider/groq"
	"github.com/sweetpotato0/nyaya/contrib/provider/openai"
	"github.com/sweetpotato0/nyaya/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/nyaya/contrib/vector/inmemory"
	"github.com/sweetpotato0/nyaya/contrib/vector/pg"
	"github.com/sweetpotato0/nyaya/contrib/websearch/tavily"
	"github.com/sweetpotato0/nyaya/generation"
	"github.com/sweetpotato0/nyaya/ingest"
	"github.com/sweetpotato0/nyaya/memory"
	"github.com/sweetpotato0/nyaya/memory/store"
	"github.com/sweetpotato0/nyaya/pkg/logging"
	"github.com/sweetpotato0/nyaya/rag/legal"
	"github.com/sweetpotato0/nyaya/vector"
	"github.com/sweetpotato0/nyaya/websearch"
)

// app holds everything built from one Config.
type app struct {
	engine   *legal.Engine
	embedder vector.Embedder
	vectors  *vector.Gateway
	memory   memory.Store
	logger   *slog.Logger

	closers []func(context.Context) error
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// buildApp wires the engine. The in-memory vector backend is seeded with the
// bundled sample corpus so that offline runs have something to search.
func buildApp(ctx context.Context, cfg config.Config) (_ *app, err error) {
	a := &app{logger: logging.WithComponent("wire")}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	if a.embedder, err = buildEmbedder(cfg.Embedder, cfg.Vector.Dimension); err != nil {
		return nil, err
	}
	backend, err := a.buildVectorStore(ctx, cfg.Vector)
	if err != nil {
		return nil, err
	}
	a.vectors = vector.NewGateway(backend, vector.WithSearchTimeout(cfg.Vector.Timeout))

	llm := a.buildGenerator(ctx, cfg.LLM)
	web, err := buildWebSearch(cfg.Web)
	if err != nil {
		return nil, err
	}
	if a.memory, err = a.buildMemory(ctx, cfg.Memory); err != nil {
		return nil, err
	}

	opts := []legal.Option{
		legal.WithQueryTimeout(cfg.Engine.QueryTimeout),
		legal.WithStepTimeout(cfg.Engine.StepTimeout),
		legal.WithRouting(cfg.Engine.Routing),
		legal.WithMaxQueryLength(cfg.Engine.MaxQueryLength),
	}
	if web != nil {
		opts = append(opts, legal.WithWebSearch(cfg.Web.MaxResults, websearch.DefaultLegalDomains...))
	}
	deps := legal.Dependencies{
		Embedder:  a.embedder,
		Vectors:   a.vectors,
		Generator: llm,
		Web:       web,
		Memory:    a.memory,
	}
	if a.engine, err = legal.New(deps, opts...); err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	if err := a.engine.EnsureCollections(ctx); err != nil {
		return nil, fmt.Errorf("ensure collections: %w", err)
	}

	if cfg.Vector.Backend == "memory" {
		corpus, err := ingest.Sample()
		if err != nil {
			return nil, err
		}
		if _, err := a.ingester().Run(ctx, corpus); err != nil {
			return nil, fmt.Errorf("seed sample corpus: %w", err)
		}
	}
	return a, nil
}

func (a *app) ingester(opts ...ingest.Option) *ingest.Ingester {
	return ingest.New(a.embedder, a.vectors, opts...)
}

func buildEmbedder(cfg config.EmbedderConfig, dimension int) (vector.Embedder, error) {
	var inner vector.Embedder
	switch cfg.Backend {
	case "openai":
		e, err := embopenai.New(embopenai.Config{APIKey: cfg.APIKey, Model: cfg.Model, Dimension: dimension})
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		inner = e
	default:
		inner = hashing.New(dimension)
	}
	if cfg.CacheSize <= 0 {
		return inner, nil
	}
	c, err := cached.New(inner, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return c, nil
}

func (a *app) buildVectorStore(ctx context.Context, cfg config.VectorConfig) (vector.Store, error) {
	switch cfg.Backend {
	case "postgres":
		s, err := pg.New(ctx, pg.Config{DSN: cfg.DSN})
		if err != nil {
			return nil, fmt.Errorf("pgvector store: %w", err)
		}
		a.onClose(func(context.Context) error { return s.Close() })
		return s, nil
	default:
		return inmemory.New(), nil
	}
}

// buildGenerator skips providers without credentials or whose client cannot be
// built; generation then degrades to the template paths.
func (a *app) buildGenerator(ctx context.Context, cfg config.LLMConfig) *generation.Gateway {
	var providers []generation.Provider
	for _, name := range cfg.Order {
		p, err := a.buildProvider(ctx, name, cfg)
		switch {
		case err != nil:
			a.logger.Warn("provider unavailable", "provider", name, "error", err)
		case p != nil:
			providers = append(providers, p)
		}
	}

	opts := []generation.Option{generation.WithTimeout(cfg.Timeout)}
	if len(providers) > 0 && cfg.MaxPromptTokens > 0 {
		tok, err := tiktoken.New("cl100k_base")
		if err != nil {
			a.logger.Warn("prompt budget disabled", "error", err)
		} else {
			opts = append(opts, generation.WithPromptBudget(tok, cfg.MaxPromptTokens))
		}
	}
	return generation.NewGateway(providers, opts...)
}

func (a *app) buildProvider(ctx context.Context, name string, cfg config.LLMConfig) (generation.Provider, error) {
	switch name {
	case "groq":
		if cfg.Groq.APIKey == "" {
			return nil, nil
		}
		return groq.New(cfg.Groq.APIKey, cfg.Groq.Model)
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, nil
		}
		return openai.New(openai.Config{Name: "openai", APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model})
	case "claude":
		if cfg.Claude.APIKey == "" {
			return nil, nil
		}
		return claude.New(claude.Config{APIKey: cfg.Claude.APIKey, Model: cfg.Claude.Model})
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, nil
		}
		p, err := gemini.New(ctx, gemini.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return p.Close() })
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func buildWebSearch(cfg config.WebConfig) (websearch.Provider, error) {
	if cfg.Provider != "tavily" {
		return nil, nil
	}
	c, err := tavily.New(tavily.Config{APIKey: cfg.APIKey, Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("tavily client: %w", err)
	}
	return c, nil
}

func (a *app) buildMemory(ctx context.Context, cfg config.MemoryConfig) (memory.Store, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewInMemoryStore(), nil
	case "sqlite":
		s, err := store.NewSQLiteStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return s.Close() })
		return s, nil
	case "postgres":
		s, err := store.NewPostgresStore(ctx, &store.PostgresConfig{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return s.Close() })
		return s, nil
	case "redis":
		s := store.NewRedisStore(&store.RedisConfig{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
		a.onClose(func(context.Context) error { return s.Close() })
		return s, nil
	case "mongo":
		s, err := store.NewMongoStore(ctx, &store.MongoConfig{URI: cfg.DSN, Database: cfg.Database, Collection: cfg.Collection})
		if err != nil {
			return nil, err
		}
		a.onClose(s.Close)
		return s, nil
	case "s3":
		return store.NewS3Store(store.S3Config{
			Endpoint:  cfg.Addr,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, nil
	}
}
