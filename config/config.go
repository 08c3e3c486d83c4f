package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of the answering service.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Vector    VectorConfig    `yaml:"vector"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Web       WebConfig       `yaml:"web"`
	Memory    MemoryConfig    `yaml:"memory"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type EngineConfig struct {
	QueryTimeout   time.Duration `yaml:"query_timeout"`
	StepTimeout    time.Duration `yaml:"step_timeout"`
	Routing        bool          `yaml:"routing"`
	MaxQueryLength int           `yaml:"max_query_length"`
	Concurrency    int           `yaml:"concurrency"`
}

type VectorConfig struct {
	// Backend is "memory" or "postgres".
	Backend   string        `yaml:"backend"`
	DSN       string        `yaml:"dsn"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

type EmbedderConfig struct {
	// Backend is "hashing" or "openai".
	Backend   string `yaml:"backend"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	CacheSize int    `yaml:"cache_size"`
}

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type LLMConfig struct {
	// Order lists providers in failover order; empty entries disable generation.
	Order           []string       `yaml:"order"`
	Timeout         time.Duration  `yaml:"timeout"`
	MaxPromptTokens int            `yaml:"max_prompt_tokens"`
	Groq            ProviderConfig `yaml:"groq"`
	OpenAI          ProviderConfig `yaml:"openai"`
	Claude          ProviderConfig `yaml:"claude"`
	Gemini          ProviderConfig `yaml:"gemini"`
}

type WebConfig struct {
	// Provider is "tavily" or empty to disable the web_search step.
	Provider   string        `yaml:"provider"`
	APIKey     string        `yaml:"api_key"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
}

type MemoryConfig struct {
	// Backend is one of none, memory, sqlite, postgres, redis, mongo, s3.
	Backend    string `yaml:"backend"`
	DSN        string `yaml:"dsn"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	UseSSL     bool   `yaml:"use_ssl"`
}

type TelemetryConfig struct {
	Disable     bool    `yaml:"disable"`
	Environment string  `yaml:"environment"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns an offline configuration: in-memory vectors, hashing embedder, no providers.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			QueryTimeout:   60 * time.Second,
			StepTimeout:    20 * time.Second,
			MaxQueryLength: 4000,
			Concurrency:    4,
		},
		Vector:   VectorConfig{Backend: "memory", Dimension: 384, Timeout: 5 * time.Second},
		Embedder: EmbedderConfig{Backend: "hashing", Model: "text-embedding-3-small", CacheSize: 1024},
		LLM: LLMConfig{
			Order:           []string{"groq", "openai", "claude", "gemini"},
			Timeout:         30 * time.Second,
			MaxPromptTokens: 6000,
			Groq:            ProviderConfig{Model: "llama-3.1-8b-instant"},
			OpenAI:          ProviderConfig{Model: "gpt-4o-mini"},
			Claude:          ProviderConfig{Model: "claude-3-5-haiku-latest"},
			Gemini:          ProviderConfig{Model: "gemini-1.5-flash"},
		},
		Web:       WebConfig{MaxResults: 5, Timeout: 10 * time.Second},
		Memory:    MemoryConfig{Backend: "none", Database: "nyaya", Collection: "case_memory", Bucket: "nyaya-memory"},
		Telemetry: TelemetryConfig{Disable: true, Exporter: "stdout", SampleRatio: 1},
	}
}

// Load reads the optional YAML file at path over the defaults, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables. lookup is os.LookupEnv outside of tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	num := func(dst *int, key string) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok {
			if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
				*dst = d
			}
		}
	}
	flag := func(dst *bool, key string) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}

	dur(&c.Engine.QueryTimeout, "NYAYA_QUERY_TIMEOUT")
	dur(&c.Engine.StepTimeout, "NYAYA_STEP_TIMEOUT")
	flag(&c.Engine.Routing, "NYAYA_ROUTING")
	num(&c.Engine.Concurrency, "NYAYA_CONCURRENCY")

	str(&c.Vector.Backend, "NYAYA_VECTOR_BACKEND")
	str(&c.Vector.DSN, "NYAYA_VECTOR_DSN", "POSTGRES_DSN")
	num(&c.Vector.Dimension, "NYAYA_VECTOR_DIMENSION")

	str(&c.Embedder.Backend, "NYAYA_EMBEDDER")
	str(&c.Embedder.APIKey, "OPENAI_API_KEY")

	if v, ok := lookup("NYAYA_LLM_ORDER"); ok {
		c.LLM.Order = splitList(v)
	}
	str(&c.LLM.Groq.APIKey, "GROQ_API_KEY")
	str(&c.LLM.OpenAI.APIKey, "OPENAI_API_KEY")
	str(&c.LLM.Claude.APIKey, "ANTHROPIC_API_KEY")
	str(&c.LLM.Gemini.APIKey, "GEMINI_API_KEY")

	str(&c.Web.APIKey, "TAVILY_API_KEY")
	if c.Web.Provider == "" && c.Web.APIKey != "" {
		c.Web.Provider = "tavily"
	}

	str(&c.Memory.Backend, "NYAYA_MEMORY_BACKEND")
	str(&c.Memory.DSN, "NYAYA_MEMORY_DSN")
	str(&c.Memory.Addr, "REDIS_ADDR")
	str(&c.Memory.Password, "REDIS_PASSWORD")
	if c.Memory.Backend == "mongo" {
		str(&c.Memory.DSN, "MONGODB_URI")
	}
	if c.Memory.Backend == "postgres" && c.Memory.DSN == "" {
		c.Memory.DSN = c.Vector.DSN
	}
	str(&c.Memory.Addr, "S3_ENDPOINT")
	str(&c.Memory.Bucket, "S3_BUCKET")
	str(&c.Memory.AccessKey, "S3_ACCESS_KEY")
	str(&c.Memory.SecretKey, "S3_SECRET_KEY")

	str(&c.Telemetry.Environment, "NYAYA_ENV")
	str(&c.Telemetry.Exporter, "NYAYA_TRACE_EXPORTER")
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok && v != "" {
		c.Telemetry.Disable = false
		c.Telemetry.Endpoint = v
		c.Telemetry.Exporter = "otlp"
	}
}

// Validate checks the combination of settings and returns one combined error.
func (c Config) Validate() error {
	v := NewValidator()
	v.RequirePositiveDuration("engine.query_timeout", c.Engine.QueryTimeout)
	v.RequirePositiveDuration("engine.step_timeout", c.Engine.StepTimeout)
	v.RequirePositive("engine.max_query_length", c.Engine.MaxQueryLength)
	v.ValidateRange("engine.concurrency", c.Engine.Concurrency, 1, 256)

	v.ValidateOneOf("vector.backend", c.Vector.Backend, "memory", "postgres")
	v.RequireWhen(c.Vector.Backend == "postgres", "vector.dsn", c.Vector.DSN)
	v.ValidateRange("vector.dimension", c.Vector.Dimension, 1, 65535)

	v.ValidateOneOf("embedder.backend", c.Embedder.Backend, "hashing", "openai")
	v.RequireWhen(c.Embedder.Backend == "openai", "embedder.api_key", c.Embedder.APIKey)

	for _, name := range c.LLM.Order {
		v.ValidateOneOf("llm.order", name, "groq", "openai", "claude", "gemini")
	}
	v.RequirePositiveDuration("llm.timeout", c.LLM.Timeout)

	if c.Web.Provider != "" {
		v.ValidateOneOf("web.provider", c.Web.Provider, "tavily")
		v.RequireNonEmpty("web.api_key", c.Web.APIKey)
		v.ValidateRange("web.max_results", c.Web.MaxResults, 1, 20)
	}

	v.ValidateOneOf("memory.backend", c.Memory.Backend, "none", "memory", "sqlite", "postgres", "redis", "mongo", "s3")
	switch c.Memory.Backend {
	case "sqlite", "postgres", "mongo":
		v.RequireNonEmpty("memory.dsn", c.Memory.DSN)
	case "redis":
		v.RequireNonEmpty("memory.addr", c.Memory.Addr)
		v.ValidateRange("memory.db", c.Memory.DB, 0, 15)
	case "s3":
		v.RequireNonEmpty("memory.addr", c.Memory.Addr)
		v.RequireNonEmpty("memory.bucket", c.Memory.Bucket)
	}

	if !c.Telemetry.Disable {
		v.ValidateOneOf("telemetry.exporter", c.Telemetry.Exporter, "stdout", "otlp")
		v.RequireWhen(c.Telemetry.Exporter == "otlp", "telemetry.endpoint", c.Telemetry.Endpoint)
		v.ValidateFloatRange("telemetry.sample_ratio", c.Telemetry.SampleRatio, 0, 1)
	}
	return v.Error()
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
