package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(lookupFrom(map[string]string{
		"NYAYA_QUERY_TIMEOUT":  "15s",
		"NYAYA_ROUTING":        "true",
		"NYAYA_LLM_ORDER":      "Claude, gemini",
		"ANTHROPIC_API_KEY":    "sk-ant",
		"TAVILY_API_KEY":       "tvly",
		"NYAYA_MEMORY_BACKEND": "redis",
		"REDIS_ADDR":           "localhost:6379",
	}))

	if cfg.Engine.QueryTimeout != 15*time.Second {
		t.Fatalf("query timeout = %s", cfg.Engine.QueryTimeout)
	}
	if !cfg.Engine.Routing {
		t.Fatalf("expected routing enabled")
	}
	if diff := cmp.Diff([]string{"claude", "gemini"}, cfg.LLM.Order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if cfg.LLM.Claude.APIKey != "sk-ant" {
		t.Fatalf("claude key not applied")
	}
	if cfg.Web.Provider != "tavily" {
		t.Fatalf("expected tavily to be enabled by its key, got %q", cfg.Web.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nyaya.yaml")
	body := `
engine:
  step_timeout: 3s
vector:
  backend: postgres
  dsn: postgres://localhost/nyaya?sslmode=disable
memory:
  backend: sqlite
  dsn: file:memory.db
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.StepTimeout != 3*time.Second {
		t.Fatalf("step timeout = %s", cfg.Engine.StepTimeout)
	}
	if cfg.Vector.Backend != "postgres" || cfg.Memory.Backend != "sqlite" {
		t.Fatalf("unexpected backends: %+v %+v", cfg.Vector, cfg.Memory)
	}
	if cfg.Vector.Dimension != 384 {
		t.Fatalf("defaults should survive partial YAML, got dimension %d", cfg.Vector.Dimension)
	}
}

func TestValidateRejectsMissingDSN(t *testing.T) {
	cfg := Default()
	cfg.Vector.Backend = "postgres"
	cfg.Memory.Backend = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestOTLPEndpointEnablesTracing(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(lookupFrom(map[string]string{
		"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4317",
		"NYAYA_ENV":                   "staging",
	}))
	want := TelemetryConfig{Environment: "staging", Exporter: "otlp", Endpoint: "collector:4317", SampleRatio: 1}
	if diff := cmp.Diff(want, cfg.Telemetry); diff != "" {
		t.Fatalf("telemetry mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	cfg.Telemetry.SampleRatio = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected sample ratio to be rejected")
	}
}
