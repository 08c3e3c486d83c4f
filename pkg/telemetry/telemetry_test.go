package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Disable: true})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestStdoutExporterWritesStepSpans(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{ServiceName: "nyaya-test", Exporter: ExporterStdout, Writer: &buf})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	qctx, query := StartQuery(ctx, Tracer("test"), "case-1", 12)
	_, step := StartStep(qctx, Tracer("test"), "case-1", "classify")
	Annotate(step, "heuristic", 0.6)
	End(step, errors.New("vector store down"))
	End(query, nil)

	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"step.classify", "legal.ask", "nyaya.tier", "vector store down"} {
		if !strings.Contains(out, want) {
			t.Fatalf("exported spans missing %q:\n%s", want, out)
		}
	}
}

func TestConfigExporterSelection(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{}, ExporterStdout},
		{Config{Endpoint: "collector:4317"}, ExporterOTLP},
		{Config{Exporter: "STDOUT", Endpoint: "collector:4317"}, ExporterStdout},
		{Config{Exporter: "otlp"}, ExporterOTLP},
	}
	for _, tt := range tests {
		if got := tt.cfg.exporter(); got != tt.want {
			t.Fatalf("exporter(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestOTLPWithoutEndpointFails(t *testing.T) {
	if _, err := Init(context.Background(), Config{Exporter: ExporterOTLP}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}

func TestHelpersTolerateNilSpan(t *testing.T) {
	Annotate(nil, "rule", 0)
	End(nil, nil)
}
