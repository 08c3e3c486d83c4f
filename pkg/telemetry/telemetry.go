package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sweetpotato0/nyaya/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config controls initialization of OpenTelemetry exporters.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Disable        bool
	// Exporter is "stdout" or "otlp". Empty picks otlp when Endpoint is set.
	Exporter string
	Endpoint string
	// SampleRatio in (0,1]; zero samples everything.
	SampleRatio float64
	// Writer receives stdout spans, stderr when nil.
	Writer io.Writer
	Logger *slog.Logger
}

func (c Config) exporter() string {
	switch strings.ToLower(c.Exporter) {
	case ExporterOTLP:
		return ExporterOTLP
	case ExporterStdout:
		return ExporterStdout
	}
	if c.Endpoint != "" {
		return ExporterOTLP
	}
	return ExporterStdout
}

func (c Config) sampler() sdktrace.Sampler {
	if c.SampleRatio <= 0 || c.SampleRatio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
}

// Init installs a tracer provider for the answer pipeline.
// The returned shutdown function flushes pending spans.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Disable {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "nyaya"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.WithComponent("telemetry")
	}

	exp, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	resAttrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(cfg.ServiceName),
	}
	if cfg.ServiceVersion != "" {
		resAttrs = append(resAttrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		resAttrs = append(resAttrs, attribute.String("deployment.environment", cfg.Environment))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(resAttrs...),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
			return err
		}
		return nil
	}, nil
}

func newExporter(ctx context.Context, cfg Config, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	if cfg.exporter() == ExporterStdout {
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		logger.Debug("using stdout trace exporter")
		return stdouttrace.New(stdouttrace.WithWriter(w))
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("telemetry: otlp exporter needs an endpoint")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP exporter: %w", err)
	}
	logger.Info("OTLP trace exporter configured", "endpoint", cfg.Endpoint)
	return exp, nil
}

// Tracer returns a named tracer from the global provider. Until Init runs this is a no-op tracer.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartQuery opens the root span of one answered question.
func StartQuery(ctx context.Context, tracer trace.Tracer, caseID string, queryLen int) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer("nyaya")
	}
	return tracer.Start(ctx, "legal.ask", trace.WithAttributes(
		attribute.String("nyaya.case_id", caseID),
		attribute.Int("nyaya.query_length", queryLen),
	))
}

// StartStep opens a span for one pipeline step.
func StartStep(ctx context.Context, tracer trace.Tracer, caseID, step string) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer("nyaya")
	}
	return tracer.Start(ctx, "step."+step, trace.WithAttributes(
		attribute.String("nyaya.case_id", caseID),
		attribute.String("nyaya.step", step),
	))
}

// Annotate records the tier that produced a step's output and its confidence.
func Annotate(span trace.Span, tier string, confidence float64) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.String("nyaya.tier", tier),
		attribute.Float64("nyaya.confidence", confidence),
	)
}

// End finalizes a span and captures the provided error.
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
