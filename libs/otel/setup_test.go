package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("OTEL_SAMPLING_RATIO", "7")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg := ConfigFromEnv("booking-service")
	if cfg.Enabled {
		t.Fatalf("expected tracing disabled")
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("expected out of range ratio to reset to 1, got %v", cfg.SampleRatio)
	}
	if cfg.OTLPEndpoint != "collector:4317" || cfg.ServiceName != "booking-service" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tp, ts := TraceContextStrings(ctx)
	if tp == "" {
		t.Fatalf("expected traceparent")
	}
	restored := trace.SpanContextFromContext(ContextWithTraceContext(context.Background(), tp, ts))
	if restored.TraceID() != traceID || !restored.IsRemote() {
		t.Fatalf("trace not restored: %v", restored)
	}

	if got := ContextWithTraceContext(context.Background(), "", ""); trace.SpanContextFromContext(got).IsValid() {
		t.Fatalf("expected empty context")
	}
}
