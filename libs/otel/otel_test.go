package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), DefaultConfig("site-service"))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupEnabledNeedsEndpoint(t *testing.T) {
	cfg := DefaultConfig("site-service")
	cfg.Enabled = true
	cfg.OTLPEndpoint = ""
	if _, err := Setup(context.Background(), cfg); err == nil {
		t.Fatal("expected error without endpoint")
	}
}

func TestAttributes(t *testing.T) {
	attrs := Attributes(Config{ServiceName: "notification-service", Environment: "staging"})
	got := map[string]string{}
	for _, kv := range attrs {
		got[string(kv.Key)] = kv.Value.AsString()
	}
	if got["service.name"] != "notification-service" || got["deployment.environment"] != "staging" {
		t.Fatalf("attributes = %v", got)
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	parent, state := TraceContextStrings(ctx)
	if parent == "" {
		t.Fatal("expected traceparent")
	}
	restored := trace.SpanContextFromContext(ContextWithTraceContext(context.Background(), parent, state))
	if restored.TraceID() != traceID || !restored.IsRemote() {
		t.Fatalf("restored %+v", restored)
	}

	bare := context.Background()
	if ContextWithTraceContext(bare, "", "") != bare {
		t.Fatal("empty trace context should leave ctx untouched")
	}
}
