package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder))

	prev := globalTracer
	globalTracer = &Tracer{tracer: tp.Tracer("test")}
	t.Cleanup(func() {
		globalTracer = prev
		tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartAndEnd(t *testing.T) {
	recorder := useRecorder(t)

	_, span := Start(context.Background(), "offer.send", "offer.id", "abc", "dangling")
	End(span, errors.New("relay down"))

	_, clean := Start(context.Background(), "offer.view")
	End(clean, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(spans))
	}

	failed := spans[0]
	if failed.Name() != "offer.send" || failed.Status().Code != codes.Error {
		t.Errorf("Unexpected failed span %s %v", failed.Name(), failed.Status())
	}
	if attrs := failed.Attributes(); len(attrs) != 1 || attrs[0].Value.AsString() != "abc" {
		t.Errorf("Expected one attribute, got %v", attrs)
	}
	if len(failed.Events()) != 1 {
		t.Errorf("Expected the error recorded as an event, got %d", len(failed.Events()))
	}

	if spans[1].Status().Code != codes.Unset {
		t.Errorf("Expected unset status, got %v", spans[1].Status().Code)
	}
}

func TestInitTracing_Disabled(t *testing.T) {
	prev := globalTracer
	t.Cleanup(func() { globalTracer = prev })

	tr, err := InitTracing(Config{})
	if err != nil {
		t.Fatalf("InitTracing failed: %v", err)
	}
	if GetTracer() != tr {
		t.Error("Expected the disabled tracer to become global")
	}

	_, span := Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("Expected a no-op span")
	}
	End(span, errors.New("ignored"))

	if err := Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown without an SDK provider should be a no-op: %v", err)
	}
}

func TestGetTracer_Uninitialised(t *testing.T) {
	prev := globalTracer
	globalTracer = nil
	t.Cleanup(func() { globalTracer = prev })

	if GetTracer() == nil {
		t.Fatal("Expected a fallback tracer")
	}
}

func TestConfigSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		got := Config{SampleRatio: tt.ratio}.sampler().Description()
		if !strings.Contains(got, tt.want) {
			t.Errorf("Ratio %v: expected %s in %q", tt.ratio, tt.want, got)
		}
	}
}
