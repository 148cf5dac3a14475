// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with council-specific span helpers,
// so callers record council runs, model calls, and tool executions without
// repeating attribute names at every call site.
type Tracer struct {
	provider      *sdktrace.TracerProvider
	tracer        trace.Tracer
	debugExporter *DebugExporter
}

// TracerOption configures optional Tracer behavior.
type TracerOption func(*tracerOptions)

type tracerOptions struct {
	debugExporter    *DebugExporter
	capturePayloads  bool
}

// WithDebugExporter attaches an in-memory span exporter alongside the
// configured network exporter.
func WithDebugExporter(d *DebugExporter) TracerOption {
	return func(o *tracerOptions) { o.debugExporter = d }
}

// WithCapturePayloads enables full request/response capture in spans.
func WithCapturePayloads(capture bool) TracerOption {
	return func(o *tracerOptions) { o.capturePayloads = capture }
}

// NewTracer builds a Tracer from TracingConfig. The exporter is selected by
// cfg.Exporter: "stdout" writes spans to stdout (local debugging), anything
// else (including the "otlp" default) exports over OTLP/gRPC.
func NewTracer(ctx context.Context, cfg *TracingConfig, opts ...TracerOption) (*Tracer, error) {
	options := &tracerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.IsInsecure() {
			traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, traceOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("observability: creating %s exporter: %w", cfg.Exporter, err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: building resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithResource(res),
	}
	if options.debugExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(options.debugExporter))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	return &Tracer{
		provider:      tp,
		tracer:        tp.Tracer(serviceName),
		debugExporter: options.debugExporter,
	}, nil
}

// Start begins a span with the given name and options.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartAgentRun begins a span for one council agent's run.
func (t *Tracer) StartAgentRun(ctx context.Context, agentName, role, model, taskID, sessionID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanAgentRun, trace.WithAttributes(
		attribute.String(AttrAgentName, agentName),
		attribute.String(AttrAgentLLM, model),
		attribute.String("agent.role", role),
		attribute.String("task.id", taskID),
		attribute.String("session.id", sessionID),
	))
}

// StartLLMCall begins a span for a single model call.
func (t *Tracer) StartLLMCall(ctx context.Context, model string, maxTokens int, temperature, topP float64) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanLLMCall, trace.WithAttributes(
		attribute.String(AttrLLMModel, model),
		attribute.Int("llm.max_tokens", maxTokens),
		attribute.Float64("llm.temperature", temperature),
		attribute.Float64("llm.top_p", topP),
	))
}

// StartToolExecution begins a span for a tool invocation.
func (t *Tracer) StartToolExecution(ctx context.Context, toolName, agentName, taskID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanToolExecution, trace.WithAttributes(
		attribute.String(AttrToolName, toolName),
		attribute.String(AttrAgentName, agentName),
		attribute.String("task.id", taskID),
	))
}

// StartMemorySearch begins a span for a memory fabric lookup.
func (t *Tracer) StartMemorySearch(ctx context.Context, tier string, limit int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanMemorySearch, trace.WithAttributes(
		attribute.String("memory.tier", tier),
		attribute.Int("memory.limit", limit),
	))
}

// AddLLMUsage records token usage on an active span.
func (t *Tracer) AddLLMUsage(span trace.Span, inputTokens, outputTokens int) {
	span.SetAttributes(
		attribute.Int(AttrLLMTokensInput, inputTokens),
		attribute.Int(AttrLLMTokensOutput, outputTokens),
	)
}

// AddLLMFinishReason records why a model call stopped generating.
func (t *Tracer) AddLLMFinishReason(span trace.Span, reason string) {
	span.SetAttributes(attribute.String("llm.finish_reason", reason))
}

// AddPayload attaches a request/response payload to a span. It always sets
// the attributes; the WithCapturePayloads option is not consulted.
func (t *Tracer) AddPayload(span trace.Span, request, response string) {
	span.SetAttributes(
		attribute.String("llm.request", request),
		attribute.String("llm.response", response),
	)
}

// AddToolPayload attaches a tool call's arguments and result to a span.
func (t *Tracer) AddToolPayload(span trace.Span, args, result string) {
	span.SetAttributes(
		attribute.String("tool.args", args),
		attribute.String("tool.result", result),
	)
}

// RecordError marks a span as failed and records the error.
func (t *Tracer) RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String(AttrErrorType, err.Error()))
}

// DebugExporter returns the attached in-memory exporter, or nil if none
// was configured.
func (t *Tracer) DebugExporter() *DebugExporter {
	return t.debugExporter
}

// Shutdown flushes and stops the underlying tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
