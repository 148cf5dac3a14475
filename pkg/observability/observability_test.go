package observability

import (
	"context"
	"testing"
	"time"
)

func TestMetricsRecording(t *testing.T) {
	cfg := &MetricsConfig{Enabled: true}
	metrics, err := NewMetrics(cfg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	metrics.RecordDecision("approve")
	metrics.RecordDecision("reject")
}

func TestVoteMetricsRecording(t *testing.T) {
	metrics, err := NewMetrics(&MetricsConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	metrics.RecordVote("security", "approve_with_changes")
	metrics.RecordVote("architect", "approve")
}

func TestSandboxMetricsRecording(t *testing.T) {
	metrics, err := NewMetrics(&MetricsConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	metrics.RecordSandboxRun("local", "success", 50*time.Millisecond)
	metrics.RecordSandboxRun("container", "failure", 2*time.Second)
}

func TestPTCMetricsRecording(t *testing.T) {
	metrics, err := NewMetrics(&MetricsConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	metrics.RecordPTCExecution(true, 10*time.Millisecond, 0.82)
	metrics.RecordPTCExecution(false, 5*time.Millisecond, 0)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.RecordDecision("approve")
	metrics.RecordSandboxRun("local", "success", 50*time.Millisecond)
	metrics.RecordPTCExecution(true, time.Millisecond, 0.5)
}

func TestNoopMetrics(t *testing.T) {
	var r Recorder = NoopMetrics{}
	r.RecordDecision("approve")
	r.RecordVote("security", "approve")
	r.RecordSandboxRun("local", "success", 50*time.Millisecond)
	r.RecordPTCExecution(true, time.Millisecond, 0.5)
}

func TestGlobalMetrics(t *testing.T) {
	if GetGlobalMetrics() == nil {
		t.Fatal("expected a default no-op recorder before SetGlobalMetrics")
	}

	SetGlobalMetrics(NoopMetrics{})
	r := GetGlobalMetrics()
	if r == nil {
		t.Fatal("expected non-nil recorder after SetGlobalMetrics")
	}
	r.RecordDecision("approve")
}

func TestNoopTracer(t *testing.T) {
	tracer := NoopTracer{}

	ctx := context.Background()
	_, span := tracer.Start(ctx, "test_span")
	defer span.End()
}

func TestNewTracerStdoutExporter(t *testing.T) {
	ctx := context.Background()
	cfg := &TracingConfig{
		Enabled:      true,
		Exporter:     "stdout",
		ServiceName:  "council-test",
		SamplingRate: 1.0,
	}
	cfg.SetDefaults()

	debug := NewDebugExporter()
	tracer, err := NewTracer(ctx, cfg, WithDebugExporter(debug))
	if err != nil {
		t.Fatalf("NewTracer: %v", err)
	}
	defer tracer.Shutdown(ctx)

	_, span := tracer.StartAgentRun(ctx, "planner", "planner", "gpt-4o", "task-1", "session-1")
	tracer.AddLLMUsage(span, 10, 5)
	span.End()

	if err := tracer.provider.ForceFlush(ctx); err != nil {
		t.Fatalf("ForceFlush: %v", err)
	}
	if tracer.DebugExporter().Count() == 0 {
		t.Fatal("expected the debug exporter to capture the agent run span")
	}
}

func TestStringTruncation(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"", 5, ""},
		{"test", 4, "test"},
		{"toolongstring", 4, "tool..."},
	}

	for _, tt := range tests {
		result := truncateString(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func BenchmarkMetricsRecording(b *testing.B) {
	metrics, err := NewMetrics(&MetricsConfig{Enabled: true})
	if err != nil {
		b.Fatalf("NewMetrics: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		metrics.RecordDecision("approve")
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
