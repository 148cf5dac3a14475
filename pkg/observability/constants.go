package observability

const (
	AttrServiceName     = "service.name"
	AttrServiceVersion  = "service.version"
	AttrAgentName       = "agent.name"
	AttrAgentLLM        = "agent.llm"
	AttrToolName        = "tool.name"
	AttrLLMModel        = "llm.model"
	AttrLLMTokensInput  = "llm.tokens.input"
	AttrLLMTokensOutput = "llm.tokens.output"
	AttrErrorType       = "error.type"
	AttrStatusCode      = "http.status_code"

	// AttrEventID keys a debug span for quick lookup by the event that
	// produced it (a decision ID, a task ID, or a PTC batch ID).
	AttrEventID = "council.event_id"

	AttrHTTPMethod       = "http.method"
	AttrHTTPPath         = "http.route"
	AttrHTTPStatusCode   = "http.status_code"
	AttrHTTPResponseSize = "http.response.body.size"

	SpanToolExecution = "agent.tool_execution"

	// SpanAgentRun is the top-level span for a council agent's think or
	// execute invocation.
	SpanAgentRun = "council.agent.run"

	// SpanLLMCall is a span for a single model completion.
	SpanLLMCall = "council.llm.call"

	// SpanMemorySearch is a span for a memory fabric lookup.
	SpanMemorySearch = "council.memory.search"

	// SpanHTTPRequest is a span for HTTP request handling.
	SpanHTTPRequest = "council.http.request"

	// SpanSandboxRun is a span for one sandboxed script execution.
	SpanSandboxRun = "council.sandbox.run"

	// SpanPTCExecution is a span for one PTC batch script execution.
	SpanPTCExecution = "council.ptc.execute"

	DefaultServiceName = "council"

	// DefaultSamplingRate is the default trace sampling rate.
	DefaultSamplingRate = 1.0

	// DefaultOTLPEndpoint is the default OTLP endpoint.
	DefaultOTLPEndpoint = "localhost:4317"

	// DefaultMetricsPath is the default Prometheus metrics endpoint.
	DefaultMetricsPath = "/metrics"
)
