// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics collection for the council runtime.
type Metrics struct {
	config   *MetricsConfig
	registry *prometheus.Registry

	// Council decision/vote metrics
	decisionsTotal  *prometheus.CounterVec
	votesTotal      *prometheus.CounterVec
	decisionsActive *prometheus.GaugeVec

	// Sandbox metrics
	sandboxRuns        *prometheus.CounterVec
	sandboxRunDuration *prometheus.HistogramVec

	// PTC metrics
	ptcExecutions        *prometheus.CounterVec
	ptcExecutionDuration *prometheus.HistogramVec
	ptcTokenSavedPct     *prometheus.HistogramVec

	// HTTP metrics
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpRequestSize  *prometheus.HistogramVec
	httpResponseSize *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance from configuration.
func NewMetrics(cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	cfg.SetDefaults()

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	m.initCouncilMetrics()
	m.initSandboxMetrics()
	m.initPTCMetrics()
	m.initHTTPMetrics()

	return m, nil
}

func (m *Metrics) initCouncilMetrics() {
	m.decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "council",
			Name:      "decisions_total",
			Help:      "Total number of council decisions recorded, by outcome",
		},
		[]string{"decision"},
	)

	m.votesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "council",
			Name:      "votes_total",
			Help:      "Total number of agent votes cast, by agent and decision",
		},
		[]string{"agent_name", "decision"},
	)

	m.decisionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.config.Namespace,
			Subsystem: "council",
			Name:      "dispatches_in_flight",
			Help:      "Number of tasks currently dispatched to an agent and awaiting a result",
		},
		[]string{"capability"},
	)

	m.registry.MustRegister(m.decisionsTotal, m.votesTotal, m.decisionsActive)
}

func (m *Metrics) initSandboxMetrics() {
	m.sandboxRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "sandbox",
			Name:      "runs_total",
			Help:      "Total number of sandboxed script executions, by provider and status",
		},
		[]string{"provider", "status"},
	)

	m.sandboxRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "sandbox",
			Name:      "run_duration_seconds",
			Help:      "Sandboxed script execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to 163s
		},
		[]string{"provider"},
	)

	m.registry.MustRegister(m.sandboxRuns, m.sandboxRunDuration)
}

func (m *Metrics) initPTCMetrics() {
	m.ptcExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "ptc",
			Name:      "executions_total",
			Help:      "Total number of PTC batch script executions, by outcome",
		},
		[]string{"success"},
	)

	m.ptcExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "ptc",
			Name:      "execution_duration_seconds",
			Help:      "PTC batch script execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to 16s
		},
		[]string{"success"},
	)

	m.ptcTokenSavedPct = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "ptc",
			Name:      "token_saved_ratio",
			Help:      "Fraction of tokens a PTC batch's summary saved versus its raw output",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11), // 0.0 .. 1.0
		},
		[]string{"success"},
	)

	m.registry.MustRegister(m.ptcExecutions, m.ptcExecutionDuration, m.ptcTokenSavedPct)
}

func (m *Metrics) initHTTPMetrics() {
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.httpRequestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7), // 100B to 100MB
		},
		[]string{"method", "path"},
	)

	m.httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7), // 100B to 100MB
		},
		[]string{"method", "path"},
	)

	m.registry.MustRegister(m.httpRequests, m.httpDuration, m.httpRequestSize, m.httpResponseSize)
}

// =============================================================================
// Council Metrics
// =============================================================================

// RecordDecision records a council decision's final outcome.
func (m *Metrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(decision).Inc()
}

// RecordVote records a single agent's vote on a proposal.
func (m *Metrics) RecordVote(agentName, decision string) {
	if m == nil {
		return
	}
	m.votesTotal.WithLabelValues(agentName, decision).Inc()
}

// IncDispatchesInFlight increments the in-flight dispatch gauge for capability.
func (m *Metrics) IncDispatchesInFlight(capability string) {
	if m == nil {
		return
	}
	m.decisionsActive.WithLabelValues(capability).Inc()
}

// DecDispatchesInFlight decrements the in-flight dispatch gauge for capability.
func (m *Metrics) DecDispatchesInFlight(capability string) {
	if m == nil {
		return
	}
	m.decisionsActive.WithLabelValues(capability).Dec()
}

// =============================================================================
// Sandbox Metrics
// =============================================================================

// RecordSandboxRun records one sandboxed script execution.
func (m *Metrics) RecordSandboxRun(provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sandboxRuns.WithLabelValues(provider, status).Inc()
	m.sandboxRunDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// =============================================================================
// PTC Metrics
// =============================================================================

// RecordPTCExecution records one PTC batch script execution.
func (m *Metrics) RecordPTCExecution(success bool, duration time.Duration, tokenSavedPct float64) {
	if m == nil {
		return
	}
	label := boolLabel(success)
	m.ptcExecutions.WithLabelValues(label).Inc()
	m.ptcExecutionDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.ptcTokenSavedPct.WithLabelValues(label).Observe(tokenSavedPct)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// =============================================================================
// HTTP Metrics
// =============================================================================

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	status := statusCodeLabel(statusCode)
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if reqSize > 0 {
		m.httpRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	}
	if respSize > 0 {
		m.httpResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// statusCodeLabel converts a status code to a label string.
func statusCodeLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// =============================================================================
// HTTP Handler
// =============================================================================

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// =============================================================================
// Global Recorder
// =============================================================================

var globalRecorder Recorder = NoopMetrics{}

// SetGlobalMetrics installs the process-wide Recorder. Packages that record
// metrics without holding a reference to the Manager (e.g. the council
// orchestrator, the sandbox runners, and the PTC executor, all of which sit
// well below where a Manager is constructed) go through GetGlobalMetrics
// instead.
func SetGlobalMetrics(r Recorder) {
	if r == nil {
		r = NoopMetrics{}
	}
	globalRecorder = r
}

// GetGlobalMetrics returns the process-wide Recorder, defaulting to a
// no-op implementation until SetGlobalMetrics is called.
func GetGlobalMetrics() Recorder {
	return globalRecorder
}
