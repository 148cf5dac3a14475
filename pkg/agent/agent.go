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

// Package agent implements the council's role-bound agent kernel: a
// uniform think/vote/execute contract backed by a rolling-history
// session, per-agent memory binding, and pointers to the tool surface.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/councilrun/council/pkg/memory"
	"github.com/councilrun/council/pkg/observability"
	"github.com/councilrun/council/pkg/ptc"
	"github.com/councilrun/council/pkg/sandbox"
	"github.com/councilrun/council/pkg/toolregistry"
)

// VoteDecision is an agent's position on a proposal.
type VoteDecision string

const (
	DecisionApprove            VoteDecision = "approve"
	DecisionApproveWithChanges VoteDecision = "approve_with_changes"
	DecisionHold               VoteDecision = "hold"
	DecisionReject             VoteDecision = "reject"
)

// ThinkResult is the output of Agent.Think.
type ThinkResult struct {
	Analysis    string
	Concerns    []string
	Suggestions []string
	Confidence  float64
	Context     string
}

// Vote is the output of Agent.Vote.
type Vote struct {
	AgentName  string
	Decision   VoteDecision
	Confidence float64
	Rationale  string
}

// ExecuteResult is the output of Agent.Execute.
type ExecuteResult struct {
	Success     bool
	Output      string
	ChangesMade []string
	Errors      []string
}

// Completer performs a single model completion given a rendered prompt.
// It is the LLM-call seam every agent routes through, so tests and
// alternate providers can substitute a fake.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Config configures a new Agent.
type Config struct {
	Name         string
	Role         string
	SystemPrompt string
	Model        string
	Completer    Completer
	Memory       *memory.Fabric
	Tools        *toolregistry.Registry
	Sandbox      sandbox.Runner
	Logger       *slog.Logger

	MaxContextTokens     int
	CompressionThreshold float64

	// SandboxProvider identifies the Sandbox runner for reporting purposes
	// (pkg/ptc needs a label, the Runner interface does not carry one).
	SandboxProvider sandbox.Provider

	// PTCTools lists the externally-registered Tools entries a PTC batch
	// script (a plan prefixed with "ptc:") is allowed to call. Leaving it
	// empty disables PTC batch execution for this agent.
	PTCTools           []string
	PTCMaxSummaryChars int
}

// Agent is a role-bound handler exposing think/vote/execute, with its own
// system prompt, model selection, rolling session history, and bindings
// to the shared memory fabric, tool registry, and sandbox.
type Agent struct {
	name            string
	role            string
	sysPrompt       string
	model           string
	completer       Completer
	mem             *memory.Fabric
	tools           *toolregistry.Registry
	sandbox         sandbox.Runner
	sandboxProvider sandbox.Provider
	logger          *slog.Logger
	ptc             *ptc.Executor

	session *memory.RollingContext
}

// New builds an Agent from cfg. A nil Completer is valid for agents
// exercised purely through Execute (e.g. tool-only agents); Think and
// Vote will return an error if called without one.
func New(cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	provider := cfg.SandboxProvider
	if provider == "" && cfg.Sandbox != nil {
		provider = sandbox.ProviderLocal
	}

	a := &Agent{
		name:            cfg.Name,
		role:            cfg.Role,
		sysPrompt:       cfg.SystemPrompt,
		model:           cfg.Model,
		completer:       cfg.Completer,
		mem:             cfg.Memory,
		tools:           cfg.Tools,
		sandbox:         cfg.Sandbox,
		sandboxProvider: provider,
		logger:          logger.With("agent", cfg.Name, "role", cfg.Role),
		session:         memory.NewRollingContext(cfg.MaxContextTokens, cfg.CompressionThreshold, nil),
	}
	a.session.SetStaticContext(cfg.SystemPrompt)

	if cfg.Tools != nil && len(cfg.PTCTools) > 0 {
		a.ptc = ptc.NewExecutor(registryToolFuncs(cfg.Tools, cfg.PTCTools), cfg.PTCMaxSummaryChars)
		if cfg.Sandbox != nil {
			a.ptc = a.ptc.WithSandbox(cfg.Sandbox, provider, 0)
		}
	}

	return a
}

// registryToolFuncs adapts a toolregistry.Registry's external tool
// dispatch to the ptc.ToolFunc shape a batch script calls into, so PTC
// scripts (C3) reach the same tool surface as everything else instead of
// maintaining a parallel one.
func registryToolFuncs(reg *toolregistry.Registry, names []string) map[string]ptc.ToolFunc {
	out := make(map[string]ptc.ToolFunc, len(names))
	for _, name := range names {
		name := name
		out[name] = func(ctx context.Context, args []any) (string, error) {
			strArgs := make(map[string]string, len(args))
			for i, a := range args {
				strArgs[fmt.Sprintf("arg%d", i)] = fmt.Sprintf("%v", a)
			}
			return reg.CallExternal(name, strArgs)
		}
	}
	return out
}

// Name returns the agent's configured name.
func (a *Agent) Name() string { return a.name }

// contextBlock queries the bound memory fabric for records relevant to
// task and renders them into a compact prefix, mirroring a
// memory_aggregator.query(task) call ahead of every LLM invocation.
func (a *Agent) contextBlock(ctx context.Context, task string) string {
	if a.mem == nil {
		return ""
	}
	records, err := a.mem.HybridSearch(ctx, memory.TierWorking, nil, task, 5)
	if err != nil || len(records) == 0 {
		return ""
	}
	block := "=== RELEVANT MEMORY ===\n"
	for _, r := range records {
		block += "- " + r.Content + "\n"
	}
	return block
}

// remember writes a notable outcome to session memory, mirroring the
// source's smart_remember call after execution.
func (a *Agent) remember(ctx context.Context, content string) {
	if a.mem == nil || content == "" {
		return
	}
	if _, err := a.mem.Store(ctx, memory.TierWorking, content, nil, map[string]any{"agent": a.name}); err != nil {
		a.logger.Warn("failed to record memory", "error", err)
	}
}

// Think analyzes a task and returns structured findings without taking
// any action.
func (a *Agent) Think(ctx context.Context, task string) (ThinkResult, error) {
	if a.completer == nil {
		return ThinkResult{}, fmt.Errorf("agent %s: no completer configured for think", a.name)
	}

	mem := a.contextBlock(ctx, task)
	a.session.AddTurn("user", task)
	prompt := a.session.ContextForPrompt(true)
	if mem != "" {
		prompt = mem + "\n\n" + prompt
	}

	out, err := a.completer.Complete(ctx, a.sysPrompt, prompt)
	if err != nil {
		return ThinkResult{}, fmt.Errorf("agent %s: think: %w", a.name, err)
	}
	a.session.AddTurn("assistant", out)

	return ThinkResult{
		Analysis:   out,
		Confidence: 0.7,
		Context:    prompt,
	}, nil
}

// Vote evaluates a proposal and returns this agent's position on it.
func (a *Agent) Vote(ctx context.Context, proposal string) (Vote, error) {
	if a.completer == nil {
		return Vote{}, fmt.Errorf("agent %s: no completer configured for vote", a.name)
	}

	prompt := fmt.Sprintf("Proposal:\n%s\n\nRespond with your decision (approve, approve_with_changes, hold, reject) and a brief rationale.", proposal)
	out, err := a.completer.Complete(ctx, a.sysPrompt, prompt)
	if err != nil {
		return Vote{}, fmt.Errorf("agent %s: vote: %w", a.name, err)
	}

	return Vote{
		AgentName:  a.name,
		Decision:   parseDecision(out),
		Confidence: 0.6,
		Rationale:  out,
	}, nil
}

func parseDecision(text string) VoteDecision {
	lower := text
	for _, d := range []VoteDecision{DecisionApproveWithChanges, DecisionApprove, DecisionHold, DecisionReject} {
		if containsFold(lower, string(d)) {
			return d
		}
	}
	return DecisionHold
}

func containsFold(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		match := true
		for j := 0; j < len(substr); j++ {
			a, b := s[i+j], substr[j]
			if 'A' <= a && a <= 'Z' {
				a += 'a' - 'A'
			}
			if 'A' <= b && b <= 'Z' {
				b += 'a' - 'A'
			}
			if a != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Execute carries out a task, optionally following a plan, and reports
// the outcome. A plan prefixed with "ptc:" is a PTC (C3) batch tool-call
// script and runs through the agent's PTC executor instead of the raw
// sandbox, trading a per-call round trip for one bounded summary. Any
// other non-empty plan runs as a sandboxed command, if a sandbox is bound.
func (a *Agent) Execute(ctx context.Context, taskDesc, plan string) (ExecuteResult, error) {
	if script, ok := strings.CutPrefix(plan, "ptc:"); ok && a.ptc != nil {
		res, err := a.ptc.Execute(ctx, script)
		if err != nil {
			return ExecuteResult{}, fmt.Errorf("agent %s: ptc execute: %w", a.name, err)
		}
		result := ExecuteResult{Success: res.Success, Output: res.Summary}
		if !res.Success {
			result.Errors = res.Anomalies
		}
		a.remember(ctx, fmt.Sprintf("executed ptc batch %q: success=%v sandbox=%s tokens_saved=%.0f%%", taskDesc, res.Success, res.SandboxUsed, res.TokenSaved*100))
		return result, nil
	}

	if plan == "" || a.sandbox == nil {
		result := ExecuteResult{Success: true, Output: "no executable plan; recorded as analysis-only"}
		a.remember(ctx, fmt.Sprintf("executed %q: %s", taskDesc, result.Output))
		return result, nil
	}

	runStart := time.Now()
	res, err := a.sandbox.Run(ctx, plan, 0)
	if err != nil {
		observability.GetGlobalMetrics().RecordSandboxRun(string(a.sandboxProvider), "error", time.Since(runStart))
		a.logger.Error("execution failed", "error", err)
		return ExecuteResult{Success: false, Errors: []string{err.Error()}}, nil
	}

	success := res.Status == sandbox.StatusSuccess
	status := "failure"
	if success {
		status = "success"
	}
	observability.GetGlobalMetrics().RecordSandboxRun(string(a.sandboxProvider), status, time.Since(runStart))
	result := ExecuteResult{
		Success: success,
		Output:  res.Stdout,
	}
	if !success {
		result.Errors = []string{res.Stderr}
	}
	a.remember(ctx, fmt.Sprintf("executed %q: success=%v", taskDesc, success))
	return result, nil
}
