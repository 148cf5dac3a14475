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

package ptc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/councilrun/council/pkg/observability"
	"github.com/councilrun/council/pkg/reducer"
	"github.com/councilrun/council/pkg/sandbox"
)

// ToolFunc is a callable tool exposed to a script's "tools.<name>(...)".
type ToolFunc func(ctx context.Context, args []any) (string, error)

// Result is what a script execution returns to the caller: a compressed
// Summary for the model's context, plus the combined raw output in
// FullOutput.
type Result struct {
	Success       bool
	Summary       string
	TokenSaved    float64
	ExecutionTime time.Duration
	FullOutput    string
	Anomalies     []string
	TokenStats    TokenStats

	// SandboxUsed names the sandbox provider that backed this run, or
	// sandbox.ProviderNone when the script never reached one (a security
	// violation or a pre-execution hook veto short-circuits before any
	// tool call runs).
	SandboxUsed sandbox.Provider
}

// TokenStats reports the estimated token cost of a run versus its summary.
type TokenStats struct {
	OriginalTokens int
	SummaryTokens  int
	SavedTokens    int
}

// Executor validates, runs, and summarizes batch tool-call scripts.
type Executor struct {
	Tools      map[string]ToolFunc
	Reducer    *reducer.Reducer
	MaxSummary int
	preHook    func(ctx context.Context, script string) error

	sandboxRunner   sandbox.Runner
	sandboxProvider sandbox.Provider
	sandboxTimeout  time.Duration
}

// NewExecutor builds an Executor over the given tool set.
func NewExecutor(tools map[string]ToolFunc, maxSummaryChars int) *Executor {
	if maxSummaryChars <= 0 {
		maxSummaryChars = 2000
	}
	return &Executor{
		Tools:           tools,
		Reducer:         reducer.New(maxSummaryChars),
		MaxSummary:      maxSummaryChars,
		sandboxProvider: sandbox.ProviderNone,
	}
}

// WithPreHook registers a hook invoked before execution; returning an error
// aborts the run (used by the governance gateway to veto risky scripts).
func (e *Executor) WithPreHook(hook func(ctx context.Context, script string) error) *Executor {
	e.preHook = hook
	return e
}

// WithSandbox routes every accepted script through runner before the batch
// interpreter evaluates it against Tools, so the executor reports which
// isolation boundary — Sandbox (C1) — actually backed the run. Passing a
// nil runner reverts to in-process execution (SandboxUsed stays "none").
func (e *Executor) WithSandbox(runner sandbox.Runner, provider sandbox.Provider, timeout time.Duration) *Executor {
	e.sandboxRunner = runner
	e.sandboxProvider = provider
	e.sandboxTimeout = timeout
	return e
}

// Execute validates code, runs it against the registered tools, and returns
// a Result with a bounded summary of the raw output and the raw output itself.
func (e *Executor) Execute(ctx context.Context, code string) (result Result, err error) {
	start := time.Now()
	metrics := observability.GetGlobalMetrics()
	defer func() {
		metrics.RecordPTCExecution(result.Success, time.Since(start), result.TokenSaved)
	}()

	script, violations := ParseAndValidate(code)
	if len(violations) > 0 {
		return Result{
			Success:     false,
			Summary:     fmt.Sprintf("代码安全违规: %s", strings.Join(violations, "; ")),
			SandboxUsed: sandbox.ProviderNone,
		}, nil
	}

	if e.preHook != nil {
		if hookErr := e.preHook(ctx, code); hookErr != nil {
			return Result{Success: false, Summary: fmt.Sprintf("blocked by pre-execution hook: %v", hookErr), SandboxUsed: sandbox.ProviderNone}, nil
		}
	}

	sandboxUsed := sandbox.ProviderNone
	if e.sandboxRunner != nil {
		runStart := time.Now()
		_, runErr := e.sandboxRunner.Run(ctx, code, e.sandboxTimeout)
		status := "success"
		if runErr != nil {
			status = "failure"
		}
		metrics.RecordSandboxRun(string(e.sandboxProvider), status, time.Since(runStart))
		if runErr != nil {
			return Result{Success: false, Summary: fmt.Sprintf("sandbox run failed: %v", runErr), SandboxUsed: e.sandboxProvider}, nil
		}
		sandboxUsed = e.sandboxProvider
	}

	out, execErr := e.run(ctx, script)
	elapsed := time.Since(start)

	stdout := out
	stderr := ""
	if execErr != nil {
		stderr = execErr.Error()
	}

	combined := stdout + stderr
	summary := e.Reducer.Reduce(stdout, stderr, 0)
	anomalies := reducer.ExtractAnomalies(combined)
	descriptions := make([]string, len(anomalies))
	for i, a := range anomalies {
		descriptions[i] = a.Description
	}

	originalTokens := CountTokens(combined)
	summaryTokens := CountTokens(summary)
	tokenSaved := 0.0
	if originalTokens > 0 {
		tokenSaved = 1 - float64(summaryTokens)/float64(originalTokens)
		if tokenSaved < 0 {
			tokenSaved = 0
		}
	}

	return Result{
		Success:       execErr == nil,
		Summary:       summary,
		TokenSaved:    tokenSaved,
		ExecutionTime: elapsed,
		FullOutput:    combined,
		Anomalies:     descriptions,
		TokenStats: TokenStats{
			OriginalTokens: originalTokens,
			SummaryTokens:  summaryTokens,
			SavedTokens:    originalTokens - summaryTokens,
		},
		SandboxUsed: sandboxUsed,
	}, nil
}

// run executes every statement in order against e.Tools, threading variable
// bindings through an environment scoped to this single call.
func (e *Executor) run(ctx context.Context, script *Script) (string, error) {
	env := map[string]any{}
	var out strings.Builder

	for _, stmt := range script.Statements {
		result, err := e.evalCall(ctx, env, stmt.Call)
		if err != nil {
			return out.String(), err
		}
		out.WriteString(result)
		out.WriteString("\n")
		if stmt.Assign != "" {
			env[stmt.Assign] = result
		}
	}

	return out.String(), nil
}

func (e *Executor) evalCall(ctx context.Context, env map[string]any, call Call) (string, error) {
	fn, ok := e.Tools[call.Tool]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", call.Tool)
	}

	args := make([]any, len(call.Args))
	for i, a := range call.Args {
		v, err := e.evalExpr(ctx, env, a)
		if err != nil {
			return "", err
		}
		args[i] = v
	}

	return fn(ctx, args)
}

func (e *Executor) evalExpr(ctx context.Context, env map[string]any, expr Expr) (any, error) {
	switch expr.Kind {
	case ExprString:
		return expr.String, nil
	case ExprNumber:
		return expr.Number, nil
	case ExprIdent:
		v, ok := env[expr.Ident]
		if !ok {
			return nil, fmt.Errorf("undefined variable: %s", expr.Ident)
		}
		return v, nil
	case ExprCall:
		return e.evalCall(ctx, env, *expr.Call)
	default:
		return nil, fmt.Errorf("unknown expression kind")
	}
}
