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

// Package hooks implements the council's hook pipeline: named,
// priority-ordered interceptors that run before and after every tool
// call, able to allow, block, rewrite arguments, or demand a retry.
package hooks

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Type names a point in the tool-call lifecycle a hook attaches to.
type Type string

const (
	TypeSessionStart Type = "session_start"
	TypePreToolUse   Type = "pre_tool_use"
	TypePostToolUse  Type = "post_tool_use"
)

// Action is a hook's verdict.
type Action string

const (
	ActionAllow  Action = "allow"
	ActionBlock  Action = "block"
	ActionModify Action = "modify"
	ActionRetry  Action = "retry"
)

// Result is what running a hook produces.
type Result struct {
	Action       Action
	Message      string
	Metadata     map[string]any
	ModifiedData map[string]any
	Err          error
	Timestamp    time.Time
}

// Success reports whether the result does not block the call.
func (r Result) Success() bool { return r.Action != ActionBlock }

// Context carries everything a hook needs to make its decision.
type Context struct {
	Type       Type
	SessionID  string
	AgentName  string
	ToolName   string
	ToolArgs   map[string]any
	ToolResult any
	WorkingDir string
	EnvVars    map[string]string
	Metadata   map[string]any
}

// WithTool returns a copy of c scoped to a specific tool invocation.
func (c Context) WithTool(name string, args map[string]any) Context {
	c.ToolName = name
	c.ToolArgs = args
	return c
}

// Hook is a single named, prioritized interceptor. Lower Priority runs
// first.
type Hook interface {
	Name() string
	Priority() int
	HookType() Type
	Execute(ctx context.Context, hc Context) Result
}

// Manager registers hooks by type and triggers them in priority order,
// guarding against runaway recursive triggering with a depth limit.
type Manager struct {
	mu               sync.Mutex
	hooks            map[Type][]Hook
	disabled         map[string]bool
	recursionDepth   int
	maxRecursionDepth int
	logger           *slog.Logger
}

// NewManager builds a Manager with the given recursion guard depth.
func NewManager(maxRecursionDepth int, logger *slog.Logger) *Manager {
	if maxRecursionDepth <= 0 {
		maxRecursionDepth = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		hooks:             make(map[Type][]Hook),
		disabled:          make(map[string]bool),
		maxRecursionDepth: maxRecursionDepth,
		logger:            logger,
	}
}

// Register adds a hook, keeping each type's list sorted by priority.
func (m *Manager) Register(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.hooks[h.HookType()], h)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Priority() < list[j].Priority() })
	m.hooks[h.HookType()] = list
	m.logger.Info("hook registered", "name", h.Name(), "type", h.HookType(), "priority", h.Priority())
}

// Unregister removes every hook with the given name, across all types
// unless restricted to one.
func (m *Manager) Unregister(name string, restrictTo ...Type) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := restrictTo
	if len(types) == 0 {
		for t := range m.hooks {
			types = append(types, t)
		}
	}

	removed := false
	for _, t := range types {
		list := m.hooks[t]
		kept := list[:0]
		for _, h := range list {
			if h.Name() == name {
				removed = true
				continue
			}
			kept = append(kept, h)
		}
		m.hooks[t] = kept
	}
	return removed
}

// Disable turns off a hook by name without unregistering it.
func (m *Manager) Disable(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled[name] = true
}

// Enable re-enables a previously disabled hook.
func (m *Manager) Enable(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.disabled, name)
}

func (m *Manager) enabledHooks(t Type) []Hook {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Hook
	for _, h := range m.hooks[t] {
		if !m.disabled[h.Name()] {
			out = append(out, h)
		}
	}
	return out
}

// Trigger runs every enabled hook of type t in priority order.
// stopOnBlock controls whether the first BLOCK result short-circuits
// the remaining chain; PreToolUse hooks should set this true, PostToolUse
// hooks false (all quality gates should still run and report).
func (m *Manager) Trigger(ctx context.Context, t Type, hc Context, stopOnBlock bool) Result {
	m.mu.Lock()
	if m.recursionDepth >= m.maxRecursionDepth {
		m.mu.Unlock()
		m.logger.Warn("max hook recursion depth reached", "depth", m.maxRecursionDepth)
		return Result{Action: ActionAllow, Message: "max recursion depth reached", Metadata: map[string]any{"skipped": true}}
	}
	m.recursionDepth++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.recursionDepth--
		m.mu.Unlock()
	}()

	hooks := m.enabledHooks(t)
	if len(hooks) == 0 {
		return Result{Action: ActionAllow, Message: "no hooks registered"}
	}

	var results []Result
	current := hc

	for _, h := range hooks {
		result := m.runHook(ctx, h, current)
		results = append(results, result)

		if result.Action == ActionBlock && stopOnBlock {
			m.logger.Warn("hook blocked execution", "name", h.Name(), "message", result.Message)
			return result
		}
		if result.Action == ActionModify && result.ModifiedData != nil {
			current = mergeModified(current, result.ModifiedData)
		}
	}

	for _, r := range results {
		if r.Action == ActionRetry {
			return r
		}
	}
	return results[len(results)-1]
}

func (m *Manager) runHook(ctx context.Context, h Hook, hc Context) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("hook panicked", "name", h.Name(), "recovered", rec)
			result = Result{Action: ActionAllow, Message: "hook panicked", Err: nil}
		}
	}()
	return h.Execute(ctx, hc)
}

func mergeModified(hc Context, modified map[string]any) Context {
	if toolName, ok := modified["tool_name"].(string); ok {
		hc.ToolName = toolName
	}
	if toolArgs, ok := modified["tool_args"].(map[string]any); ok {
		hc.ToolArgs = toolArgs
	}
	if metadata, ok := modified["metadata"].(map[string]any); ok {
		hc.Metadata = metadata
	}
	return hc
}

// TriggerSessionStart runs every session_start hook.
func (m *Manager) TriggerSessionStart(ctx context.Context, hc Context) Result {
	hc.Type = TypeSessionStart
	return m.Trigger(ctx, TypeSessionStart, hc, true)
}

// TriggerPreToolUse runs every pre_tool_use hook, stopping at the first
// block.
func (m *Manager) TriggerPreToolUse(ctx context.Context, hc Context) Result {
	hc.Type = TypePreToolUse
	return m.Trigger(ctx, TypePreToolUse, hc, true)
}

// TriggerPostToolUse runs every post_tool_use hook; a block from one
// gate does not stop the rest from running and reporting.
func (m *Manager) TriggerPostToolUse(ctx context.Context, hc Context) Result {
	hc.Type = TypePostToolUse
	return m.Trigger(ctx, TypePostToolUse, hc, false)
}

// Stats reports how many hooks are registered per type.
func (m *Manager) Stats() map[Type]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Type]int, len(m.hooks))
	for t, hooks := range m.hooks {
		out[t] = len(hooks)
	}
	return out
}

// Clear removes every registered hook.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = make(map[Type][]Hook)
	m.disabled = make(map[string]bool)
}
