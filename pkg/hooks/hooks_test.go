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

package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type allowHook struct {
	name     string
	priority int
	typ      Type
}

func (h allowHook) Name() string   { return h.name }
func (h allowHook) Priority() int  { return h.priority }
func (h allowHook) HookType() Type { return h.typ }
func (h allowHook) Execute(ctx context.Context, hc Context) Result {
	return Result{Action: ActionAllow}
}

type blockHook struct{ allowHook }

func (h blockHook) Execute(ctx context.Context, hc Context) Result {
	return Result{Action: ActionBlock, Message: "blocked by test hook"}
}

func TestManagerTriggerRunsInPriorityOrder(t *testing.T) {
	m := NewManager(3, nil)
	var order []string

	m.Register(orderHook{name: "second", priority: 20, order: &order})
	m.Register(orderHook{name: "first", priority: 10, order: &order})

	m.TriggerPreToolUse(context.Background(), Context{ToolName: "read_file"})
	require.Equal(t, []string{"first", "second"}, order)
}

type orderHook struct {
	name     string
	priority int
	order    *[]string
}

func (h orderHook) Name() string   { return h.name }
func (h orderHook) Priority() int  { return h.priority }
func (h orderHook) HookType() Type { return TypePreToolUse }
func (h orderHook) Execute(ctx context.Context, hc Context) Result {
	*h.order = append(*h.order, h.name)
	return Result{Action: ActionAllow}
}

func TestManagerStopsOnBlock(t *testing.T) {
	m := NewManager(3, nil)
	m.Register(blockHook{allowHook{name: "blocker", priority: 10, typ: TypePreToolUse}})
	m.Register(allowHook{name: "never_runs", priority: 20, typ: TypePreToolUse})

	result := m.TriggerPreToolUse(context.Background(), Context{ToolName: "run_command"})
	require.Equal(t, ActionBlock, result.Action)
}

func TestManagerRecursionGuard(t *testing.T) {
	m := NewManager(1, nil)
	m.Register(allowHook{name: "a", priority: 10, typ: TypePreToolUse})

	m.mu.Lock()
	m.recursionDepth = 1
	m.mu.Unlock()

	result := m.Trigger(context.Background(), TypePreToolUse, Context{}, true)
	require.Equal(t, ActionAllow, result.Action)
	require.True(t, result.Metadata["skipped"].(bool))
}

func TestPreToolUseHookBlocksDangerousCommand(t *testing.T) {
	h := NewPreToolUseHook(nil, nil, nil)
	result := h.Execute(context.Background(), Context{
		ToolName: "run_command",
		ToolArgs: map[string]any{"command": "rm -rf /"},
	})
	require.Equal(t, ActionBlock, result.Action)
}

func TestPreToolUseHookAllowsSafeCommand(t *testing.T) {
	h := NewPreToolUseHook(nil, nil, nil)
	result := h.Execute(context.Background(), Context{
		ToolName: "run_command",
		ToolArgs: map[string]any{"command": "ls -la"},
	})
	require.Equal(t, ActionAllow, result.Action)
}

func TestPreToolUseHookBlocksSensitivePath(t *testing.T) {
	h := NewPreToolUseHook(nil, nil, nil)
	result := h.Execute(context.Background(), Context{
		ToolName: "read_file",
		ToolArgs: map[string]any{"path": "/home/user/.ssh/id_rsa"},
	})
	require.Equal(t, ActionBlock, result.Action)
	require.Equal(t, "sensitive_path", result.Metadata["reason"])
	require.Equal(t, "/home/user/.ssh/id_rsa", result.Metadata["path"])
}

func TestPreToolUseHookRespectsAllowlist(t *testing.T) {
	h := NewPreToolUseHook(nil, nil, map[string]bool{"read_file": true})
	result := h.Execute(context.Background(), Context{ToolName: "write_file"})
	require.Equal(t, ActionBlock, result.Action)
}

func TestPostToolUseHookSkipsNonModifyingTools(t *testing.T) {
	h := NewPostToolUseHook(".", false, false, false, "", 3)
	result := h.Execute(context.Background(), Context{ToolName: "read_file"})
	require.Equal(t, ActionAllow, result.Action)
	require.Equal(t, "not a file-modifying tool", result.Message)
}
