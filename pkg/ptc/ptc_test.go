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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/councilrun/council/pkg/sandbox"
)

func echoTool(ctx context.Context, args []any) (string, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(toString(a))
	}
	return sb.String(), nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		return ""
	}
}

func TestExecuteSimpleCall(t *testing.T) {
	exec := NewExecutor(map[string]ToolFunc{"echo": echoTool}, 2000)
	res, err := exec.Execute(context.Background(), `tools.echo("hello")`)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Contains(t, res.Summary, "hello")
	require.Equal(t, sandbox.ProviderNone, res.SandboxUsed)
}

func TestExecuteWithSandboxReportsProvider(t *testing.T) {
	exec := NewExecutor(map[string]ToolFunc{"echo": echoTool}, 2000).
		WithSandbox(sandbox.NopRunner{}, sandbox.ProviderLocal, time.Second)
	res, err := exec.Execute(context.Background(), `tools.echo("hello")`)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, sandbox.ProviderLocal, res.SandboxUsed)
}

func TestExecuteAssignThenUse(t *testing.T) {
	exec := NewExecutor(map[string]ToolFunc{"echo": echoTool}, 2000)
	res, err := exec.Execute(context.Background(), "x = tools.echo(\"a\")\ntools.echo(x)")
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestExecuteRejectsForbiddenIdentifier(t *testing.T) {
	exec := NewExecutor(map[string]ToolFunc{"echo": echoTool}, 2000)
	res, err := exec.Execute(context.Background(), `tools.eval("danger")`)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Contains(t, res.Summary, "代码安全违规")
	require.Equal(t, sandbox.ProviderNone, res.SandboxUsed)
}

func TestExecuteUnknownTool(t *testing.T) {
	exec := NewExecutor(map[string]ToolFunc{"echo": echoTool}, 2000)
	res, err := exec.Execute(context.Background(), `tools.missing("x")`)
	require.NoError(t, err)
	require.False(t, res.Success)
}

func TestParseAndValidateMultiline(t *testing.T) {
	script, violations := ParseAndValidate("a = tools.search(\"q\")\ntools.edit(a, \"b\")")
	require.Empty(t, violations)
	require.Len(t, script.Statements, 2)
}
