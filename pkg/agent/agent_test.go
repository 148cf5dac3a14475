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

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/councilrun/council/pkg/sandbox"
	"github.com/councilrun/council/pkg/toolregistry"
)

type fakeExternalTool struct{ reply string }

func (f fakeExternalTool) Call(args map[string]string) (string, error) {
	return f.reply, nil
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f fakeCompleter) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return f.reply, f.err
}

func TestThinkRequiresCompleter(t *testing.T) {
	a := New(Config{Name: "reviewer"})
	_, err := a.Think(context.Background(), "assess the plan")
	require.Error(t, err)
}

func TestThinkReturnsAnalysis(t *testing.T) {
	a := New(Config{Name: "reviewer", Completer: fakeCompleter{reply: "looks solid"}})
	res, err := a.Think(context.Background(), "assess the plan")
	require.NoError(t, err)
	require.Equal(t, "looks solid", res.Analysis)
	require.Greater(t, res.Confidence, 0.0)
}

func TestVoteParsesDecision(t *testing.T) {
	a := New(Config{Name: "security", Completer: fakeCompleter{reply: "I approve_with_changes this, add input validation"}})
	v, err := a.Vote(context.Background(), "ship the migration")
	require.NoError(t, err)
	require.Equal(t, DecisionApproveWithChanges, v.Decision)
	require.Equal(t, "security", v.AgentName)
}

func TestVoteDefaultsToHoldOnAmbiguousReply(t *testing.T) {
	a := New(Config{Name: "generalist", Completer: fakeCompleter{reply: "not sure yet, need more data"}})
	v, err := a.Vote(context.Background(), "ship it")
	require.NoError(t, err)
	require.Equal(t, DecisionHold, v.Decision)
}

func TestExecuteWithoutPlanIsAnalysisOnly(t *testing.T) {
	a := New(Config{Name: "worker"})
	res, err := a.Execute(context.Background(), "no-op task", "")
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestExecuteRoutesPTCPrefixedPlanThroughBatchExecutor(t *testing.T) {
	tools := toolregistry.New()
	tools.RegisterExternal(toolregistry.Definition{Name: "search", Category: toolregistry.CategorySearch}, fakeExternalTool{reply: "3 results"})

	a := New(Config{
		Name:            "researcher",
		Tools:           tools,
		Sandbox:         sandbox.NopRunner{},
		SandboxProvider: sandbox.ProviderLocal,
		PTCTools:        []string{"search"},
	})

	res, err := a.Execute(context.Background(), "look something up", `ptc:tools.search("council runtime")`)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Contains(t, res.Output, "3 results")
}
