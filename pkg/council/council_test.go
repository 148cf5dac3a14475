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

package council

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/councilrun/council/pkg/agent"
	"github.com/councilrun/council/pkg/memory"
	"github.com/councilrun/council/pkg/task"
)

func TestDecomposeCreatesPersistedTasks(t *testing.T) {
	tm, err := task.NewManager(t.TempDir(), "")
	require.NoError(t, err)
	o := New(tm, nil, nil)

	created, err := o.Decompose("ship feature X", []string{"design", "implement", "test"})
	require.NoError(t, err)
	require.Len(t, created, 3)
	require.Equal(t, "design", created[0].Title)
}

func TestDispatchRequiresRegisteredCapability(t *testing.T) {
	tm, err := task.NewManager(t.TempDir(), "")
	require.NoError(t, err)
	o := New(tm, nil, nil)
	tk, _ := tm.Add("do thing", "desc", "", nil)

	_, err = o.Dispatch(context.Background(), tk, "coding")
	require.Error(t, err)
}

func TestDispatchRunsThinkAndExecute(t *testing.T) {
	tm, err := task.NewManager(t.TempDir(), "")
	require.NoError(t, err)
	o := New(tm, nil, nil)

	a := agent.New(agent.Config{Name: "coder", Completer: stubCompleter{"plan: done"}})
	o.Register(a, "coding")

	tk, _ := tm.Add("implement feature", "desc", "", nil)
	result, err := o.Dispatch(context.Background(), tk, "coding")
	require.NoError(t, err)
	require.True(t, result.Success)

	updated := tm.Get(tk.ID)
	require.Equal(t, task.StatusCompleted, updated.Status)
}

func TestAggregateVotesMajorityWins(t *testing.T) {
	votes := []agent.Vote{
		{AgentName: "a", Decision: agent.DecisionApprove, Confidence: 0.9},
		{AgentName: "b", Decision: agent.DecisionApprove, Confidence: 0.8},
		{AgentName: "c", Decision: agent.DecisionReject, Confidence: 0.5},
	}
	result := AggregateVotes(votes)
	require.Equal(t, agent.DecisionApprove, result.Decision)
	require.InDelta(t, 1.7, result.ConfidenceTotal, 0.001)
}

func TestAggregateVotesTieBreaksByRank(t *testing.T) {
	votes := []agent.Vote{
		{AgentName: "a", Decision: agent.DecisionReject, Confidence: 0.5},
		{AgentName: "b", Decision: agent.DecisionHold, Confidence: 0.5},
	}
	result := AggregateVotes(votes)
	require.Equal(t, agent.DecisionReject, result.Decision)
}

func TestRecordDecisionWritesToKnowledgeGraph(t *testing.T) {
	tm, err := task.NewManager(t.TempDir(), "")
	require.NoError(t, err)
	kg, err := memory.NewKnowledgeGraph(filepath.Join(t.TempDir(), "graph.json"))
	require.NoError(t, err)
	o := New(tm, nil, kg)

	result := AggregateVotes([]agent.Vote{{AgentName: "a", Decision: agent.DecisionApprove, Confidence: 0.9}})
	require.NoError(t, o.RecordDecision("decision:1", "ship it", result))

	ent, ok := kg.Entity("decision:1")
	require.True(t, ok)
	require.Equal(t, memory.EntityDecision, ent.Type)
}

type stubCompleter struct{ reply string }

func (s stubCompleter) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return s.reply, nil
}
