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

package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/councilrun/council/pkg/checkpoint"
)

func TestLinearRun(t *testing.T) {
	g := New("linear", nil, nil)
	g.AddNode("start", func(ctx context.Context, s State) (State, error) {
		s.Context["visited"] = append(s.Context["visited"].([]string), "start")
		return s, nil
	})
	g.AddNode("end", func(ctx context.Context, s State) (State, error) {
		s.Context["visited"] = append(s.Context["visited"].([]string), "end")
		return s, nil
	})
	g.AddEdge("start", "end")
	g.SetEntryPoint("start")

	final, err := g.Run(context.Background(), State{Context: map[string]any{"visited": []string{}}}, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"start", "end"}, final.Context["visited"])
	require.Equal(t, []string{"start", "end"}, g.ExecutionHistory())
}

func TestApprovalNodeHaltsOnDenial(t *testing.T) {
	g := New("approval", nil, nil)
	g.AddNode("start", func(ctx context.Context, s State) (State, error) { return s, nil })
	g.AddApprovalNode("review", func(ctx context.Context, s State) (bool, error) { return false, nil })
	g.AddNode("deploy", func(ctx context.Context, s State) (State, error) {
		s.Context["deployed"] = true
		return s, nil
	})
	g.AddEdge("start", "review")
	g.AddEdge("review", "deploy")
	g.SetEntryPoint("start")

	final, err := g.Run(context.Background(), State{Context: map[string]any{}}, RunOptions{})
	require.NoError(t, err)
	require.False(t, final.Approved)
	require.Nil(t, final.Context["deployed"])
}

func TestLoopEdgeRespectsMaxIterations(t *testing.T) {
	g := New("loop", nil, nil)
	g.AddNode("iterate", func(ctx context.Context, s State) (State, error) { return s, nil })
	g.AddNode("done", func(ctx context.Context, s State) (State, error) { return s, nil })
	g.AddLoopEdge("iterate", "iterate", func(s State) bool { return true }, 3)
	g.AddEdge("iterate", "done")
	g.SetEntryPoint("iterate")

	final, err := g.Run(context.Background(), State{Context: map[string]any{}}, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, final.LoopCount)
}

func TestParallelGroupMergesAllContexts(t *testing.T) {
	g := New("parallel", nil, nil)
	g.AddNode("a", func(ctx context.Context, s State) (State, error) {
		s.Context["a"] = true
		return s, nil
	})
	g.AddNode("b", func(ctx context.Context, s State) (State, error) {
		s.Context["b"] = true
		return s, nil
	})
	g.AddNode("join", func(ctx context.Context, s State) (State, error) { return s, nil })
	g.AddParallelNodes("fanout", []string{"a", "b"}, "join", MergeAll)
	g.SetEntryPoint("fanout")

	final, err := g.Run(context.Background(), State{Context: map[string]any{}}, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, true, final.Context["a"])
	require.Equal(t, true, final.Context["b"])
}

func TestCheckpointAndResume(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	g := New("wf", store, nil)
	g.AddNode("start", func(ctx context.Context, s State) (State, error) {
		s.Context["step"] = "start"
		return s, nil
	})
	g.AddNode("end", func(ctx context.Context, s State) (State, error) {
		s.Context["step"] = "end"
		return s, nil
	})
	g.AddEdge("start", "end")
	g.SetEntryPoint("start")

	_, err := g.Run(context.Background(), State{Context: map[string]any{}}, RunOptions{CheckpointInterval: 1, RunID: "run-1"})
	require.NoError(t, err)

	_, node, err := g.Resume("run-1")
	require.NoError(t, err)
	require.NotEmpty(t, node)
}
