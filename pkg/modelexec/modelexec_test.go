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

package modelexec

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls     int64
	delay     time.Duration
	failModel string
}

func (f *fakeClient) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if model == f.failModel {
		return "", fmt.Errorf("model %s unavailable", model)
	}
	return "ok:" + model, nil
}

func TestExecuteParallelAllSucceed(t *testing.T) {
	client := &fakeClient{}
	ex := New(client, 2, time.Second, 0)

	tasks := []Task{
		NewExecutorTask("gpt", "do a"),
		NewExecutorTask("gpt", "do b"),
		NewExecutorTask("gpt", "do c"),
	}
	results := ex.ExecuteParallel(context.Background(), tasks)
	require.Len(t, results, 3)
	for _, r := range results {
		require.True(t, r.IsValid())
	}

	stats := ex.Stats()
	require.Equal(t, int64(3), stats.TotalTasks)
	require.Equal(t, int64(3), stats.Successful)
	require.Equal(t, 1.0, stats.SuccessRate())
}

func TestExecuteParallelFailureDoesNotAbortBatch(t *testing.T) {
	client := &fakeClient{failModel: "bad-model"}
	ex := New(client, 2, time.Second, 0)

	tasks := []Task{
		NewExecutorTask("good-model", "x"),
		NewExecutorTask("bad-model", "y"),
	}
	results := ex.ExecuteParallel(context.Background(), tasks)
	require.Len(t, results, 2)
	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.NotEmpty(t, results[1].Error)
}

func TestExecuteSingleTimesOutAndFallsBack(t *testing.T) {
	client := &fakeClient{delay: 50 * time.Millisecond}
	ex := New(client, 1, 10*time.Millisecond, 1)
	ex.SetFallback("slow-model", "fast-model")

	task := Task{Model: "slow-model", Messages: []Message{{Role: "user", Content: "hi"}}, Timeout: 10 * time.Millisecond}
	results := ex.ExecuteParallel(context.Background(), []Task{task})
	require.Len(t, results, 1)
	require.False(t, results[0].Success)
	require.Equal(t, "timeout", results[0].Error)
}

func TestExecutePipelineAbortsWhenPlannerFails(t *testing.T) {
	client := &fakeClient{failModel: "planner-model"}
	ex := New(client, 2, time.Second, 0)

	_, err := ex.ExecutePipeline(context.Background(),
		NewPlannerTask("planner-model", "plan it"),
		[]Task{NewExecutorTask("worker-model", "do it")},
		nil,
	)
	require.Error(t, err)
}

func TestExecutePipelineRunsReviewerAfterExecutors(t *testing.T) {
	client := &fakeClient{}
	ex := New(client, 2, time.Second, 0)

	reviewer := NewReviewerTask("reviewer-model", "review it")
	out, err := ex.ExecutePipeline(context.Background(),
		NewPlannerTask("planner-model", "plan it"),
		[]Task{NewExecutorTask("worker-model", "do it")},
		&reviewer,
	)
	require.NoError(t, err)
	require.True(t, out.Planner.Success)
	require.Len(t, out.Executors, 1)
	require.NotNil(t, out.Reviewer)
	require.True(t, out.Reviewer.Success)
}

func TestResetStatsClearsCounters(t *testing.T) {
	client := &fakeClient{}
	ex := New(client, 2, time.Second, 0)
	ex.ExecuteParallel(context.Background(), []Task{NewExecutorTask("m", "x")})
	require.Equal(t, int64(1), ex.Stats().TotalTasks)

	ex.ResetStats()
	require.Equal(t, int64(0), ex.Stats().TotalTasks)
}
