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

// Package modelexec runs multiple model calls concurrently, bounded by a
// semaphore, with per-task timeout, retry-with-fallback, and execution
// statistics — the council's planner/executor/reviewer pipeline substrate.
package modelexec

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Role names a model task's place in the pipeline.
type Role string

const (
	RolePlanner  Role = "planner"
	RoleExecutor Role = "executor"
	RoleReviewer Role = "reviewer"
	RoleExpert   Role = "expert"
	RoleGeneral  Role = "general"
)

// Message is one entry in a chat-style prompt.
type Message struct {
	Role    string
	Content string
}

// Task is a unit of work for one model call.
type Task struct {
	Model    string
	Messages []Message
	Role     Role
	Timeout  time.Duration
	Metadata map[string]any
}

// Result is a single task's outcome.
type Result struct {
	Model      string
	Role       Role
	Output     string
	Latency    time.Duration
	Success    bool
	Error      string
	TokenUsage map[string]int
}

// IsValid reports whether the result is usable by downstream stages.
func (r Result) IsValid() bool {
	return r.Success && r.Output != ""
}

// Stats accumulates execution statistics across calls to Execute.
type Stats struct {
	TotalTasks   int64
	Successful   int64
	Failed       int64
	TotalLatency time.Duration
	TotalTokens  int64
}

// SuccessRate returns the fraction of tasks that succeeded.
func (s Stats) SuccessRate() float64 {
	if s.TotalTasks == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.TotalTasks)
}

// AvgLatency returns the mean task latency.
func (s Stats) AvgLatency() time.Duration {
	if s.TotalTasks == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.TotalTasks)
}

// ModelClient performs a single model completion call.
type ModelClient interface {
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}

// Executor runs Tasks against a ModelClient with bounded concurrency.
type Executor struct {
	client         ModelClient
	maxConcurrent  int
	defaultTimeout time.Duration
	retryCount     int
	fallbackModels map[string]string

	mu    sync.Mutex
	stats Stats
}

// New builds an Executor. maxConcurrent caps simultaneous model calls,
// defaultTimeout applies to tasks that don't set their own, retryCount is
// the number of retries attempted after the first failure.
func New(client ModelClient, maxConcurrent int, defaultTimeout time.Duration, retryCount int) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &Executor{
		client:         client,
		maxConcurrent:  maxConcurrent,
		defaultTimeout: defaultTimeout,
		retryCount:     retryCount,
		fallbackModels: make(map[string]string),
	}
}

// SetFallback registers a fallback model to retry with when primary times
// out or errors.
func (e *Executor) SetFallback(primary, fallback string) {
	e.fallbackModels[primary] = fallback
}

// ExecuteParallel runs every task concurrently, bounded by maxConcurrent,
// and returns one Result per task in the same order as tasks. A panicking
// or erroring task produces a failed Result rather than aborting the batch.
func (e *Executor) ExecuteParallel(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result, len(tasks))
	sem := make(chan struct{}, e.maxConcurrent)
	var wg sync.WaitGroup

	for i, task := range tasks {
		i, task := i, task
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer func() {
				if p := recover(); p != nil {
					results[i] = Result{Model: task.Model, Role: task.Role, Success: false, Error: fmt.Sprintf("panic: %v", p)}
				}
			}()
			results[i] = e.executeSingle(ctx, task)
		}()
	}
	wg.Wait()

	e.updateStats(results)
	return results
}

func (e *Executor) executeSingle(ctx context.Context, task Task) Result {
	start := time.Now()
	timeout := task.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	current := task
	for attempt := 0; attempt <= e.retryCount; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		output, err := e.client.Complete(callCtx, current.Model, current.Messages)
		cancel()

		if err == nil {
			return Result{
				Model:   current.Model,
				Role:    current.Role,
				Output:  output,
				Latency: time.Since(start),
				Success: true,
			}
		}

		if callCtx.Err() == context.DeadlineExceeded {
			if attempt < e.retryCount {
				if fallback, ok := e.fallbackModels[current.Model]; ok {
					current.Model = fallback
				}
				continue
			}
			return Result{Model: task.Model, Role: task.Role, Latency: time.Since(start), Success: false, Error: "timeout"}
		}

		if attempt < e.retryCount {
			if fallback, ok := e.fallbackModels[current.Model]; ok {
				current.Model = fallback
			}
			continue
		}
		return Result{Model: task.Model, Role: task.Role, Latency: time.Since(start), Success: false, Error: err.Error()}
	}

	return Result{Model: task.Model, Role: task.Role, Success: false, Error: "unknown error"}
}

func (e *Executor) updateStats(results []Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range results {
		e.stats.TotalTasks++
		if r.Success {
			e.stats.Successful++
		} else {
			e.stats.Failed++
		}
		e.stats.TotalLatency += r.Latency
		for _, v := range r.TokenUsage {
			e.stats.TotalTokens += int64(v)
		}
	}
}

// Stats returns a snapshot of the executor's cumulative statistics.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// ResetStats clears cumulative statistics.
func (e *Executor) ResetStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = Stats{}
}

// PipelineResult is the outcome of a planner -> executors -> reviewer run.
type PipelineResult struct {
	Planner   Result
	Executors []Result
	Reviewer  *Result
}

// ExecutePipeline runs the standard planner -> executors -> reviewer
// pipeline: planning first and alone, then the execution tasks in
// parallel, then an optional review stage. Aborts after planning if the
// planner task fails.
func (e *Executor) ExecutePipeline(ctx context.Context, planner Task, executors []Task, reviewer *Task) (PipelineResult, error) {
	var out PipelineResult

	planned := e.ExecuteParallel(ctx, []Task{planner})
	out.Planner = planned[0]
	if !out.Planner.Success {
		return out, fmt.Errorf("modelexec: planning failed: %s", out.Planner.Error)
	}

	out.Executors = e.ExecuteParallel(ctx, executors)

	if reviewer != nil {
		reviewed := e.ExecuteParallel(ctx, []Task{*reviewer})
		out.Reviewer = &reviewed[0]
	}

	return out, nil
}

// NewPlannerTask builds a planner-role task with a generous default timeout.
func NewPlannerTask(model, prompt string) Task {
	return Task{Model: model, Messages: []Message{{Role: "user", Content: prompt}}, Role: RolePlanner, Timeout: 60 * time.Second}
}

// NewExecutorTask builds an executor-role task.
func NewExecutorTask(model, prompt string) Task {
	return Task{Model: model, Messages: []Message{{Role: "user", Content: prompt}}, Role: RoleExecutor, Timeout: 30 * time.Second}
}

// NewReviewerTask builds a reviewer-role task.
func NewReviewerTask(model, prompt string) Task {
	return Task{Model: model, Messages: []Message{{Role: "user", Content: prompt}}, Role: RoleReviewer, Timeout: 45 * time.Second}
}
