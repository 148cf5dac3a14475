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

// Package healing implements the council's self-healing loop: a
// Perceive→Reason→Act→Observe cycle that runs tests, diagnoses a failure,
// generates and applies a patch, and re-runs — escalating to a human when
// it can't make progress.
package healing

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/councilrun/council/internal/procexec"
)

// Status is the healing run's terminal outcome.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusPartial       Status = "partial"
	StatusFailed        Status = "failed"
	StatusMaxIterations Status = "max_iterations"
	StatusHumanRequired Status = "human_required"
)

// TestResult is the outcome of one test run.
type TestResult struct {
	Passed      bool
	TotalTests  int
	PassedCount int
	FailedCount int
	ErrorOutput string
	Duration    time.Duration
	FailedTests []string
}

// Diagnosis is a best-effort explanation of a test failure.
type Diagnosis struct {
	FailedTest     string
	ErrorType      string
	ErrorMessage   string
	SuspectedFile  string
	SuspectedLine  int
	RootCause      string
	SuggestedFix   string
}

// Patch is a single find-and-replace code change targeting one file.
type Patch struct {
	FilePath         string
	OriginalContent  string
	PatchedContent   string
	Diagnosis        Diagnosis
	Confidence       float64
}

// Iteration records one pass through the loop.
type Iteration struct {
	Iteration    int
	TestResult   TestResult
	Diagnosis    *Diagnosis
	Patch        *Patch
	PatchApplied bool
	Timestamp    time.Time
}

// Report is the loop's final outcome.
type Report struct {
	Status          Status
	Iterations      []Iteration
	TotalIterations int
	InitialFailures int
	FinalFailures   int
	PatchesApplied  []Patch
	Duration        time.Duration
	RequiresHuman   bool
	Recommendation  string
}

// Diagnoser turns a failing TestResult into a Diagnosis.
type Diagnoser func(TestResult) Diagnosis

// Patcher turns a Diagnosis into a candidate Patch.
type Patcher interface {
	GeneratePatch(ctx context.Context, d Diagnosis) (Patch, error)
}

// NopPatcher is the zero-confidence default: it never claims a fix, which
// Loop.Run's confidence<0.5 rule routes straight to requires_human=true
// rather than silently doing nothing and calling it success.
type NopPatcher struct{}

func (NopPatcher) GeneratePatch(ctx context.Context, d Diagnosis) (Patch, error) {
	return Patch{Diagnosis: d, Confidence: 0}, nil
}

var _ Patcher = NopPatcher{}

// Loop runs the self-healing cycle against a working directory's test
// suite.
type Loop struct {
	TestCommand   string
	MaxIterations int
	WorkingDir    string
	Diagnose      Diagnoser
	Patch         Patcher

	iterations     []Iteration
	patchesApplied []Patch
}

// New builds a Loop. TestCommand defaults to "go test ./..." and Patch
// defaults to NopPatcher — callers wanting automated patch generation
// supply their own Patcher (e.g. an LLM-backed one).
func New(testCommand string, maxIterations int, workingDir string) *Loop {
	if testCommand == "" {
		testCommand = "go test ./..."
	}
	if maxIterations <= 0 {
		maxIterations = 5
	}
	l := &Loop{
		TestCommand:   testCommand,
		MaxIterations: maxIterations,
		WorkingDir:    workingDir,
		Patch:         NopPatcher{},
	}
	l.Diagnose = l.defaultDiagnose
	return l
}

// RunTests executes the configured test command and parses go test's
// output for pass/fail counts and failing test names.
func (l *Loop) RunTests(ctx context.Context) TestResult {
	start := time.Now()
	result, err := procexec.Run(ctx, procexec.Options{
		Command: l.TestCommand,
		Dir:     l.WorkingDir,
		Timeout: 5 * time.Minute,
	})
	duration := time.Since(start)

	if err != nil {
		return TestResult{ErrorOutput: err.Error(), Duration: duration}
	}
	if result.TimedOut {
		return TestResult{ErrorOutput: "test execution timed out", Duration: duration}
	}

	output := result.Stdout + result.Stderr
	passed := result.ExitCode == 0

	var failedTests []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "--- FAIL:") {
			name := strings.TrimPrefix(line, "--- FAIL:")
			if idx := strings.Index(name, "("); idx >= 0 {
				name = name[:idx]
			}
			failedTests = append(failedTests, strings.TrimSpace(name))
		}
	}

	return TestResult{
		Passed:      passed,
		TotalTests:  0,
		PassedCount: 0,
		FailedCount: len(failedTests),
		ErrorOutput: output,
		Duration:    duration,
		FailedTests: failedTests,
	}
}

func (l *Loop) defaultDiagnose(tr TestResult) Diagnosis {
	errorType := "unknown"
	switch {
	case strings.Contains(tr.ErrorOutput, "nil pointer dereference"):
		errorType = "nil_pointer"
	case strings.Contains(tr.ErrorOutput, "index out of range"):
		errorType = "index_out_of_range"
	case strings.Contains(tr.ErrorOutput, "cannot use") && strings.Contains(tr.ErrorOutput, "as "):
		errorType = "type_mismatch"
	case strings.Contains(tr.ErrorOutput, "undefined:"):
		errorType = "undefined_symbol"
	case strings.Contains(tr.ErrorOutput, "Error Trace") || strings.Contains(tr.ErrorOutput, "assertion"):
		errorType = "assertion"
	}

	if len(tr.FailedTests) == 0 {
		return Diagnosis{
			FailedTest:   "unknown",
			ErrorType:    errorType,
			ErrorMessage: truncate(tr.ErrorOutput, 500),
		}
	}

	failed := tr.FailedTests[0]
	return Diagnosis{
		FailedTest:   failed,
		ErrorType:    errorType,
		ErrorMessage: truncate(tr.ErrorOutput, 1000),
		RootCause:    "test '" + failed + "' failed with a " + errorType + " error",
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ApplyPatch performs the patch's single find-and-replace against its
// target file. A patch below confidence 0.5 is refused outright — the
// same threshold a zero-confidence NopPatcher result always fails.
func (l *Loop) ApplyPatch(p Patch) bool {
	if p.FilePath == "" || p.Confidence < 0.5 {
		return false
	}

	current, err := os.ReadFile(p.FilePath)
	if err != nil {
		return false
	}
	if !strings.Contains(string(current), p.OriginalContent) {
		return false
	}

	updated := strings.Replace(string(current), p.OriginalContent, p.PatchedContent, 1)
	if err := os.WriteFile(p.FilePath, []byte(updated), 0o644); err != nil {
		return false
	}

	l.patchesApplied = append(l.patchesApplied, p)
	return true
}

// RollbackPatches reverts every applied patch, most recent first.
func (l *Loop) RollbackPatches() int {
	rolledBack := 0
	for i := len(l.patchesApplied) - 1; i >= 0; i-- {
		p := l.patchesApplied[i]
		current, err := os.ReadFile(p.FilePath)
		if err != nil {
			continue
		}
		if strings.Contains(string(current), p.PatchedContent) {
			reverted := strings.Replace(string(current), p.PatchedContent, p.OriginalContent, 1)
			if os.WriteFile(p.FilePath, []byte(reverted), 0o644) == nil {
				rolledBack++
			}
		}
	}
	l.patchesApplied = nil
	return rolledBack
}

// Run executes the full self-healing cycle.
func (l *Loop) Run(ctx context.Context) Report {
	start := time.Now()
	initial := l.RunTests(ctx)
	initialFailures := initial.FailedCount

	if initial.Passed {
		return Report{
			Status:          StatusSuccess,
			Iterations:      []Iteration{{Iteration: 0, TestResult: initial, Timestamp: time.Now()}},
			TotalIterations: 0,
			InitialFailures: 0,
			FinalFailures:   0,
			Duration:        time.Since(start),
		}
	}

	for i := 1; i <= l.MaxIterations; i++ {
		testResult := initial
		if i > 1 {
			testResult = l.RunTests(ctx)
		}

		if testResult.Passed {
			return Report{
				Status:          StatusSuccess,
				Iterations:      l.iterations,
				TotalIterations: i - 1,
				InitialFailures: initialFailures,
				FinalFailures:   0,
				PatchesApplied:  l.patchesApplied,
				Duration:        time.Since(start),
				Recommendation:  "all tests passing after self-healing",
			}
		}

		diagnosis := l.Diagnose(testResult)
		patch, err := l.Patch.GeneratePatch(ctx, diagnosis)
		if err != nil {
			patch = Patch{Diagnosis: diagnosis, Confidence: 0}
		}
		applied := l.ApplyPatch(patch)

		l.iterations = append(l.iterations, Iteration{
			Iteration:    i,
			TestResult:   testResult,
			Diagnosis:    &diagnosis,
			Patch:        &patch,
			PatchApplied: applied,
			Timestamp:    time.Now(),
		})

		if !applied && patch.Confidence < 0.3 {
			break
		}
	}

	final := l.RunTests(ctx)
	status := StatusMaxIterations
	if final.FailedCount < initialFailures {
		status = StatusPartial
	}

	return Report{
		Status:          status,
		Iterations:      l.iterations,
		TotalIterations: len(l.iterations),
		InitialFailures: initialFailures,
		FinalFailures:   final.FailedCount,
		PatchesApplied:  l.patchesApplied,
		Duration:        time.Since(start),
		RequiresHuman:   true,
		Recommendation:  "human review required, see iterations for diagnosis",
	}
}
