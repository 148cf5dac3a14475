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
	"fmt"
	"time"

	"github.com/councilrun/council/internal/procexec"
)

var fileModifyingTools = map[string]bool{
	"write_file": true, "search_replace": true, "apply_patch": true, "delete_file": true,
}

// PostToolUseHook runs quality gates — format, lint, test — after a
// file-modifying tool call, and asks for a retry when the test gate
// fails within its retry budget.
type PostToolUseHook struct {
	WorkingDir    string
	EnableFormat  bool
	EnableLint    bool
	EnableTest    bool
	FormatCommand string
	LintCommand   string
	TestCommand   string
	MaxRetries    int
	priority      int

	retryCount int
}

// NewPostToolUseHook builds a quality-gate hook. EnableTest defaults to
// false — running the whole suite after every single edit is usually
// too slow to do unconditionally.
func NewPostToolUseHook(workingDir string, enableFormat, enableLint, enableTest bool, testCommand string, maxRetries int) *PostToolUseHook {
	if testCommand == "" {
		testCommand = "go test ./..."
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &PostToolUseHook{
		WorkingDir:    workingDir,
		EnableFormat:  enableFormat,
		EnableLint:    enableLint,
		EnableTest:    enableTest,
		FormatCommand: "gofmt -w .",
		LintCommand:   "go vet ./...",
		TestCommand:   testCommand,
		MaxRetries:    maxRetries,
		priority:      100,
	}
}

func (h *PostToolUseHook) Name() string   { return "post_tool_use" }
func (h *PostToolUseHook) Priority() int  { return h.priority }
func (h *PostToolUseHook) HookType() Type { return TypePostToolUse }

// Execute runs the enabled gates in order: format, lint, test. A
// failing test gate within the retry budget returns ActionRetry so the
// self-healing loop can pick it up.
func (h *PostToolUseHook) Execute(ctx context.Context, hc Context) Result {
	if !fileModifyingTools[hc.ToolName] {
		return Result{Action: ActionAllow, Message: "not a file-modifying tool"}
	}

	meta := map[string]any{
		"tool_name":    hc.ToolName,
		"gates_run":    []string{},
		"gates_passed": []string{},
		"gates_failed": []string{},
	}
	gatesRun := []string{}
	gatesPassed := []string{}
	gatesFailed := []string{}

	if h.EnableFormat {
		gatesRun = append(gatesRun, "format")
		if h.runGate(ctx, h.FormatCommand) {
			gatesPassed = append(gatesPassed, "format")
		} else {
			gatesFailed = append(gatesFailed, "format")
		}
	}

	if h.EnableLint {
		gatesRun = append(gatesRun, "lint")
		if h.runGate(ctx, h.LintCommand) {
			gatesPassed = append(gatesPassed, "lint")
		} else {
			gatesFailed = append(gatesFailed, "lint")
		}
	}

	testFailed := false
	if h.EnableTest {
		gatesRun = append(gatesRun, "test")
		if h.runGate(ctx, h.TestCommand) {
			gatesPassed = append(gatesPassed, "test")
		} else {
			gatesFailed = append(gatesFailed, "test")
			testFailed = true
		}
	}

	meta["gates_run"] = gatesRun
	meta["gates_passed"] = gatesPassed
	meta["gates_failed"] = gatesFailed

	if testFailed && h.retryCount < h.MaxRetries {
		h.retryCount++
		return Result{
			Action:   ActionRetry,
			Message:  fmt.Sprintf("test gate failed, requesting retry %d/%d", h.retryCount, h.MaxRetries),
			Metadata: meta,
		}
	}

	h.retryCount = 0
	if len(gatesFailed) > 0 {
		return Result{Action: ActionAllow, Message: fmt.Sprintf("quality gates failed: %v", gatesFailed), Metadata: meta}
	}
	return Result{Action: ActionAllow, Message: "all quality gates passed", Metadata: meta}
}

func (h *PostToolUseHook) runGate(ctx context.Context, command string) bool {
	result, err := procexec.Run(ctx, procexec.Options{
		Command: command,
		Dir:     h.WorkingDir,
		Timeout: 2 * time.Minute,
	})
	return err == nil && result.ExitCode == 0
}

var _ Hook = (*PostToolUseHook)(nil)
