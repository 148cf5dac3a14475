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

package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/councilrun/council/internal/procexec"
)

// LocalRunner executes scripts via a temp file and a supervised child
// process. No isolation beyond the OS process boundary — suitable for
// trusted scripts in development.
type LocalRunner struct {
	WorkingDir string
	Env        []string
}

func (r *LocalRunner) Run(ctx context.Context, script string, timeout time.Duration) (Result, error) {
	path, cleanup, err := writeTempScript(r.WorkingDir, ".sh", script)
	if err != nil {
		return Result{Status: StatusError, Stderr: err.Error(), ExecutionMode: ProviderLocal}, nil
	}
	defer cleanup()

	res, err := procexec.Run(ctx, procexec.Options{
		Command: fmt.Sprintf("sh %q", path),
		Dir:     r.WorkingDir,
		Env:     r.Env,
		Timeout: timeout,
	})
	if err != nil {
		return Result{Status: StatusError, Stderr: err.Error(), ExecutionMode: ProviderLocal}, nil
	}

	return toResult(res, ProviderLocal), nil
}

func toResult(r procexec.Result, mode Provider) Result {
	status := StatusSuccess
	switch {
	case r.TimedOut:
		status = StatusTimeout
	case r.ExitCode != 0:
		status = StatusFailure
	}
	return Result{
		Status:        status,
		Stdout:        r.Stdout,
		Stderr:        r.Stderr,
		ExitCode:      r.ExitCode,
		ExecutionMode: mode,
		Duration:      r.Duration,
	}
}
