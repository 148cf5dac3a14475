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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/councilrun/council/internal/procexec"
)

// ContainerRunner executes scripts inside a resource-limited, network-isolated
// container. Mirrors the original docker-alias provider: a fresh temp dir
// bind-mounted read-write, no network by default, memory/CPU caps.
type ContainerRunner struct {
	Image   string
	Network string
	Memory  string
	CPUs    string
}

func (r *ContainerRunner) Run(ctx context.Context, script string, timeout time.Duration) (Result, error) {
	dir, err := os.MkdirTemp("", "council-sandbox-*")
	if err != nil {
		return Result{Status: StatusError, Stderr: err.Error(), ExecutionMode: ProviderContainer}, nil
	}
	defer os.RemoveAll(dir)

	scriptPath := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		return Result{Status: StatusError, Stderr: err.Error(), ExecutionMode: ProviderContainer}, nil
	}

	cmd := []string{
		"docker", "run", "--rm",
		"-v", fmt.Sprintf("%s:/sandbox:rw", dir),
		"-w", "/sandbox",
		"--network", r.Network,
		"--memory", r.Memory,
		"--cpus", r.CPUs,
		r.Image,
		"sh", "script.sh",
	}

	res, err := procexec.Run(ctx, procexec.Options{
		Command: strings.Join(quoteAll(cmd), " "),
		Timeout: timeout,
	})
	if err != nil {
		return Result{Status: StatusError, Stderr: err.Error(), ExecutionMode: ProviderContainer}, nil
	}
	if strings.Contains(res.Stderr, "executable file not found") {
		return Result{Status: StatusError, Stderr: "docker not found; install docker or use the local sandbox", ExecutionMode: ProviderContainer}, nil
	}

	return toResult(res, ProviderContainer), nil
}

func quoteAll(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		if strings.ContainsAny(p, " \t") {
			out[i] = fmt.Sprintf("%q", p)
		} else {
			out[i] = p
		}
	}
	return out
}
