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

// Package sandbox runs untrusted tool scripts in isolation: locally via a
// temp file and a subprocess, in a resource-limited container, or against a
// remote executor. All three speak the same Runner interface so callers
// never branch on provider.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Provider identifies a sandbox implementation.
type Provider string

const (
	ProviderLocal     Provider = "local"
	ProviderContainer Provider = "container"
	ProviderRemote    Provider = "remote"
	ProviderNone      Provider = "none"
)

// Status is the terminal state of a Run call.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

// Result is the outcome of executing a script in a sandbox.
type Result struct {
	Status        Status
	Stdout        string
	Stderr        string
	ExitCode      int
	ExecutionMode Provider
	Duration      time.Duration
}

// Runner executes a script body and returns its outcome. Implementations
// must never let the script escape the configured timeout.
type Runner interface {
	Run(ctx context.Context, script string, timeout time.Duration) (Result, error)
}

// Config selects and configures a Runner.
type Config struct {
	Provider   Provider
	WorkingDir string
	Env        []string

	// Container-only.
	Image   string
	Network string
	Memory  string
	CPUs    string

	// Remote-only.
	Endpoint string
	APIKey   string
}

// New builds a Runner for cfg.Provider.
func New(cfg Config) (Runner, error) {
	switch cfg.Provider {
	case "", ProviderLocal:
		wd := cfg.WorkingDir
		if wd == "" {
			wd = "."
		}
		return &LocalRunner{WorkingDir: wd, Env: cfg.Env}, nil
	case ProviderContainer:
		return &ContainerRunner{
			Image:   orDefault(cfg.Image, "council-sandbox:latest"),
			Network: orDefault(cfg.Network, "none"),
			Memory:  orDefault(cfg.Memory, "256m"),
			CPUs:    orDefault(cfg.CPUs, "0.5"),
		}, nil
	case ProviderRemote:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("sandbox: remote provider requires an endpoint")
		}
		return &RemoteRunner{Endpoint: cfg.Endpoint, APIKey: cfg.APIKey}, nil
	case ProviderNone:
		return NopRunner{}, nil
	default:
		return nil, fmt.Errorf("sandbox: unknown provider %q", cfg.Provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// NopRunner rejects every script; useful when sandboxing is disabled but a
// Runner is still required at the call site.
type NopRunner struct{}

func (NopRunner) Run(ctx context.Context, script string, timeout time.Duration) (Result, error) {
	return Result{Status: StatusError, Stderr: "sandbox disabled", ExecutionMode: ProviderNone}, nil
}

// writeTempScript writes script to a uniquely named temp file under dir and
// returns its path plus a cleanup func.
func writeTempScript(dir, ext, content string) (string, func(), error) {
	f, err := os.CreateTemp(dir, "council-script-*"+ext)
	if err != nil {
		return "", func() {}, err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", func() {}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", func() {}, err
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}
