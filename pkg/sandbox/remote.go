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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/councilrun/council/pkg/httpclient"
)

// RemoteRunner delegates script execution to an out-of-process executor
// service over HTTP, for deployments where the runtime itself must not run
// untrusted code at all.
type RemoteRunner struct {
	Endpoint string
	APIKey   string

	client *httpclient.Client
}

type remoteRunRequest struct {
	Script     string `json:"script"`
	TimeoutSec int    `json:"timeout_sec"`
}

type remoteRunResponse struct {
	Status   string `json:"status"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

func (r *RemoteRunner) Run(ctx context.Context, script string, timeout time.Duration) (Result, error) {
	if r.client == nil {
		r.client = httpclient.New()
	}

	body, err := json.Marshal(remoteRunRequest{Script: script, TimeoutSec: int(timeout.Seconds())})
	if err != nil {
		return Result{Status: StatusError, Stderr: err.Error(), ExecutionMode: ProviderRemote}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Status: StatusError, Stderr: err.Error(), ExecutionMode: ProviderRemote}, nil
	}
	req.Header.Set("Content-Type", "application/json")
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return Result{Status: StatusError, Stderr: err.Error(), ExecutionMode: ProviderRemote}, nil
	}
	defer resp.Body.Close()

	var out remoteRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{Status: StatusError, Stderr: fmt.Sprintf("decoding remote sandbox response: %v", err), ExecutionMode: ProviderRemote}, nil
	}

	status := Status(out.Status)
	switch status {
	case StatusSuccess, StatusFailure, StatusTimeout, StatusError:
	default:
		if out.ExitCode == 0 {
			status = StatusSuccess
		} else {
			status = StatusFailure
		}
	}

	return Result{
		Status:        status,
		Stdout:        out.Stdout,
		Stderr:        out.Stderr,
		ExitCode:      out.ExitCode,
		ExecutionMode: ProviderRemote,
		Duration:      time.Since(start),
	}, nil
}
