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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalRunnerSuccess(t *testing.T) {
	r, err := New(Config{Provider: ProviderLocal, WorkingDir: t.TempDir()})
	require.NoError(t, err)

	res, err := r.Run(context.Background(), "echo hello", 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Contains(t, res.Stdout, "hello")
}

func TestLocalRunnerFailure(t *testing.T) {
	r, err := New(Config{Provider: ProviderLocal, WorkingDir: t.TempDir()})
	require.NoError(t, err)

	res, err := r.Run(context.Background(), "exit 3", 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, StatusFailure, res.Status)
	require.Equal(t, 3, res.ExitCode)
}

func TestLocalRunnerTimeout(t *testing.T) {
	r, err := New(Config{Provider: ProviderLocal, WorkingDir: t.TempDir()})
	require.NoError(t, err)

	res, err := r.Run(context.Background(), "sleep 5", 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, StatusTimeout, res.Status)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "bogus"})
	require.Error(t, err)
}

func TestNopRunner(t *testing.T) {
	r := NopRunner{}
	res, err := r.Run(context.Background(), "echo hi", time.Second)
	require.NoError(t, err)
	require.Equal(t, StatusError, res.Status)
}
