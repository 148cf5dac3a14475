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

package reducer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReduceShortPassesThrough(t *testing.T) {
	r := New(2000)
	out := r.Reduce("all good", "", 0)
	require.Equal(t, "all good", out)
}

func TestReduceRedactsPII(t *testing.T) {
	r := New(2000)
	out := r.Reduce("contact alice@example.com or password=hunter2", "", 0)
	require.Contains(t, out, "[EMAIL]")
	require.Contains(t, out, "[PASSWORD_REDACTED]")
	require.NotContains(t, out, "alice@example.com")
}

func TestReduceCompressesLongOutput(t *testing.T) {
	r := New(200)
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "line content padding padding padding"
	}
	out := r.Reduce(strings.Join(lines, "\n"), "", 0)
	require.LessOrEqual(t, len(out), 400) // bounded, allows for stats/truncation suffix
}

func TestExtractAnomaliesOrdersBySeverity(t *testing.T) {
	data := "all fine\nWARNING: slow\nCRITICAL: meltdown\nunauthorized access"
	anomalies := ExtractAnomalies(data)
	require.NotEmpty(t, anomalies)
	require.Equal(t, AnomalyCritical, anomalies[0].Type)
}

func TestExtractStatistics(t *testing.T) {
	stats := ExtractStatistics("error one\nwarning two\nfine")
	require.Equal(t, 3, stats.TotalLines)
	require.Equal(t, 1, stats.ErrorCount)
	require.Equal(t, 1, stats.WarningCount)
}
