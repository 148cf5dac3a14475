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

package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRollingContextRendersStaticAndTurns(t *testing.T) {
	rc := NewRollingContext(8000, 0.7, nil)
	rc.SetStaticContext("you are an architect")
	rc.AddTurn("Architect", "I think we should use a queue")

	prompt := rc.ContextForPrompt(true)
	require.Contains(t, prompt, "you are an architect")
	require.Contains(t, prompt, "Architect: I think we should use a queue")
}

func TestRollingContextCompressesWhenOverBudget(t *testing.T) {
	rc := NewRollingContext(40, 0.5, nil)
	for i := 0; i < 20; i++ {
		rc.AddTurn("Coder", strings.Repeat("x", 40))
	}

	stats := rc.Stats()
	require.Less(t, stats.RecentRounds, 20)
	require.Greater(t, stats.SummaryTokens, 0)
}

func TestRollingContextCustomSummarizer(t *testing.T) {
	called := false
	summarizer := func(content string) string {
		called = true
		return "custom summary"
	}
	rc := NewRollingContext(10, 0.5, summarizer)
	for i := 0; i < 5; i++ {
		rc.AddTurn("X", "some content here")
	}

	require.True(t, called)
	require.Contains(t, rc.ContextForPrompt(true), "custom summary")
}
