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

package router

import (
	"testing"

	"github.com/councilrun/council/pkg/governance"
	"github.com/stretchr/testify/require"
)

func TestRouteLowRiskGoesSingleModel(t *testing.T) {
	r := New(t.TempDir())
	d := r.Route("fix a typo in the readme", "", nil)
	require.Equal(t, ModeSingleModel, d.Mode)
	require.Equal(t, governance.RiskLow, d.Risk)
	require.Empty(t, d.RequiredApprovers)
}

func TestRouteMediumRiskGoesSwarmVerify(t *testing.T) {
	r := New(t.TempDir())
	d := r.Route("refactor the auth module", "", nil)
	require.Equal(t, ModeSwarmVerify, d.Mode)
	require.Equal(t, []string{"wald_score"}, d.RequiredApprovers)
}

func TestRouteHighRiskGoesFullCouncil(t *testing.T) {
	r := New(t.TempDir())
	d := r.Route("deploy the service to production", "", nil)
	require.Equal(t, ModeFullCouncil, d.Mode)
	require.Equal(t, governance.RiskHigh, d.Risk)
	require.Contains(t, d.RequiredApprovers, "codex_review")
}

func TestExplainDecisionFormatsLines(t *testing.T) {
	d := RoutingDecision{Mode: ModeSingleModel, Risk: governance.RiskLow, Reason: "ok"}
	out := ExplainDecision(d)
	require.Contains(t, out, "ROUTING DECISION")
	require.Contains(t, out, "LOW")
}

func TestWaldScoreUnanimous(t *testing.T) {
	score := Compute([]Vote{{Outcome: "approve", Confidence: 0.9}, {Outcome: "approve", Confidence: 0.8}})
	require.Equal(t, "approve", score.Outcome)
	require.InDelta(t, 1.0, score.Score, 1e-9)
	require.True(t, score.Passes(0.66))
}

func TestWaldScoreSplitSwarmFailsQuorum(t *testing.T) {
	score := Compute([]Vote{
		{Outcome: "approve", Confidence: 0.6},
		{Outcome: "reject", Confidence: 0.6},
	})
	require.InDelta(t, 0.5, score.Score, 1e-9)
	require.False(t, score.Passes(0.66))
}

func TestWaldScoreEmptyVotes(t *testing.T) {
	score := Compute(nil)
	require.Equal(t, 0.0, score.Score)
	require.False(t, score.Passes(0))
}
