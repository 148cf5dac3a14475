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

package governance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyContentPicksHighestMatch(t *testing.T) {
	require.Equal(t, RiskCritical, ClassifyContent("please DROP TABLE users"))
	require.Equal(t, RiskHigh, ClassifyContent("delete the staging bucket"))
	require.Equal(t, RiskMedium, ClassifyContent("refactor the schema loader"))
	require.Equal(t, RiskLow, ClassifyContent("fix a typo in the readme"))
}

func TestCreateRequestHighRiskStaysPending(t *testing.T) {
	g := New(0.66)
	req := g.CreateRequest("deploy", string(ActionDeploy), "deploy to production", nil, "ready", nil, "agent-1")
	require.Equal(t, RiskCritical, req.Risk)
	require.Equal(t, StatusPending, req.Status)
	require.Len(t, g.Pending(), 1)
}

func TestCreateRequestMediumRiskAutoApprovesOnQuorum(t *testing.T) {
	g := New(0.66)
	req := g.CreateRequest("merge", string(DecisionMerge), "merge feature branch", nil, "all checks green",
		&CouncilDecision{ConsensusScore: 0.9, Quorum: 0.66}, "agent-1")
	require.Equal(t, StatusApproved, req.Status)
	require.Equal(t, "auto:council_quorum", req.Approver)
	require.Empty(t, g.Pending())
}

func TestApproveAndRejectTransitions(t *testing.T) {
	g := New(0.66)
	req := g.CreateRequest("release", string(DecisionRelease), "cut v2", nil, "", nil, "agent-1")
	require.Equal(t, StatusPending, req.Status)

	_, err := g.Reject(req.ID, "human-1", "not ready")
	require.NoError(t, err)

	_, err = g.Approve(req.ID, "human-1")
	require.Error(t, err)

	got, ok := g.Get(req.ID)
	require.True(t, ok)
	require.Equal(t, StatusRejected, got.Status)
	require.Equal(t, "not ready", got.RejectReason)
}

func TestToolAllowlistDefaultDeny(t *testing.T) {
	a := NewToolAllowlist(false)
	ok, reason := a.CanExecute("write_file", "")
	require.False(t, ok)
	require.Contains(t, reason, "not in allowlist")
}

func TestToolAllowlistMaxCalls(t *testing.T) {
	a := NewToolAllowlist(false).Allow("run_command", false, 1, nil)
	ok, _ := a.CanExecute("run_command", "")
	require.True(t, ok)
	a.RecordCall("run_command")

	ok, reason := a.CanExecute("run_command", "")
	require.False(t, ok)
	require.Contains(t, reason, "exceeded max calls")
}

func TestToolAllowlistPathScoping(t *testing.T) {
	a := NewToolAllowlist(false).Allow("write_file", false, -1, []string{"/workspace/"})
	ok, _ := a.CanExecute("write_file", "/workspace/main.go")
	require.True(t, ok)

	ok, reason := a.CanExecute("write_file", "/etc/passwd")
	require.False(t, ok)
	require.Contains(t, reason, "not in allowed paths")
}

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner([]byte("test-signing-secret-32-bytes-min"))
	token, err := signer.IssueApprovalToken("appr-1", "human-1", StatusApproved, time.Minute)
	require.NoError(t, err)

	claim, err := signer.VerifyApprovalToken(token)
	require.NoError(t, err)
	require.Equal(t, "appr-1", claim.RequestID)
	require.Equal(t, "human-1", claim.Approver)
	require.Equal(t, StatusApproved, claim.Status)
}
