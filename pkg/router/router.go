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

// Package router implements the adaptive hybrid-protocol router: a cheap
// keyword-based risk estimate, optionally sharpened by the blast-radius
// analyzer, decides whether a task gets a fast single-model answer, a
// swarm-verified response, or full council deliberation.
package router

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/councilrun/council/pkg/blastradius"
	"github.com/councilrun/council/pkg/governance"
)

// ResponseMode is how the council answers a routed task.
type ResponseMode string

const (
	ModeSingleModel ResponseMode = "single_model"
	ModeSwarmVerify ResponseMode = "swarm_verify"
	ModeFullCouncil ResponseMode = "full_council"
)

// RoutingDecision is the router's verdict for a task.
type RoutingDecision struct {
	Mode               ResponseMode
	Risk               governance.RiskLevel
	Reason             string
	RequiredApprovers  []string
}

var highRiskPatterns = compileAll(
	`\bgit\s+push\b`, `\bdeploy\b`, `\bproduction\b`, `\bdelete\b`,
	`\bdrop\s+table\b`, `\brm\s+-rf\b`, `\.env\b`, `\bsecret\b`,
	`\bapi[_-]?key\b`, `\bpassword\b`, `\btoken\b`, `\bcredential\b`,
	`\bdatabase\b`, `\bmigration\b`,
)

var mediumRiskPatterns = compileAll(
	`\brefactor\b`, `\bmerge\b`, `\brewrite\b`, `\bbreaking\s+change\b`,
	`\bapi\b`, `\bschema\b`, `\bconfig\b`, `\bauth\b`, `\blogin\b`, `\bpayment\b`,
)

var lowRiskPatterns = compileAll(
	`\btypo\b`, `\bfix\s+lint\b`, `\bformat\b`, `\bcomment\b`, `\bdoc\b`,
	`\breadme\b`, `\btest\b`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

var impactRiskMap = map[blastradius.Level]governance.RiskLevel{
	blastradius.LevelLow:    governance.RiskLow,
	blastradius.LevelMedium: governance.RiskMedium,
	blastradius.LevelHigh:   governance.RiskHigh,
}

var riskRank = map[governance.RiskLevel]int{
	governance.RiskLow: 0, governance.RiskMedium: 1, governance.RiskHigh: 2, governance.RiskCritical: 3,
}

func higherRisk(a, b governance.RiskLevel) governance.RiskLevel {
	if riskRank[b] > riskRank[a] {
		return b
	}
	return a
}

// Router assesses task risk and routes to a response mode.
type Router struct {
	analyzer *blastradius.Analyzer
}

// New builds a Router whose blast-radius analyzer is rooted at projectRoot.
func New(projectRoot string) *Router {
	return &Router{analyzer: blastradius.New(projectRoot)}
}

// AssessRisk classifies a task's risk from keyword matches, optionally
// sharpened by blast-radius analysis of the files it touches. When files
// are supplied, the returned risk is the max of the keyword-based estimate
// and the blast-radius-mapped estimate.
func (r *Router) AssessRisk(task, context string, affectedFiles []string) governance.RiskLevel {
	text := task + " " + context

	keywordRisk := governance.RiskMedium
	switch {
	case matchesAny(highRiskPatterns, text):
		keywordRisk = governance.RiskHigh
	case matchesAny(mediumRiskPatterns, text):
		keywordRisk = governance.RiskMedium
	case matchesAny(lowRiskPatterns, text):
		keywordRisk = governance.RiskLow
	}

	if len(affectedFiles) == 0 {
		return keywordRisk
	}

	impact := r.analyzer.CalculateImpact(affectedFiles)
	blastRisk, ok := impactRiskMap[impact.Level]
	if !ok {
		blastRisk = governance.RiskMedium
	}
	return higherRisk(keywordRisk, blastRisk)
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Route assesses risk and maps it to a RoutingDecision.
func (r *Router) Route(task, context string, affectedFiles []string) RoutingDecision {
	risk := r.AssessRisk(task, context, affectedFiles)

	switch risk {
	case governance.RiskLow:
		return RoutingDecision{
			Mode:              ModeSingleModel,
			Risk:              risk,
			Reason:            "low risk task, routing to a single-model fast response",
			RequiredApprovers: nil,
		}
	case governance.RiskMedium:
		return RoutingDecision{
			Mode:              ModeSwarmVerify,
			Risk:              risk,
			Reason:            "medium risk task, routing to swarm verification with a Wald-score quorum",
			RequiredApprovers: []string{"wald_score"},
		}
	case governance.RiskHigh:
		return RoutingDecision{
			Mode:              ModeFullCouncil,
			Risk:              risk,
			Reason:            "high risk task, requires full council deliberation",
			RequiredApprovers: []string{"wald_score", "codex_review"},
		}
	default: // critical
		return RoutingDecision{
			Mode:              ModeFullCouncil,
			Risk:              risk,
			Reason:            "critical task, requires full council deliberation plus human confirmation",
			RequiredApprovers: []string{"wald_score", "codex_review", "human"},
		}
	}
}

// ExplainDecision formats a RoutingDecision for logs.
func ExplainDecision(d RoutingDecision) string {
	var b strings.Builder
	fmt.Fprintln(&b, "=== ROUTING DECISION ===")
	fmt.Fprintf(&b, "Risk Level: %s\n", strings.ToUpper(string(d.Risk)))
	fmt.Fprintf(&b, "Response Mode: %s\n", d.Mode)
	fmt.Fprintf(&b, "Reason: %s\n", d.Reason)
	if len(d.RequiredApprovers) > 0 {
		fmt.Fprintf(&b, "Required Approvers: %s\n", strings.Join(d.RequiredApprovers, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
