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

// Package council orchestrates a goal end to end: decomposing it into
// tasks, dispatching each task to the right agent per the routing
// decision and capability discovery, aggregating votes, and recording
// every decision in the knowledge graph.
package council

import (
	"context"
	"fmt"
	"sort"

	"github.com/councilrun/council/pkg/agent"
	"github.com/councilrun/council/pkg/memory"
	"github.com/councilrun/council/pkg/observability"
	"github.com/councilrun/council/pkg/router"
	"github.com/councilrun/council/pkg/task"
)

// Capability names what an agent can be dispatched to do.
type Capability string

// Member binds a named agent to the capabilities it offers, for
// dispatch and discovery purposes.
type Member struct {
	Agent        *agent.Agent
	Capabilities []Capability
}

// Orchestrator decomposes goals into tasks, routes each task to a
// capable agent, aggregates votes, and persists decisions.
type Orchestrator struct {
	members []Member
	tasks   *task.Manager
	router  *router.Router
	graph   *memory.KnowledgeGraph
}

// New builds an Orchestrator. graph may be nil, in which case decisions
// are aggregated but not persisted.
func New(tasks *task.Manager, rt *router.Router, graph *memory.KnowledgeGraph) *Orchestrator {
	return &Orchestrator{tasks: tasks, router: rt, graph: graph}
}

// Register adds an agent as a council member offering the given
// capabilities.
func (o *Orchestrator) Register(a *agent.Agent, capabilities ...Capability) {
	o.members = append(o.members, Member{Agent: a, Capabilities: capabilities})
}

// memberFor returns the first registered member offering capability, or
// nil if none match.
func (o *Orchestrator) memberFor(capability Capability) *agent.Agent {
	for _, m := range o.members {
		for _, c := range m.Capabilities {
			if c == capability {
				return m.Agent
			}
		}
	}
	return nil
}

// Decompose splits a goal into persisted Tasks. The caller supplies the
// breakdown; Decompose's job is assigning ids and persisting it, mirroring
// the source's TaskManager-backed decomposition.
func (o *Orchestrator) Decompose(goal string, subtasks []string) ([]*task.Task, error) {
	var created []*task.Task
	for _, st := range subtasks {
		t, err := o.tasks.Add(st, fmt.Sprintf("part of goal: %s", goal), "medium", nil)
		if err != nil {
			return nil, err
		}
		created = append(created, t)
	}
	return created, nil
}

// Dispatch routes a task to the agent offering capability and runs the
// full think/execute cycle, recording the outcome in the task store.
func (o *Orchestrator) Dispatch(ctx context.Context, t *task.Task, capability Capability) (agent.ExecuteResult, error) {
	a := o.memberFor(capability)
	if a == nil {
		return agent.ExecuteResult{}, fmt.Errorf("council: no registered agent offers capability %q", capability)
	}

	metrics := observability.GetGlobalMetrics()
	metrics.IncDispatchesInFlight(string(capability))
	defer metrics.DecDispatchesInFlight(string(capability))

	if _, err := o.tasks.UpdateStatus(t.ID, task.StatusInProgress, nil); err != nil {
		return agent.ExecuteResult{}, err
	}

	think, err := a.Think(ctx, t.Description)
	if err != nil {
		o.tasks.UpdateStatus(t.ID, task.StatusBlocked, map[string]any{"error": err.Error()})
		return agent.ExecuteResult{}, err
	}

	result, err := a.Execute(ctx, t.Description, think.Analysis)
	if err != nil {
		o.tasks.UpdateStatus(t.ID, task.StatusBlocked, map[string]any{"error": err.Error()})
		return agent.ExecuteResult{}, err
	}

	status := task.StatusCompleted
	if !result.Success {
		status = task.StatusBlocked
	}
	o.tasks.UpdateStatus(t.ID, status, map[string]any{"success": result.Success, "output": result.Output})

	return result, nil
}

// voteRank orders decisions for tie-breaking: approve_with_changes loses
// to hold, which loses to reject, which loses to approve.
var voteRank = map[agent.VoteDecision]int{
	agent.DecisionApproveWithChanges: 0,
	agent.DecisionHold:               1,
	agent.DecisionReject:             2,
	agent.DecisionApprove:            3,
}

// AggregationResult is the outcome of aggregating a council's votes on a
// proposal.
type AggregationResult struct {
	Decision        agent.VoteDecision
	ConfidenceTotal float64
	Tally           map[agent.VoteDecision]float64
	Votes           []agent.Vote
}

// AggregateVotes sums confidence per decision and picks the majority,
// breaking ties by voteRank (approve_with_changes < hold < reject <
// approve).
func AggregateVotes(votes []agent.Vote) AggregationResult {
	metrics := observability.GetGlobalMetrics()
	tally := make(map[agent.VoteDecision]float64)
	for _, v := range votes {
		tally[v.Decision] += v.Confidence
		metrics.RecordVote(v.AgentName, string(v.Decision))
	}

	var decisions []agent.VoteDecision
	for d := range tally {
		decisions = append(decisions, d)
	}
	sort.Slice(decisions, func(i, j int) bool {
		if tally[decisions[i]] != tally[decisions[j]] {
			return tally[decisions[i]] > tally[decisions[j]]
		}
		return voteRank[decisions[i]] > voteRank[decisions[j]]
	})

	result := AggregationResult{Tally: tally, Votes: votes}
	if len(decisions) > 0 {
		result.Decision = decisions[0]
		result.ConfidenceTotal = tally[decisions[0]]
	}
	return result
}

// RecordDecision persists a council decision and its contributing votes
// into the knowledge graph, linking the decision entity to each voting
// agent via a decided_by relation.
func (o *Orchestrator) RecordDecision(decisionID, description string, result AggregationResult) error {
	observability.GetGlobalMetrics().RecordDecision(string(result.Decision))

	if o.graph == nil {
		return nil
	}

	o.graph.AddEntity(decisionID, memory.EntityDecision, description, map[string]any{
		"decision":   string(result.Decision),
		"confidence": result.ConfidenceTotal,
	})

	for _, v := range result.Votes {
		agentID := "agent:" + v.AgentName
		o.graph.AddEntity(agentID, memory.EntityAgent, v.AgentName, nil)
		if _, err := o.graph.AddRelation(decisionID, agentID, memory.RelationDecidedBy, map[string]any{
			"vote":       string(v.Decision),
			"confidence": v.Confidence,
		}, v.Confidence); err != nil {
			return err
		}
	}

	return o.graph.Save()
}
