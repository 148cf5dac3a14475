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

// Package workflow implements a directed graph of named nodes — standard,
// approval, parallel, and loop — executed with deterministic state
// transitions and optional checkpointing for resumable runs.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/councilrun/council/pkg/checkpoint"
)

// State is the shared state threaded through every node.
type State struct {
	Messages   []map[string]string
	Context    map[string]any
	NextNode   string
	Approved   bool
	LoopCount  int
}

// Clone deep-copies the parts of State a parallel branch needs its own
// mutable view of.
func (s State) Clone() State {
	out := State{NextNode: s.NextNode, Approved: s.Approved, LoopCount: s.LoopCount}
	out.Messages = append([]map[string]string{}, s.Messages...)
	out.Context = make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		out.Context[k] = v
	}
	return out
}

// nodeType distinguishes how Graph.run dispatches a node.
type nodeType string

const (
	nodeStandard nodeType = "standard"
	nodeApproval nodeType = "approval"
	nodeParallel nodeType = "parallel"
)

// Action is a synchronous node body.
type Action func(ctx context.Context, s State) (State, error)

// ConditionalDecision picks the next node name from the current state.
type ConditionalDecision func(s State) string

// ApprovalFunc decides whether an approval node passes.
type ApprovalFunc func(ctx context.Context, s State) (bool, error)

// MergeStrategy controls how a parallel group's branch results combine.
type MergeStrategy string

const (
	MergeAll   MergeStrategy = "all"
	MergeFirst MergeStrategy = "first"
	MergeAny   MergeStrategy = "any"
)

type parallelConfig struct {
	nodes         []string
	joinNode      string
	mergeStrategy MergeStrategy
}

type loopConfig struct {
	condition     func(State) bool
	maxIterations int
}

// Graph is a directed graph of named nodes.
type Graph struct {
	Name string

	nodes             map[string]Action
	nodeTypes         map[string]nodeType
	edges             map[string]string
	conditionalEdges  map[string]ConditionalDecision
	approvalFuncs     map[string]ApprovalFunc
	parallelConfigs   map[string]parallelConfig
	loopConfigs       map[string]loopConfig
	entryPoint        string

	store   checkpoint.Store
	history []string
	logger  *slog.Logger
}

// New builds an empty Graph. A nil store disables checkpointing.
func New(name string, store checkpoint.Store, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		Name:             name,
		nodes:            make(map[string]Action),
		nodeTypes:        make(map[string]nodeType),
		edges:            make(map[string]string),
		conditionalEdges: make(map[string]ConditionalDecision),
		approvalFuncs:    make(map[string]ApprovalFunc),
		parallelConfigs:  make(map[string]parallelConfig),
		loopConfigs:      make(map[string]loopConfig),
		store:            store,
		logger:           logger,
	}
}

// AddNode registers a standard node.
func (g *Graph) AddNode(name string, action Action) {
	g.nodes[name] = action
	g.nodeTypes[name] = nodeStandard
}

// SetEntryPoint sets the starting node.
func (g *Graph) SetEntryPoint(name string) { g.entryPoint = name }

// AddEdge adds an unconditional edge.
func (g *Graph) AddEdge(from, to string) { g.edges[from] = to }

// AddConditionalEdge adds a conditional edge driven by decide.
func (g *Graph) AddConditionalEdge(from string, decide ConditionalDecision) {
	g.conditionalEdges[from] = decide
}

// AddApprovalNode adds a node that calls approve once when reached. On
// denial, state.Approved is set false and the run halts there.
func (g *Graph) AddApprovalNode(name string, approve ApprovalFunc) {
	if approve == nil {
		approve = func(ctx context.Context, s State) (bool, error) { return true, nil }
	}
	g.approvalFuncs[name] = approve
	g.nodeTypes[name] = nodeApproval
	g.nodes[name] = func(ctx context.Context, s State) (State, error) {
		ok, err := g.approvalFuncs[name](ctx, s)
		if err != nil {
			return s, err
		}
		s.Approved = ok
		if !ok {
			g.logger.Warn("approval denied", "node", name)
		}
		return s, nil
	}
}

// AddParallelNodes registers a parallel group: nodes run concurrently, each
// against its own cloned State, then merge into the continuing state per
// strategy before the walk proceeds to joinNode.
func (g *Graph) AddParallelNodes(name string, nodes []string, joinNode string, strategy MergeStrategy) {
	if strategy == "" {
		strategy = MergeAll
	}
	g.parallelConfigs[name] = parallelConfig{nodes: nodes, joinNode: joinNode, mergeStrategy: strategy}
	g.nodeTypes[name] = nodeParallel
}

// AddLoopEdge loops from -> end while condition holds, up to maxIterations,
// then falls through to from's existing unconditional edge (if any).
func (g *Graph) AddLoopEdge(from, end string, condition func(State) bool, maxIterations int) {
	if maxIterations <= 0 {
		maxIterations = 10
	}
	g.loopConfigs[from] = loopConfig{condition: condition, maxIterations: maxIterations}
	g.conditionalEdges[from] = func(s State) string {
		cfg := g.loopConfigs[from]
		if s.LoopCount >= cfg.maxIterations {
			g.logger.Warn("max loop iterations reached", "node", from)
			return g.edges[from]
		}
		if cfg.condition(s) {
			return end
		}
		return g.edges[from]
	}
}

func (g *Graph) executeNode(ctx context.Context, name string, s State) (State, error) {
	action, ok := g.nodes[name]
	if !ok {
		g.logger.Warn("node not found", "node", name)
		return s, nil
	}
	return action(ctx, s)
}

func (g *Graph) executeParallel(ctx context.Context, cfg parallelConfig, s State) (State, error) {
	results := make([]State, len(cfg.nodes))
	errs := make([]error, len(cfg.nodes))

	grp, gctx := errgroup.WithContext(ctx)
	for i, nodeName := range cfg.nodes {
		i, nodeName := i, nodeName
		branch := s.Clone()
		grp.Go(func() error {
			out, err := g.executeNode(gctx, nodeName, branch)
			results[i] = out
			errs[i] = err
			return nil // branch errors are carried in errs, not failing the group
		})
	}
	if err := grp.Wait(); err != nil {
		return s, err
	}

	switch cfg.mergeStrategy {
	case MergeFirst:
		for i, r := range results {
			if errs[i] == nil {
				return r, nil
			}
		}
		return s, fmt.Errorf("workflow: all parallel branches of %v failed", cfg.nodes)
	case MergeAny:
		for i, r := range results {
			if errs[i] == nil && r.Approved {
				return r, nil
			}
		}
		return s, nil
	default: // all
		merged := s
		for i, r := range results {
			if errs[i] != nil {
				continue
			}
			for k, v := range r.Context {
				merged.Context[k] = v
			}
			merged.Messages = append(merged.Messages, r.Messages...)
		}
		return merged, nil
	}
}

// RunOptions controls a single Run invocation.
type RunOptions struct {
	CheckpointInterval int // save every N steps, 0 disables
	RunID              string
}

// Run walks the graph from its entry point (or a resumed node) to
// completion, dispatching each node by type and following edges until no
// edge remains or an approval node denies.
func (g *Graph) Run(ctx context.Context, initial State, opts RunOptions) (State, error) {
	current := g.entryPoint
	state := initial
	step := 0
	g.history = nil

	for current != "" {
		g.history = append(g.history, current)
		step++

		if cfg, ok := g.parallelConfigs[current]; ok {
			next, err := g.executeParallel(ctx, cfg, state)
			if err != nil {
				return state, err
			}
			state = next
			current = cfg.joinNode
			continue
		}

		next, err := g.executeNode(ctx, current, state)
		if err != nil {
			return state, fmt.Errorf("workflow: node %q failed: %w", current, err)
		}
		state = next

		if g.nodeTypes[current] == nodeApproval && !state.Approved {
			g.logger.Warn("execution halted at approval node", "node", current)
			break
		}

		if g.store != nil && opts.CheckpointInterval > 0 && step%opts.CheckpointInterval == 0 {
			g.saveCheckpoint(opts.RunID, current, state)
		}

		if decide, ok := g.conditionalEdges[current]; ok {
			next := decide(state)
			if _, isLoop := g.loopConfigs[current]; isLoop && next != g.edges[current] {
				state.LoopCount++
			}
			current = next
		} else if to, ok := g.edges[current]; ok {
			current = to
		} else {
			current = ""
		}
	}

	return state, nil
}

func (g *Graph) saveCheckpoint(runID, node string, s State) {
	if runID == "" {
		runID = g.Name
	}
	err := g.store.Save(&checkpoint.State{
		WorkflowID:  g.Name,
		RunID:       runID,
		CurrentNode: node,
		LoopCounts:  map[string]int{node: s.LoopCount},
		Data: map[string]any{
			"messages": s.Messages,
			"context":  s.Context,
			"approved": s.Approved,
		},
		Approved: s.Approved,
	})
	if err != nil {
		g.logger.Warn("checkpoint save failed", "error", err)
	}
}

// Resume loads a checkpointed State and the node to continue from.
func (g *Graph) Resume(runID string) (State, string, error) {
	if g.store == nil {
		return State{}, "", fmt.Errorf("workflow: no checkpoint store configured")
	}
	cp, err := g.store.Load(runID)
	if err != nil {
		return State{}, "", err
	}

	s := State{Context: make(map[string]any), Approved: cp.Approved}
	if data, ok := cp.Data["context"].(map[string]any); ok {
		s.Context = data
	}
	if msgs, ok := cp.Data["messages"].([]map[string]string); ok {
		s.Messages = msgs
	}
	return s, cp.CurrentNode, nil
}

// ExecutionHistory returns the node names visited during the last Run.
func (g *Graph) ExecutionHistory() []string {
	return append([]string{}, g.history...)
}
