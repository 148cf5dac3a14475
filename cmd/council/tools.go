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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/councilrun/council/pkg/checkpoint"
	"github.com/councilrun/council/pkg/coordination"
	"github.com/councilrun/council/pkg/council"
	"github.com/councilrun/council/pkg/mcp"
	"github.com/councilrun/council/pkg/governance"
	"github.com/councilrun/council/pkg/memory"
	"github.com/councilrun/council/pkg/task"
	"github.com/councilrun/council/pkg/toolregistry"
)

// registerCouncilTools exposes task management, memory, queue,
// checkpoint, plugin-tool, and governance operations as MCP tools, so
// any MCP-speaking client can drive the council runtime the same way a
// council agent does.
func registerCouncilTools(h *mcp.ProtocolHandler, tasks *task.Manager, orch *council.Orchestrator, backend coordination.Backend, fabric *memory.Fabric, checkpoints checkpoint.Store, tools *toolregistry.Registry, gateway *governance.Gateway) {
	h.RegisterTool(mcp.Tool{
		Name:        "task.add",
		Description: "Create a new task in the project task list.",
		InputSchema: mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Schema{
				"title":       {Type: "string"},
				"description": {Type: "string"},
				"priority":    {Type: "string"},
			},
			Required: []string{"title"},
		},
		Handle: func(args map[string]any) (any, error) {
			title, _ := args["title"].(string)
			description, _ := args["description"].(string)
			priority, _ := args["priority"].(string)
			if priority == "" {
				priority = "medium"
			}
			t, err := tasks.Add(title, description, priority, nil)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "task.list",
		Description: "List tasks, optionally filtered by status.",
		InputSchema: mcp.Schema{
			Type:       "object",
			Properties: map[string]mcp.Schema{"status": {Type: "string"}},
		},
		Handle: func(args map[string]any) (any, error) {
			status, _ := args["status"].(string)
			return tasks.List(task.Status(status)), nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "task.ready",
		Description: "List tasks whose dependencies are all completed.",
		Handle: func(args map[string]any) (any, error) {
			return tasks.Ready(), nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "council.decompose",
		Description: "Decompose a goal into persisted subtasks.",
		InputSchema: mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Schema{
				"goal":     {Type: "string"},
				"subtasks": {Type: "array", Items: &mcp.Schema{Type: "string"}},
			},
			Required: []string{"goal", "subtasks"},
		},
		Handle: func(args map[string]any) (any, error) {
			goal, _ := args["goal"].(string)
			raw, _ := args["subtasks"].([]any)
			subtasks := make([]string, 0, len(raw))
			for _, s := range raw {
				if str, ok := s.(string); ok {
					subtasks = append(subtasks, str)
				}
			}
			created, err := orch.Decompose(goal, subtasks)
			if err != nil {
				return nil, err
			}
			return created, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "memory.remember",
		Description: "Store a note in working memory for later recall.",
		InputSchema: mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Schema{
				"content": {Type: "string"},
			},
			Required: []string{"content"},
		},
		Handle: func(args map[string]any) (any, error) {
			content, _ := args["content"].(string)
			id, err := fabric.Store(context.Background(), memory.TierWorking, content, nil, nil)
			if err != nil {
				return nil, fmt.Errorf("remember: %w", err)
			}
			return map[string]any{"id": id}, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "memory.recall",
		Description: "Recall entries from working memory, optionally fused with a keyword match.",
		InputSchema: mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Schema{
				"keyword": {Type: "string"},
				"limit":   {Type: "integer"},
			},
		},
		Handle: func(args map[string]any) (any, error) {
			limit := 5
			if v, ok := args["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}
			keyword, _ := args["keyword"].(string)
			records, err := fabric.HybridSearch(context.Background(), memory.TierWorking, nil, keyword, limit)
			if err != nil {
				return nil, fmt.Errorf("recall: %w", err)
			}
			return records, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "queue.enqueue",
		Description: "Enqueue a work item onto the distributed coordination queue.",
		InputSchema: mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Schema{
				"id":   {Type: "string"},
				"task": {Type: "string"},
			},
			Required: []string{"id", "task"},
		},
		Handle: func(args map[string]any) (any, error) {
			id, _ := args["id"].(string)
			taskDesc, _ := args["task"].(string)
			item := coordination.WorkItem{ID: id, Task: taskDesc}
			if err := backend.Enqueue(context.Background(), item); err != nil {
				return nil, fmt.Errorf("enqueue: %w", err)
			}
			return map[string]any{"enqueued": id}, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "queue.claim",
		Description: "Claim the next pending work item for a worker.",
		InputSchema: mcp.Schema{
			Type:       "object",
			Properties: map[string]mcp.Schema{"worker_id": {Type: "string"}},
			Required:   []string{"worker_id"},
		},
		Handle: func(args map[string]any) (any, error) {
			workerID, _ := args["worker_id"].(string)
			item, err := backend.Claim(context.Background(), workerID)
			if err != nil {
				return nil, fmt.Errorf("claim: %w", err)
			}
			if item == nil {
				return map[string]any{"claimed": false}, nil
			}
			return item, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "checkpoint.save",
		Description: "Save a named run's checkpoint state for later resume.",
		InputSchema: mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Schema{
				"workflow_id": {Type: "string"},
				"run_id":      {Type: "string"},
				"node":        {Type: "string"},
			},
			Required: []string{"run_id"},
		},
		Handle: func(args map[string]any) (any, error) {
			runID, _ := args["run_id"].(string)
			workflowID, _ := args["workflow_id"].(string)
			node, _ := args["node"].(string)
			state := &checkpoint.State{
				WorkflowID:  workflowID,
				RunID:       runID,
				CurrentNode: node,
				CreatedAt:   time.Now().UTC(),
			}
			if err := checkpoints.Save(state); err != nil {
				return nil, fmt.Errorf("checkpoint.save: %w", err)
			}
			return map[string]any{"saved": runID}, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "checkpoint.load",
		Description: "Load a run's saved checkpoint state.",
		InputSchema: mcp.Schema{
			Type:       "object",
			Properties: map[string]mcp.Schema{"run_id": {Type: "string"}},
			Required:   []string{"run_id"},
		},
		Handle: func(args map[string]any) (any, error) {
			runID, _ := args["run_id"].(string)
			state, err := checkpoints.Load(runID)
			if err != nil {
				return nil, fmt.Errorf("checkpoint.load: %w", err)
			}
			return state, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "tool.plugin.call",
		Description: "Invoke an out-of-process tool plugin loaded at startup.",
		InputSchema: mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Schema{
				"name": {Type: "string"},
				"args": {Type: "object"},
			},
			Required: []string{"name"},
		},
		Handle: func(args map[string]any) (any, error) {
			name, _ := args["name"].(string)
			callArgs := make(map[string]string)
			if raw, ok := args["args"].(map[string]any); ok {
				for k, v := range raw {
					callArgs[k] = fmt.Sprintf("%v", v)
				}
			}
			out, err := tools.CallExternal(name, callArgs)
			if err != nil {
				return nil, fmt.Errorf("tool.plugin.call: %w", err)
			}
			return map[string]any{"result": out}, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "governance.pending",
		Description: "List approval requests awaiting a human decision.",
		Handle: func(args map[string]any) (any, error) {
			return gateway.Pending(), nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "governance.approve",
		Description: "Approve a pending governance request.",
		InputSchema: mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Schema{
				"id":       {Type: "string"},
				"approver": {Type: "string"},
			},
			Required: []string{"id", "approver"},
		},
		Handle: func(args map[string]any) (any, error) {
			id, _ := args["id"].(string)
			approver, _ := args["approver"].(string)
			req, err := gateway.Approve(id, approver)
			if err != nil {
				return nil, fmt.Errorf("governance.approve: %w", err)
			}
			return req, nil
		},
	})

	h.RegisterTool(mcp.Tool{
		Name:        "governance.reject",
		Description: "Reject a pending governance request.",
		InputSchema: mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Schema{
				"id":       {Type: "string"},
				"approver": {Type: "string"},
				"reason":   {Type: "string"},
			},
			Required: []string{"id", "approver"},
		},
		Handle: func(args map[string]any) (any, error) {
			id, _ := args["id"].(string)
			approver, _ := args["approver"].(string)
			reason, _ := args["reason"].(string)
			req, err := gateway.Reject(id, approver, reason)
			if err != nil {
				return nil, fmt.Errorf("governance.reject: %w", err)
			}
			return req, nil
		},
	})
}
