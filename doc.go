// Package council implements a config-first multi-agent orchestration
// runtime: sandboxed tool execution, tiered memory with a knowledge
// graph, hook-driven lifecycle events, swarm governance voting, a
// multi-model execution layer, and an MCP/A2A surface for exposing and
// consuming agent capabilities.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/councilrun/council/cmd/council@latest
//
// Write a minimal config:
//
//	yaml
//	version: "1"
//	name: my-council
//
//	agents:
//	  architect:
//	    model: planner-default
//	    role: planner
//	  builder:
//	    model: executor-default
//	    role: executor
//
// Start the server:
//
//	council serve --config council.yaml
//
// # Using as a Go Library
//
// Import specific packages for the pieces you need:
//
//	import (
//	    "github.com/councilrun/council/pkg/agent"
//	    "github.com/councilrun/council/pkg/council"
//	    "github.com/councilrun/council/pkg/config"
//	)
//
// # Key Components
//
//   - Sandbox: pluggable local/container/remote script execution
//   - Memory: tiered working/short-term/long-term storage with a
//     knowledge graph and hybrid (RRF) retrieval
//   - Governance: proposal voting and policy enforcement
//   - Router: swarm vote aggregation (Wald score quorum)
//   - Agent: a uniform think/vote/execute contract per agent
//   - Council: task decomposition, dispatch, and decision recording
//   - MCP/A2A: JSON-RPC tool surface and agent-to-agent bridging
//
// # Alpha Status
//
// The council runtime is in active development. APIs may change.
//
// # License
//
// Apache-2.0 - See LICENSE for details.
package council
