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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"
)

// ApproveCmd lists pending governance requests on a running council server
// and, when attached to a terminal, walks through them interactively.
type ApproveCmd struct {
	Server string `help:"Base URL of a running council server." default:"http://localhost:8080"`
	As     string `help:"Approver identity recorded on the decision." default:"cli"`
}

// rpcEnvelope mirrors pkg/mcp's JSON-RPC 2.0 request/response shape without
// importing the package, since the CLI talks to the server over HTTP only.
type rpcEnvelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResult struct {
	Result *struct {
		Content json.RawMessage `json:"content"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type pendingRequest struct {
	ID          string   `json:"ID"`
	Kind        string   `json:"Kind"`
	Type        string   `json:"Type"`
	Description string   `json:"Description"`
	Risk        string   `json:"Risk"`
	Requestor   string   `json:"Requestor"`
	Resources   []string `json:"AffectedResources"`
}

func (c *ApproveCmd) Run(cli *CLI) error {
	pending, err := c.callTool("governance.pending", nil)
	if err != nil {
		return fmt.Errorf("failed to list pending requests: %w", err)
	}

	var reqs []pendingRequest
	if len(pending) > 0 {
		if err := json.Unmarshal(pending, &reqs); err != nil {
			return fmt.Errorf("failed to parse pending requests: %w", err)
		}
	}

	if len(reqs) == 0 {
		fmt.Println("no pending governance requests")
		return nil
	}

	if !isTerminal(os.Stdin) {
		fmt.Printf("%d pending governance request(s):\n\n", len(reqs))
		for _, r := range reqs {
			fmt.Printf("  %s  [%s/%s risk=%s]  %s\n", r.ID, r.Kind, r.Type, r.Risk, r.Description)
		}
		fmt.Println("\nrun this command in a terminal to approve or reject interactively")
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	for _, r := range reqs {
		fmt.Printf("\n[%s] kind=%s type=%s risk=%s requestor=%s\n", r.ID, r.Kind, r.Type, r.Risk, r.Requestor)
		fmt.Printf("  %s\n", r.Description)
		if len(r.Resources) > 0 {
			fmt.Printf("  affects: %s\n", strings.Join(r.Resources, ", "))
		}

		decision := promptDecision(reader)
		switch decision {
		case "skip":
			continue
		case "approve":
			if _, err := c.callTool("governance.approve", map[string]any{"id": r.ID, "approver": c.As}); err != nil {
				fmt.Fprintf(os.Stderr, "  failed to approve %s: %v\n", r.ID, err)
				continue
			}
			fmt.Printf("  approved %s\n", r.ID)
		case "reject":
			if _, err := c.callTool("governance.reject", map[string]any{"id": r.ID, "approver": c.As, "reason": "rejected via CLI"}); err != nil {
				fmt.Fprintf(os.Stderr, "  failed to reject %s: %v\n", r.ID, err)
				continue
			}
			fmt.Printf("  rejected %s\n", r.ID)
		}
	}
	return nil
}

// promptDecision reads an approve/reject/skip decision from the terminal.
func promptDecision(reader *bufio.Reader) string {
	for {
		fmt.Print("  approve/reject/skip? (a/r/s): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return "skip"
		}
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "approve", "a":
			return "approve"
		case "reject", "r":
			return "reject"
		case "skip", "s", "":
			return "skip"
		default:
			fmt.Println("  please enter 'a', 'r', or 's'")
		}
	}
}

// isTerminal reports whether f is attached to an interactive terminal,
// so ApproveCmd only prompts when a human can actually answer.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// callTool invokes a single MCP tool on the server's /mcp endpoint and
// returns its raw JSON result.
func (c *ApproveCmd) callTool(name string, args map[string]any) (json.RawMessage, error) {
	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	envelope := rpcEnvelope{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(c.Server+"/mcp", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.Server, err)
	}
	defer resp.Body.Close()

	var result rpcResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("%s", result.Error.Message)
	}
	if result.Result == nil {
		return nil, nil
	}
	return result.Result.Content, nil
}
