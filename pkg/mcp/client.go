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

package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ExternalServer proxies tools exposed by a remote MCP server (reached
// over stdio) into this process's ProtocolHandler, so council agents can
// call third-party MCP tools the same way they call built-in ones.
type ExternalServer struct {
	Command string
	Args    []string
	Env     map[string]string

	client *client.Client
}

func (e *ExternalServer) envPairs() []string {
	pairs := make([]string, 0, len(e.Env))
	for k, v := range e.Env {
		pairs = append(pairs, k+"="+v)
	}
	return pairs
}

// Connect starts the external server subprocess and completes the MCP
// initialize handshake.
func (e *ExternalServer) Connect(ctx context.Context) error {
	c, err := client.NewStdioMCPClient(e.Command, e.envPairs(), e.Args...)
	if err != nil {
		return fmt.Errorf("mcp: creating stdio client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("mcp: starting client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "council", Version: "1.0.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return fmt.Errorf("mcp: initializing: %w", err)
	}

	e.client = c
	return nil
}

// Close shuts down the subprocess connection.
func (e *ExternalServer) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// RegisterInto lists the external server's tools and registers each as a
// proxying Tool on h, forwarding calls back to the subprocess.
func (e *ExternalServer) RegisterInto(ctx context.Context, h *ProtocolHandler) error {
	if e.client == nil {
		return fmt.Errorf("mcp: external server not connected")
	}

	resp, err := e.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("mcp: listing remote tools: %w", err)
	}

	for _, remote := range resp.Tools {
		remote := remote
		h.RegisterTool(Tool{
			Name:        remote.Name,
			Description: remote.Description,
			Handle: func(args map[string]any) (any, error) {
				req := mcp.CallToolRequest{}
				req.Params.Name = remote.Name
				req.Params.Arguments = args
				result, err := e.client.CallTool(context.Background(), req)
				if err != nil {
					return nil, fmt.Errorf("mcp: remote call to %s failed: %w", remote.Name, err)
				}
				return extractText(result), nil
			},
		})
	}
	return nil
}

func extractText(result *mcp.CallToolResult) any {
	if result == nil {
		return nil
	}
	var texts []string
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	if len(texts) == 1 {
		return texts[0]
	}
	if len(texts) > 1 {
		return texts
	}
	return nil
}
