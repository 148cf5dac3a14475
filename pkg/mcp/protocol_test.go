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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestHandler() *ProtocolHandler {
	h := NewProtocolHandler()
	h.RegisterTool(Tool{
		Name:        "council_query",
		Description: "Query the council",
		InputSchema: Schema{Type: "object", Required: []string{"prompt"}},
		Handle: func(args map[string]any) (any, error) {
			return "received: " + args["prompt"].(string), nil
		},
	})
	h.RegisterResource(Resource{URI: "council://knowledge_graph", Name: "Knowledge Graph"})
	return h
}

func TestToolsListReturnsRegisteredTools(t *testing.T) {
	h := newTestHandler()
	resp := h.HandleRequest(Request{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
}

func TestToolsCallMissingRequiredArgument(t *testing.T) {
	h := newTestHandler()
	params, _ := json.Marshal(map[string]any{"name": "council_query", "arguments": map[string]any{}})
	resp := h.HandleRequest(Request{ID: 1, Method: "tools/call", Params: params})
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrInvalidParams, resp.Error.Code)
}

func TestToolsCallUnknownTool(t *testing.T) {
	h := newTestHandler()
	params, _ := json.Marshal(map[string]any{"name": "nonexistent"})
	resp := h.HandleRequest(Request{ID: 1, Method: "tools/call", Params: params})
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrInvalidParams, resp.Error.Code)
}

func TestToolsCallSucceeds(t *testing.T) {
	h := newTestHandler()
	params, _ := json.Marshal(map[string]any{"name": "council_query", "arguments": map[string]any{"prompt": "hello"}})
	resp := h.HandleRequest(Request{ID: 1, Method: "tools/call", Params: params})
	require.Nil(t, resp.Error)
}

func TestMethodNotFound(t *testing.T) {
	h := newTestHandler()
	resp := h.HandleRequest(Request{ID: 1, Method: "bogus/method"})
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrMethodNotFound, resp.Error.Code)
}

func TestResourcesListReturnsRegistered(t *testing.T) {
	h := newTestHandler()
	resp := h.HandleRequest(Request{ID: 1, Method: "resources/list"})
	require.Nil(t, resp.Error)
}
