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

package toolregistry

import (
	"fmt"
	"net"
	"net/rpc"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeExternalTool is an in-process ExternalTool implementation standing
// in for a plugin binary's side of the RPC contract.
type fakeExternalTool struct{}

func (fakeExternalTool) Call(args map[string]string) (string, error) {
	if args["fail"] == "true" {
		return "", fmt.Errorf("boom")
	}
	return "hello " + args["name"], nil
}

// TestToolRPCRoundTrip exercises the net/rpc server/client pair go-plugin
// would otherwise wire across a subprocess boundary, using an in-process
// net.Pipe instead of actually spawning a plugin binary.
func TestToolRPCRoundTrip(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("Plugin", &toolRPCServer{Impl: fakeExternalTool{}}))
	go server.ServeConn(serverConn)

	client := &toolRPCClient{client: rpc.NewClient(clientConn)}
	defer client.client.Close()

	out, err := client.Call(map[string]string{"name": "council"})
	require.NoError(t, err)
	require.Equal(t, "hello council", out)

	_, err = client.Call(map[string]string{"fail": "true"})
	require.Error(t, err)
}

func TestRegistryExternalDispatch(t *testing.T) {
	r := New()
	r.RegisterExternal(Definition{Name: "scan.deps", Category: CategorySecurity}, fakeExternalTool{})

	out, err := r.CallExternal("scan.deps", map[string]string{"name": "repo"})
	require.NoError(t, err)
	require.Equal(t, "hello repo", out)

	_, err = r.CallExternal("missing.tool", nil)
	require.Error(t, err)
}
