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
	"net/rpc"
	"os/exec"
	"sync"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/councilrun/council/pkg/logger"
)

// handshakeConfig guards against accidentally running an unrelated
// executable as a tool plugin.
var handshakeConfig = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "COUNCIL_TOOL_PLUGIN",
	MagicCookieValue: "council",
}

// ExternalTool is the contract an out-of-process tool plugin implements:
// one RPC method taking string-keyed arguments and returning a string
// result, kept deliberately narrow so it round-trips over net/rpc's gob
// codec without the caller having to register argument types.
type ExternalTool interface {
	Call(args map[string]string) (string, error)
}

// toolRPCArgs is the net/rpc request envelope for Call.
type toolRPCArgs struct {
	Args map[string]string
}

// toolRPCServer adapts a local ExternalTool implementation to net/rpc,
// running inside the plugin subprocess.
type toolRPCServer struct {
	Impl ExternalTool
}

func (s *toolRPCServer) Call(args toolRPCArgs, resp *string) error {
	out, err := s.Impl.Call(args.Args)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

// toolRPCClient is the host-side stub returned by ToolPlugin.Client,
// implementing ExternalTool by making the RPC call over the broker
// connection to the subprocess.
type toolRPCClient struct {
	client *rpc.Client
}

func (c *toolRPCClient) Call(args map[string]string) (string, error) {
	var resp string
	if err := c.client.Call("Plugin.Call", toolRPCArgs{Args: args}, &resp); err != nil {
		return "", fmt.Errorf("toolregistry: plugin call: %w", err)
	}
	return resp, nil
}

// ToolPlugin implements goplugin.Plugin for the net/rpc transport,
// bridging a local ExternalTool (Impl, set on the host side) or serving
// one (set by the plugin binary's own main before calling goplugin.Serve).
type ToolPlugin struct {
	Impl ExternalTool
}

func (p *ToolPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &toolRPCServer{Impl: p.Impl}, nil
}

func (p *ToolPlugin) Client(b *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &toolRPCClient{client: c}, nil
}

var _ goplugin.Plugin = (*ToolPlugin)(nil)

// LoadedPlugin is a running out-of-process tool plugin and the
// ExternalTool stub used to call it.
type LoadedPlugin struct {
	ExternalTool
	client *goplugin.Client
}

// Close terminates the plugin subprocess.
func (l *LoadedPlugin) Close() {
	if l.client != nil {
		l.client.Kill()
	}
}

// ExternalLoader spawns and manages out-of-process tool plugin binaries
// over hashicorp/go-plugin's net/rpc transport.
type ExternalLoader struct {
	logger hclog.Logger
	mu     sync.Mutex
	loaded map[string]*LoadedPlugin
}

// NewExternalLoader builds a loader whose subprocess logging routes
// through pkg/logger's filtering handler rather than hclog's own writer.
func NewExternalLoader() *ExternalLoader {
	return &ExternalLoader{
		logger: logger.NewHCLogAdapter("toolplugin"),
		loaded: make(map[string]*LoadedPlugin),
	}
}

// Load starts the plugin binary at path and dispenses its ExternalTool
// implementation under name.
func (l *ExternalLoader) Load(name, path string) (*LoadedPlugin, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.loaded[name]; ok {
		return existing, nil
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: handshakeConfig,
		Plugins:         map[string]goplugin.Plugin{"tool": &ToolPlugin{}},
		Cmd:             exec.Command(path),
		Logger:          l.logger,
		AllowedProtocols: []goplugin.Protocol{
			goplugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("toolregistry: connecting to plugin %s: %w", name, err)
	}

	raw, err := rpcClient.Dispense("tool")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("toolregistry: dispensing plugin %s: %w", name, err)
	}

	tool, ok := raw.(ExternalTool)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("toolregistry: plugin %s does not implement ExternalTool", name)
	}

	loaded := &LoadedPlugin{ExternalTool: tool, client: client}
	l.loaded[name] = loaded
	return loaded, nil
}

// Unload kills and forgets the named plugin, if running.
func (l *ExternalLoader) Unload(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.loaded[name]; ok {
		p.Close()
		delete(l.loaded, name)
	}
}

// CloseAll kills every running plugin.
func (l *ExternalLoader) CloseAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, p := range l.loaded {
		p.Close()
		delete(l.loaded, name)
	}
}
