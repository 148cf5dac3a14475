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

// Package a2a bridges the council's internal agents with external
// agent-to-agent protocol peers: capability discovery, best-agent
// routing, and a pending-message queue for peers with no registered
// handler yet.
package a2a

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/councilrun/council/pkg/ids"
)

// Capability names a standard agent capability advertised for discovery.
type Capability string

const (
	CapabilityThink         Capability = "think"
	CapabilityVote          Capability = "vote"
	CapabilityExecute       Capability = "execute"
	CapabilityCode          Capability = "code"
	CapabilityReview        Capability = "review"
	CapabilitySecurityAudit Capability = "security_audit"
	CapabilityArchitecture  Capability = "architecture"
	CapabilitySearch        Capability = "search"
	CapabilityHandoff       Capability = "handoff"
)

// CapabilityDescriptor describes an agent's capabilities for discovery.
type CapabilityDescriptor struct {
	AgentName    string
	Capabilities []Capability
	Description  string
	InputSchema  map[string]any
	OutputSchema map[string]any
	Version      string
	Priority     int
}

// Message is an A2A protocol message exchanged between agents or bridges.
type Message struct {
	MessageID     string
	FromAgent     string
	ToAgent       string
	Action        string
	Payload       map[string]any
	Timestamp     time.Time
	ReplyTo       string
	CorrelationID string
}

// MessageHandler processes an incoming message and optionally replies.
type MessageHandler func(Message) (*Message, error)

// Bridge routes messages between council agents and external peers,
// resolving the best agent for a capability and queuing messages for
// peers without a registered handler yet.
type Bridge struct {
	mu       sync.Mutex
	agents   map[string]CapabilityDescriptor
	handlers map[string]MessageHandler
	pending  []Message
	log      []Message
	logger   *slog.Logger
}

// NewBridge builds an empty Bridge.
func NewBridge(logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		agents:   make(map[string]CapabilityDescriptor),
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterAgent advertises an agent's capabilities for discovery.
func (b *Bridge) RegisterAgent(d CapabilityDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.agents[d.AgentName] = d
	b.logger.Info("registered a2a agent", "agent", d.AgentName, "capabilities", d.Capabilities)
}

// RegisterHandler binds a message handler to an agent name.
func (b *Bridge) RegisterHandler(agentName string, h MessageHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[agentName] = h
}

// DiscoverAgents returns every registered agent, or only those offering
// capability if one is given.
func (b *Bridge) DiscoverAgents(capability Capability) []CapabilityDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []CapabilityDescriptor
	for _, d := range b.agents {
		if capability == "" || hasCapability(d, capability) {
			out = append(out, d)
		}
	}
	return out
}

func hasCapability(d CapabilityDescriptor, c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// RouteToBestAgent picks the highest-priority agent offering capability
// and sends message to it.
func (b *Bridge) RouteToBestAgent(capability Capability, message Message) (*Message, error) {
	candidates := b.DiscoverAgents(capability)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("a2a: no agents found with capability %q", capability)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Priority > candidates[j].Priority })
	message.ToAgent = candidates[0].AgentName
	return b.SendMessage(message)
}

// SendMessage delivers a message to its registered handler, or queues it
// for later processing if none is registered yet.
func (b *Bridge) SendMessage(message Message) (*Message, error) {
	if message.MessageID == "" {
		message.MessageID = ids.NewMessage()
	}

	b.mu.Lock()
	b.log = append(b.log, message)
	handler, ok := b.handlers[message.ToAgent]
	b.mu.Unlock()

	b.logger.Info("a2a message", "from", message.FromAgent, "to", message.ToAgent, "action", message.Action)

	if !ok {
		b.mu.Lock()
		b.pending = append(b.pending, message)
		b.mu.Unlock()
		return nil, nil
	}

	response, err := handler(message)
	if err != nil {
		b.logger.Error("a2a handler error", "agent", message.ToAgent, "error", err)
		return nil, err
	}
	if response != nil {
		b.mu.Lock()
		b.log = append(b.log, *response)
		b.mu.Unlock()
	}
	return response, nil
}

// ProcessPending retries every queued message against the current
// handler set, returning the count successfully delivered.
func (b *Bridge) ProcessPending() int {
	b.mu.Lock()
	toProcess := b.pending
	b.pending = nil
	b.mu.Unlock()

	processed := 0
	var remaining []Message
	for _, m := range toProcess {
		b.mu.Lock()
		handler, ok := b.handlers[m.ToAgent]
		b.mu.Unlock()

		if !ok {
			remaining = append(remaining, m)
			continue
		}
		if _, err := handler(m); err != nil {
			b.logger.Error("a2a deferred handler error", "agent", m.ToAgent, "error", err)
			remaining = append(remaining, m)
			continue
		}
		processed++
	}

	b.mu.Lock()
	b.pending = append(b.pending, remaining...)
	b.mu.Unlock()
	return processed
}

// ToolResponse converts an agent's text response into an MCP-compatible
// tool result.
func ToolResponse(agentResponse, agentName string) map[string]any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": agentResponse},
		},
		"metadata": map[string]any{
			"agent":    agentName,
			"protocol": "a2a",
			"version":  "1.0.0",
		},
	}
}

// WirePeer delivers a standard A2A protocol message to a remote peer,
// such as an a2aproject/a2a-go gRPC or HTTP client.
type WirePeer interface {
	SendMessage(ctx context.Context, msg *a2a.Message) (*a2a.Message, error)
}

// SendToWirePeer converts message to the standard A2A wire format, sends
// it to peer, and converts any reply back into the internal Message
// shape, logging both legs the same way SendMessage does for in-process
// handlers.
func (b *Bridge) SendToWirePeer(ctx context.Context, peer WirePeer, message Message) (*Message, error) {
	if message.MessageID == "" {
		message.MessageID = ids.NewMessage()
	}

	b.mu.Lock()
	b.log = append(b.log, message)
	b.mu.Unlock()

	b.logger.Info("a2a wire message", "from", message.FromAgent, "to", message.ToAgent, "action", message.Action)

	reply, err := peer.SendMessage(ctx, ToWireMessage(message))
	if err != nil {
		b.logger.Error("a2a wire peer error", "to", message.ToAgent, "error", err)
		return nil, fmt.Errorf("a2a: sending to wire peer: %w", err)
	}
	if reply == nil {
		return nil, nil
	}

	response := FromWireMessage(reply, message.ToAgent, message.FromAgent, message.Action)
	response.ReplyTo = message.MessageID
	b.mu.Lock()
	b.log = append(b.log, response)
	b.mu.Unlock()
	return &response, nil
}

// MessageLog returns up to limit of the most recent messages sent.
func (b *Bridge) MessageLog(limit int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if limit <= 0 || limit > len(b.log) {
		limit = len(b.log)
	}
	start := len(b.log) - limit
	out := make([]Message, limit)
	copy(out, b.log[start:])
	return out
}
