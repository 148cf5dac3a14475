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

package a2a

import (
	"context"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/require"
)

type fakeWirePeer struct {
	reply *a2a.Message
	err   error
	sent  *a2a.Message
}

func (p *fakeWirePeer) SendMessage(ctx context.Context, msg *a2a.Message) (*a2a.Message, error) {
	p.sent = msg
	return p.reply, p.err
}

func TestDiscoverAgentsFiltersByCapability(t *testing.T) {
	b := NewBridge(nil)
	b.RegisterAgent(CapabilityDescriptor{AgentName: "reviewer", Capabilities: []Capability{CapabilityReview}})
	b.RegisterAgent(CapabilityDescriptor{AgentName: "coder", Capabilities: []Capability{CapabilityCode}})

	found := b.DiscoverAgents(CapabilityReview)
	require.Len(t, found, 1)
	require.Equal(t, "reviewer", found[0].AgentName)
}

func TestSendMessageQueuesWithoutHandler(t *testing.T) {
	b := NewBridge(nil)
	resp, err := b.SendMessage(Message{FromAgent: "a", ToAgent: "b", Action: "ping"})
	require.NoError(t, err)
	require.Nil(t, resp)
	require.Equal(t, 0, b.ProcessPending())
}

func TestProcessPendingDeliversOnceHandlerRegistered(t *testing.T) {
	b := NewBridge(nil)
	_, err := b.SendMessage(Message{FromAgent: "a", ToAgent: "b", Action: "ping"})
	require.NoError(t, err)

	delivered := false
	b.RegisterHandler("b", func(m Message) (*Message, error) {
		delivered = true
		return nil, nil
	})

	processed := b.ProcessPending()
	require.Equal(t, 1, processed)
	require.True(t, delivered)
}

func TestRouteToBestAgentPicksHighestPriority(t *testing.T) {
	b := NewBridge(nil)
	b.RegisterAgent(CapabilityDescriptor{AgentName: "low", Capabilities: []Capability{CapabilityReview}, Priority: 1})
	b.RegisterAgent(CapabilityDescriptor{AgentName: "high", Capabilities: []Capability{CapabilityReview}, Priority: 10})

	var routedTo string
	b.RegisterHandler("high", func(m Message) (*Message, error) {
		routedTo = m.ToAgent
		return nil, nil
	})
	b.RegisterHandler("low", func(m Message) (*Message, error) {
		routedTo = m.ToAgent
		return nil, nil
	})

	_, err := b.RouteToBestAgent(CapabilityReview, Message{FromAgent: "caller", Action: "review"})
	require.NoError(t, err)
	require.Equal(t, "high", routedTo)
}

func TestRouteToBestAgentErrorsWithNoCandidates(t *testing.T) {
	b := NewBridge(nil)
	_, err := b.RouteToBestAgent(CapabilityReview, Message{FromAgent: "caller"})
	require.Error(t, err)
}

func TestSendToWirePeerConvertsRequestAndReply(t *testing.T) {
	b := NewBridge(nil)
	peer := &fakeWirePeer{
		reply: a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: "ack"}),
	}

	resp, err := b.SendToWirePeer(context.Background(), peer, Message{
		FromAgent: "council",
		ToAgent:   "external-peer",
		Action:    "handoff",
		Payload:   map[string]any{"text": "please review PR 42"},
	})

	require.NoError(t, err)
	require.NotNil(t, peer.sent)
	require.Equal(t, a2a.MessageRoleAgent, peer.sent.Role)
	require.NotNil(t, resp)
	require.Equal(t, "ack", resp.Payload["text"])
	require.Equal(t, "external-peer", resp.FromAgent)
	require.Equal(t, "council", resp.ToAgent)
}

func TestSendToWirePeerPropagatesError(t *testing.T) {
	b := NewBridge(nil)
	peer := &fakeWirePeer{err: context.DeadlineExceeded}

	_, err := b.SendToWirePeer(context.Background(), peer, Message{FromAgent: "council", ToAgent: "external-peer"})
	require.Error(t, err)
}

func TestMessageLogTracksSentMessages(t *testing.T) {
	b := NewBridge(nil)
	b.SendMessage(Message{FromAgent: "a", ToAgent: "b", Action: "ping"})
	b.SendMessage(Message{FromAgent: "a", ToAgent: "c", Action: "pong"})

	log := b.MessageLog(1)
	require.Len(t, log, 1)
	require.Equal(t, "pong", log[0].Action)
}
