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
	"fmt"

	"github.com/a2aproject/a2a-go/a2a"
)

// ToWireMessage renders an internal Message as a standard A2A protocol
// message, for handing off to an actual a2a-go transport (gRPC/HTTP)
// instead of an in-process handler.
func ToWireMessage(m Message) *a2a.Message {
	payloadText := fmt.Sprintf("%v", m.Payload)
	return a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: payloadText})
}

// FromWireMessage converts an inbound a2a-go protocol message from a
// remote peer back into this package's internal Message, tagging it with
// the local fromAgent/toAgent pair since the wire message does not carry
// council agent names.
func FromWireMessage(msg *a2a.Message, fromAgent, toAgent, action string) Message {
	var text string
	for _, part := range msg.Parts {
		if tp, ok := part.(a2a.TextPart); ok {
			text += tp.Text
		}
	}
	return Message{
		FromAgent: fromAgent,
		ToAgent:   toAgent,
		Action:    action,
		Payload:   map[string]any{"text": text},
	}
}
