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

// Package ids generates identifiers for runtime entities (tasks, checkpoints,
// sessions, votes).
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a fresh random identifier with the given prefix, e.g. "task_<uuid>".
func New(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

// NewTask returns a new task id.
func NewTask() string { return New("task") }

// NewCheckpoint returns a new checkpoint id.
func NewCheckpoint() string { return New("ckpt") }

// NewSession returns a new session id.
func NewSession() string { return New("sess") }

// NewVote returns a new vote id.
func NewVote() string { return New("vote") }

// NewMessage returns a new A2A message id.
func NewMessage() string { return New("msg") }
