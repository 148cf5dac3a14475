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

// Package coordination provides a distributed task queue for running
// council agents across multiple worker processes. It is the Go-native
// reinterpretation of a Celery-backed task queue: instead of a broker and
// worker pool, each backend claims work items via a distributed lock so
// exactly one worker executes a given task.
package coordination

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// WorkItem is a unit of distributed work: run an agent script against a
// task description.
type WorkItem struct {
	ID         string
	ScriptPath string
	Task       string
	ClaimedBy  string
	ClaimedAt  time.Time
}

// Backend coordinates claims on work items across workers so exactly one
// worker processes each item.
type Backend interface {
	// Enqueue adds a work item to the shared queue.
	Enqueue(ctx context.Context, item WorkItem) error
	// Claim attempts to claim the next unclaimed item for workerID. It
	// returns (nil, nil) if the queue is empty.
	Claim(ctx context.Context, workerID string) (*WorkItem, error)
	// Complete marks an item as done, releasing its claim permanently.
	Complete(ctx context.Context, itemID string) error
	// Release releases a claim without completing the item, so another
	// worker may claim it (e.g. after a worker crash).
	Release(ctx context.Context, itemID string) error
}

// New builds a Backend for the named kind. "none" and "" both return an
// in-process MemoryBackend suitable for single-process runs and tests.
// "etcd", "consul", and "zookeeper" select their respective distributed
// lock implementations, each requiring endpoints.
func New(kind string, endpoints []string) (Backend, error) {
	switch kind {
	case "", "none":
		return NewMemoryBackend(), nil
	case "etcd":
		return NewEtcdBackend(endpoints)
	case "consul":
		return NewConsulBackend(endpoints)
	case "zookeeper":
		return NewZookeeperBackend(endpoints)
	default:
		return nil, fmt.Errorf("coordination: unknown backend %q", kind)
	}
}

// MemoryBackend is an in-process Backend backed by a mutex-guarded queue.
// It implements the same claim/complete/release contract as the
// distributed backends, so single-process deployments and tests don't
// need etcd/consul/zookeeper running.
type MemoryBackend struct {
	mu      sync.Mutex
	pending []WorkItem
	claimed map[string]WorkItem
}

// NewMemoryBackend builds an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{claimed: make(map[string]WorkItem)}
}

func (b *MemoryBackend) Enqueue(ctx context.Context, item WorkItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, item)
	return nil
}

func (b *MemoryBackend) Claim(ctx context.Context, workerID string) (*WorkItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil, nil
	}
	item := b.pending[0]
	b.pending = b.pending[1:]
	item.ClaimedBy = workerID
	item.ClaimedAt = time.Now()
	b.claimed[item.ID] = item
	out := item
	return &out, nil
}

func (b *MemoryBackend) Complete(ctx context.Context, itemID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.claimed, itemID)
	return nil
}

func (b *MemoryBackend) Release(ctx context.Context, itemID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.claimed[itemID]
	if !ok {
		return nil
	}
	delete(b.claimed, itemID)
	item.ClaimedBy = ""
	b.pending = append(b.pending, item)
	return nil
}

var _ Backend = (*MemoryBackend)(nil)
