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

package coordination

import (
	"context"
	"encoding/json"
	"fmt"

	consul "github.com/hashicorp/consul/api"
)

const (
	consulPendingPrefix = "council/queue/pending/"
	consulClaimedPrefix = "council/queue/claimed/"
)

// ConsulBackend coordinates work-item claims through Consul's KV store
// using check-and-set writes, so two workers racing to claim the same
// item never both succeed.
type ConsulBackend struct {
	kv *consul.KV
}

// NewConsulBackend dials the first given endpoint as the Consul HTTP
// address.
func NewConsulBackend(endpoints []string) (*ConsulBackend, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("coordination: consul backend requires at least one endpoint")
	}
	cfg := consul.DefaultConfig()
	cfg.Address = endpoints[0]
	client, err := consul.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("coordination: building consul client: %w", err)
	}
	return &ConsulBackend{kv: client.KV()}, nil
}

func (b *ConsulBackend) Enqueue(ctx context.Context, item WorkItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = b.kv.Put(&consul.KVPair{Key: consulPendingPrefix + item.ID, Value: data}, nil)
	return err
}

func (b *ConsulBackend) Claim(ctx context.Context, workerID string) (*WorkItem, error) {
	pairs, _, err := b.kv.List(consulPendingPrefix, nil)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	pair := pairs[0]
	var item WorkItem
	if err := json.Unmarshal(pair.Value, &item); err != nil {
		return nil, fmt.Errorf("coordination: decoding work item: %w", err)
	}
	item.ClaimedBy = workerID
	claimedData, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}

	ok, _, err := b.kv.CAS(&consul.KVPair{Key: pair.Key, ModifyIndex: pair.ModifyIndex, Value: pair.Value}, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if _, err := b.kv.Delete(pair.Key, nil); err != nil {
		return nil, err
	}
	if _, err := b.kv.Put(&consul.KVPair{Key: consulClaimedPrefix + item.ID, Value: claimedData}, nil); err != nil {
		return nil, err
	}
	return &item, nil
}

func (b *ConsulBackend) Complete(ctx context.Context, itemID string) error {
	_, err := b.kv.Delete(consulClaimedPrefix+itemID, nil)
	return err
}

func (b *ConsulBackend) Release(ctx context.Context, itemID string) error {
	pair, _, err := b.kv.Get(consulClaimedPrefix+itemID, nil)
	if err != nil {
		return err
	}
	if pair == nil {
		return nil
	}

	var item WorkItem
	if err := json.Unmarshal(pair.Value, &item); err != nil {
		return fmt.Errorf("coordination: decoding claimed work item: %w", err)
	}
	item.ClaimedBy = ""

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	if _, err := b.kv.Delete(consulClaimedPrefix+itemID, nil); err != nil {
		return err
	}
	_, err = b.kv.Put(&consul.KVPair{Key: consulPendingPrefix + itemID, Value: data}, nil)
	return err
}

var _ Backend = (*ConsulBackend)(nil)
