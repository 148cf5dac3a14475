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
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	etcdPendingPrefix = "/council/queue/pending/"
	etcdClaimedPrefix = "/council/queue/claimed/"
	etcdClaimLeaseTTL = 300 // seconds; a crashed worker's claim expires and returns to the pool
)

// EtcdBackend coordinates work-item claims through etcd's key-value
// store: pending items are plain keys, a claim is a lease-backed key so a
// crashed worker's claim expires automatically.
type EtcdBackend struct {
	client *clientv3.Client
}

// NewEtcdBackend dials the given etcd endpoints.
func NewEtcdBackend(endpoints []string) (*EtcdBackend, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("coordination: etcd backend requires at least one endpoint")
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("coordination: dialing etcd: %w", err)
	}
	return &EtcdBackend{client: client}, nil
}

func (b *EtcdBackend) Enqueue(ctx context.Context, item WorkItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = b.client.Put(ctx, etcdPendingPrefix+item.ID, string(data))
	return err
}

func (b *EtcdBackend) Claim(ctx context.Context, workerID string) (*WorkItem, error) {
	resp, err := b.client.Get(ctx, etcdPendingPrefix, clientv3.WithPrefix(), clientv3.WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, nil
	}

	kv := resp.Kvs[0]
	var item WorkItem
	if err := json.Unmarshal(kv.Value, &item); err != nil {
		return nil, fmt.Errorf("coordination: decoding work item: %w", err)
	}
	item.ClaimedBy = workerID
	item.ClaimedAt = time.Now()
	claimedData, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}

	lease, err := b.client.Grant(ctx, etcdClaimLeaseTTL)
	if err != nil {
		return nil, err
	}

	txn := b.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(string(kv.Key)), "=", kv.ModRevision)).
		Then(
			clientv3.OpDelete(string(kv.Key)),
			clientv3.OpPut(etcdClaimedPrefix+item.ID, string(claimedData), clientv3.WithLease(lease.ID)),
		)
	txnResp, err := txn.Commit()
	if err != nil {
		return nil, err
	}
	if !txnResp.Succeeded {
		// Another worker claimed it first; caller retries.
		return nil, nil
	}
	return &item, nil
}

func (b *EtcdBackend) Complete(ctx context.Context, itemID string) error {
	_, err := b.client.Delete(ctx, etcdClaimedPrefix+itemID)
	return err
}

func (b *EtcdBackend) Release(ctx context.Context, itemID string) error {
	resp, err := b.client.Get(ctx, etcdClaimedPrefix+itemID)
	if err != nil {
		return err
	}
	if len(resp.Kvs) == 0 {
		return nil
	}

	var item WorkItem
	if err := json.Unmarshal(resp.Kvs[0].Value, &item); err != nil {
		return fmt.Errorf("coordination: decoding claimed work item: %w", err)
	}
	item.ClaimedBy = ""

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	txn := b.client.Txn(ctx).Then(
		clientv3.OpDelete(etcdClaimedPrefix+itemID),
		clientv3.OpPut(etcdPendingPrefix+itemID, string(data)),
	)
	_, err = txn.Commit()
	return err
}

var _ Backend = (*EtcdBackend)(nil)
