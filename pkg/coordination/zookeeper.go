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

	"github.com/go-zookeeper/zk"
)

const (
	zkPendingPath = "/council/queue/pending"
	zkClaimedPath = "/council/queue/claimed"
)

// ZookeeperBackend coordinates work-item claims through ZooKeeper znodes:
// a claim atomically deletes the pending znode and creates the claimed
// one in a single multi-op transaction, so only one worker's claim wins.
type ZookeeperBackend struct {
	conn *zk.Conn
}

// NewZookeeperBackend connects to the given ZooKeeper ensemble and
// ensures the queue's parent znodes exist.
func NewZookeeperBackend(endpoints []string) (*ZookeeperBackend, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("coordination: zookeeper backend requires at least one endpoint")
	}
	conn, _, err := zk.Connect(endpoints, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("coordination: connecting to zookeeper: %w", err)
	}

	b := &ZookeeperBackend{conn: conn}
	for _, path := range []string{"/council", "/council/queue", zkPendingPath, zkClaimedPath} {
		if err := b.ensurePath(path); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *ZookeeperBackend) ensurePath(path string) error {
	exists, _, err := b.conn.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = b.conn.Create(path, nil, 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return err
	}
	return nil
}

func (b *ZookeeperBackend) Enqueue(ctx context.Context, item WorkItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = b.conn.Create(zkPendingPath+"/"+item.ID, data, 0, zk.WorldACL(zk.PermAll))
	if err == zk.ErrNodeExists {
		_, stat, statErr := b.conn.Get(zkPendingPath + "/" + item.ID)
		if statErr != nil {
			return statErr
		}
		_, err = b.conn.Set(zkPendingPath+"/"+item.ID, data, stat.Version)
	}
	return err
}

func (b *ZookeeperBackend) Claim(ctx context.Context, workerID string) (*WorkItem, error) {
	children, _, err := b.conn.Children(zkPendingPath)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}

	name := children[0]
	path := zkPendingPath + "/" + name
	data, stat, err := b.conn.Get(path)
	if err != nil {
		return nil, err
	}

	var item WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("coordination: decoding work item: %w", err)
	}
	item.ClaimedBy = workerID
	item.ClaimedAt = time.Now()
	claimedData, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}

	ops := []interface{}{
		&zk.DeleteRequest{Path: path, Version: stat.Version},
		&zk.CreateRequest{Path: zkClaimedPath + "/" + name, Data: claimedData, Acl: zk.WorldACL(zk.PermAll)},
	}
	if _, err := b.conn.Multi(ops...); err != nil {
		// Lost the race to another worker; caller retries.
		return nil, nil
	}
	return &item, nil
}

func (b *ZookeeperBackend) Complete(ctx context.Context, itemID string) error {
	path := zkClaimedPath + "/" + itemID
	_, stat, err := b.conn.Get(path)
	if err == zk.ErrNoNode {
		return nil
	}
	if err != nil {
		return err
	}
	return b.conn.Delete(path, stat.Version)
}

func (b *ZookeeperBackend) Release(ctx context.Context, itemID string) error {
	path := zkClaimedPath + "/" + itemID
	data, stat, err := b.conn.Get(path)
	if err == zk.ErrNoNode {
		return nil
	}
	if err != nil {
		return err
	}

	var item WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("coordination: decoding claimed work item: %w", err)
	}
	item.ClaimedBy = ""
	releasedData, err := json.Marshal(item)
	if err != nil {
		return err
	}

	ops := []interface{}{
		&zk.DeleteRequest{Path: path, Version: stat.Version},
		&zk.CreateRequest{Path: zkPendingPath + "/" + itemID, Data: releasedData, Acl: zk.WorldACL(zk.PermAll)},
	}
	_, err = b.conn.Multi(ops...)
	return err
}

var _ Backend = (*ZookeeperBackend)(nil)
