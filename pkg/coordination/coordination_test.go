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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBackendClaimIsExclusive(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Enqueue(ctx, WorkItem{ID: "item-1", Task: "do it"}))

	first, err := b.Claim(ctx, "worker-a")
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, "worker-a", first.ClaimedBy)

	second, err := b.Claim(ctx, "worker-b")
	require.NoError(t, err)
	require.Nil(t, second)
}

func TestMemoryBackendCompleteRemovesClaim(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	b.Enqueue(ctx, WorkItem{ID: "item-1"})
	item, _ := b.Claim(ctx, "worker-a")
	require.NoError(t, b.Complete(ctx, item.ID))
	require.Empty(t, b.claimed)
}

func TestMemoryBackendReleaseReturnsToPending(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	b.Enqueue(ctx, WorkItem{ID: "item-1"})
	item, _ := b.Claim(ctx, "worker-a")
	require.NoError(t, b.Release(ctx, item.ID))

	reclaimed, err := b.Claim(ctx, "worker-b")
	require.NoError(t, err)
	require.NotNil(t, reclaimed)
	require.Equal(t, "worker-b", reclaimed.ClaimedBy)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New("bogus", nil)
	require.Error(t, err)
}

func TestNewDefaultsToMemoryBackend(t *testing.T) {
	backend, err := New("", nil)
	require.NoError(t, err)
	require.IsType(t, &MemoryBackend{}, backend)
}
