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

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSemanticCacheExactHit(t *testing.T) {
	c := NewSemanticCache(newFakeProvider(), "test_cache", 0.85, time.Hour, 100)

	err := c.Set(context.Background(), "what is go", "a programming language", nil)
	require.NoError(t, err)

	resp, ok := c.Get(context.Background(), "what is go", nil)
	require.True(t, ok)
	require.Equal(t, "a programming language", resp)
}

func TestSemanticCacheMiss(t *testing.T) {
	c := NewSemanticCache(newFakeProvider(), "test_cache", 0.85, time.Hour, 100)
	_, ok := c.Get(context.Background(), "never cached", nil)
	require.False(t, ok)
}

func TestSemanticCacheStats(t *testing.T) {
	c := NewSemanticCache(newFakeProvider(), "test_cache", 0.85, time.Hour, 100)
	c.Set(context.Background(), "q", "r", nil)
	c.Get(context.Background(), "q", nil)
	c.Get(context.Background(), "missing", nil)

	stats := c.Stats()
	require.Equal(t, 1, stats.Hits)
	require.Equal(t, 1, stats.Misses)
	require.Equal(t, 1, stats.Entries)
}
