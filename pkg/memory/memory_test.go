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
	"strings"
	"testing"

	"github.com/councilrun/council/pkg/config"
	"github.com/councilrun/council/pkg/vector"
	"github.com/stretchr/testify/require"
)

func TestFabricStoreAndSearch(t *testing.T) {
	store := newFakeProvider()
	f := New(store, config.MemoryConfig{AutoPromoteThreshold: 3, DecayFactor: 0.9})

	id, err := f.Store(context.Background(), TierShortTerm, "hello world", []float32{0.1, 0.2}, map[string]any{"foo": "bar"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	results, err := f.Search(context.Background(), TierShortTerm, []float32{0.1, 0.2}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "hello world", results[0].Content)
}

func TestFabricPromote(t *testing.T) {
	store := newFakeProvider()
	f := New(store, config.MemoryConfig{})

	id, err := f.Store(context.Background(), TierShortTerm, "promote me", nil, map[string]any{})
	require.NoError(t, err)

	err = f.Promote(context.Background(), TierShortTerm, TierLongTerm, id, nil, map[string]any{})
	require.NoError(t, err)

	longTerm, err := f.Search(context.Background(), TierLongTerm, nil, 5)
	require.NoError(t, err)
	require.Len(t, longTerm, 1)

	shortTerm, err := f.Search(context.Background(), TierShortTerm, nil, 5)
	require.NoError(t, err)
	require.Empty(t, shortTerm)
}

func TestFuseRRFOrdersByCombinedScore(t *testing.T) {
	vectorHits := []Record{{ID: "a"}, {ID: "b"}}
	keywordHits := []Record{{ID: "b"}, {ID: "a"}}

	fused := FuseRRF(vectorHits, keywordHits, 0.5, 60)
	require.Len(t, fused, 2)
}

func TestHybridSearchFusesKeywordMatches(t *testing.T) {
	store := newFakeProvider()
	f := New(store, config.MemoryConfig{RRFK: 60})

	_, err := f.Store(context.Background(), TierWorking, "the sandbox timed out", nil, map[string]any{})
	require.NoError(t, err)
	_, err = f.Store(context.Background(), TierWorking, "unrelated note", nil, map[string]any{})
	require.NoError(t, err)

	results, err := f.HybridSearch(context.Background(), TierWorking, nil, "sandbox", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := false
	for _, r := range results {
		if strings.Contains(r.Content, "sandbox") {
			found = true
		}
	}
	require.True(t, found)
}

// fakeProvider is an in-memory vector.Provider test double.
type fakeProvider struct {
	docs map[string]map[string]vector.Result
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{docs: make(map[string]map[string]vector.Result)}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Upsert(ctx context.Context, collection, id string, vec []float32, metadata map[string]any) error {
	if f.docs[collection] == nil {
		f.docs[collection] = make(map[string]vector.Result)
	}
	content, _ := metadata["content"].(string)
	f.docs[collection][id] = vector.Result{ID: id, Content: content, Metadata: metadata}
	return nil
}

func (f *fakeProvider) Search(ctx context.Context, collection string, vec []float32, topK int) ([]vector.Result, error) {
	var out []vector.Result
	for _, r := range f.docs[collection] {
		out = append(out, r)
		if len(out) >= topK && topK > 0 {
			break
		}
	}
	return out, nil
}

func (f *fakeProvider) SearchWithFilter(ctx context.Context, collection string, vec []float32, topK int, filter map[string]any) ([]vector.Result, error) {
	return f.Search(ctx, collection, vec, topK)
}

func (f *fakeProvider) Delete(ctx context.Context, collection, id string) error {
	delete(f.docs[collection], id)
	return nil
}

func (f *fakeProvider) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	return nil
}

func (f *fakeProvider) CreateCollection(ctx context.Context, collection string, dim int) error {
	return nil
}

func (f *fakeProvider) DeleteCollection(ctx context.Context, collection string) error {
	delete(f.docs, collection)
	return nil
}

func (f *fakeProvider) Close() error { return nil }

var _ vector.Provider = (*fakeProvider)(nil)
