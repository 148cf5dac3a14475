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

// Package memory implements the council's tiered memory fabric: a
// working/short-term/long-term vector store with access-driven
// auto-promotion and decay, a hybrid (vector + keyword) retrieval fusion,
// a semantic response cache, a lightweight knowledge graph, and a rolling
// token-budgeted conversation context.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/councilrun/council/pkg/config"
	"github.com/councilrun/council/pkg/vector"
	"github.com/google/uuid"
)

// Tier names the layer a memory record lives in.
type Tier string

const (
	TierWorking   Tier = "working"
	TierShortTerm Tier = "short_term"
	TierLongTerm  Tier = "long_term"
)

// Record is one stored memory.
type Record struct {
	ID          string
	Tier        Tier
	Content     string
	Metadata    map[string]any
	AccessCount int
	CreatedAt   time.Time
}

// Fabric is the tiered memory store: embeddings live in a shared
// vector.Provider, one collection per tier, with access-count driven
// promotion from short-term into long-term.
type Fabric struct {
	store   vector.Provider
	cfg     config.MemoryConfig
	collFor map[Tier]string
}

// New builds a Fabric backed by store, with one vector collection per
// tier derived from the fixed base name "council_memory".
func New(store vector.Provider, cfg config.MemoryConfig) *Fabric {
	base := "council_memory"
	return &Fabric{
		store: store,
		cfg:   cfg,
		collFor: map[Tier]string{
			TierWorking:   base + "_working",
			TierShortTerm: base + "_short_term",
			TierLongTerm:  base + "_long_term",
		},
	}
}

// Store embeds and persists content into the given tier, returning the
// generated record ID.
func (f *Fabric) Store(ctx context.Context, tier Tier, content string, embedding []float32, metadata map[string]any) (string, error) {
	coll, ok := f.collFor[tier]
	if !ok {
		return "", fmt.Errorf("invalid tier: %s", tier)
	}

	id := uuid.NewString()
	meta := cloneMeta(metadata)
	meta["content"] = content
	meta["tier"] = string(tier)
	meta["access_count"] = 0
	meta["created_at"] = time.Now().UTC().Format(time.RFC3339)

	if err := f.store.Upsert(ctx, coll, id, embedding, meta); err != nil {
		return "", fmt.Errorf("store to %s: %w", tier, err)
	}
	return id, nil
}

// Search performs a plain vector similarity search within one tier.
func (f *Fabric) Search(ctx context.Context, tier Tier, queryEmbedding []float32, limit int) ([]Record, error) {
	coll, ok := f.collFor[tier]
	if !ok {
		return nil, fmt.Errorf("invalid tier: %s", tier)
	}
	results, err := f.store.Search(ctx, coll, queryEmbedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", tier, err)
	}
	return toRecords(tier, results), nil
}

// HybridSearch blends vector similarity with a keyword match over the
// same tier, fused by FuseRRF using the fabric's configured RRF
// constant. keyword is matched case-sensitively against each record's
// content; pass "" to skip the keyword leg entirely.
func (f *Fabric) HybridSearch(ctx context.Context, tier Tier, queryEmbedding []float32, keyword string, limit int) ([]Record, error) {
	vectorHits, err := f.Search(ctx, tier, queryEmbedding, limit)
	if err != nil {
		return nil, err
	}
	if keyword == "" {
		return vectorHits, nil
	}

	candidates, err := f.Search(ctx, tier, queryEmbedding, limit*4)
	if err != nil {
		return nil, err
	}
	var keywordHits []Record
	for _, r := range candidates {
		if strings.Contains(r.Content, keyword) {
			keywordHits = append(keywordHits, r)
		}
	}

	k := f.cfg.RRFK
	if k == 0 {
		k = 60
	}
	fusedHits := FuseRRF(vectorHits, keywordHits, 0.5, k)
	if len(fusedHits) > limit {
		fusedHits = fusedHits[:limit]
	}
	return fusedHits, nil
}

// Promote moves a record from one tier to another, tagging it with
// where it came from.
func (f *Fabric) Promote(ctx context.Context, from, to Tier, id string, embedding []float32, metadata map[string]any) error {
	fromColl, ok := f.collFor[from]
	if !ok {
		return fmt.Errorf("invalid tier: %s", from)
	}
	toColl, ok := f.collFor[to]
	if !ok {
		return fmt.Errorf("invalid tier: %s", to)
	}

	meta := cloneMeta(metadata)
	meta["promoted_from"] = string(from)
	meta["tier"] = string(to)

	if err := f.store.Upsert(ctx, toColl, id, embedding, meta); err != nil {
		return fmt.Errorf("promote upsert: %w", err)
	}
	if err := f.store.Delete(ctx, fromColl, id); err != nil {
		return fmt.Errorf("promote delete from source: %w", err)
	}
	return nil
}

// IncrementAccess bumps a short-term record's access count, re-upserting
// it since the underlying store only supports upsert-by-ID, not partial
// metadata updates.
func (f *Fabric) IncrementAccess(ctx context.Context, tier Tier, id string, embedding []float32, content string, metadata map[string]any) (int, error) {
	coll, ok := f.collFor[tier]
	if !ok {
		return 0, fmt.Errorf("invalid tier: %s", tier)
	}

	count, _ := metadata["access_count"].(int)
	count++
	meta := cloneMeta(metadata)
	meta["access_count"] = count
	meta["content"] = content
	meta["tier"] = string(tier)

	if err := f.store.Upsert(ctx, coll, id, embedding, meta); err != nil {
		return 0, fmt.Errorf("increment access: %w", err)
	}
	return count, nil
}

// AutoPromote scans short-term memory and promotes every record whose
// access count has crossed AutoPromoteThreshold into long-term.
func (f *Fabric) AutoPromote(ctx context.Context, embeddingOf func(content string) []float32) (int, error) {
	coll := f.collFor[TierShortTerm]
	results, err := f.store.Search(ctx, coll, nil, 10000)
	if err != nil {
		return 0, fmt.Errorf("scan short-term: %w", err)
	}

	promoted := 0
	threshold := f.cfg.AutoPromoteThreshold
	if threshold <= 0 {
		threshold = 3
	}

	for _, r := range results {
		count, _ := r.Metadata["access_count"].(int)
		if count < threshold {
			continue
		}
		var embedding []float32
		if embeddingOf != nil {
			embedding = embeddingOf(r.Content)
		}
		if err := f.Promote(ctx, TierShortTerm, TierLongTerm, r.ID, embedding, r.Metadata); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

// Decay applies DecayFactor to every short-term record's access count,
// causing long-idle memories to fade rather than linger forever.
func (f *Fabric) Decay(ctx context.Context) error {
	coll := f.collFor[TierShortTerm]
	results, err := f.store.Search(ctx, coll, nil, 10000)
	if err != nil {
		return fmt.Errorf("scan for decay: %w", err)
	}

	factor := f.cfg.DecayFactor
	if factor <= 0 || factor >= 1 {
		factor = 0.9
	}

	for _, r := range results {
		var count float64
		switch v := r.Metadata["access_count"].(type) {
		case int:
			count = float64(v)
		case int64:
			count = float64(v)
		case float64:
			count = v
		}
		newCount := int(count * factor)
		meta := cloneMeta(r.Metadata)
		meta["access_count"] = newCount
		meta["content"] = r.Content
		if err := f.store.Upsert(ctx, coll, r.ID, nil, meta); err != nil {
			return fmt.Errorf("decay upsert %s: %w", r.ID, err)
		}
	}
	return nil
}

func toRecords(tier Tier, results []vector.Result) []Record {
	out := make([]Record, len(results))
	for i, r := range results {
		out[i] = Record{ID: r.ID, Tier: tier, Content: r.Content, Metadata: r.Metadata}
	}
	return out
}

func cloneMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// fused ranks a scored record for RRF output.
type fused struct {
	record Record
	score  float64
}

// FuseRRF combines vector and keyword result sets with Reciprocal Rank
// Fusion: score = alpha/(k+rank+1) for vector hits plus
// (1-alpha)/(k+rank+1) for keyword hits, summed by record ID. k is the
// standard RRF smoothing constant (config.MemoryConfig.RRFK, typically 60).
func FuseRRF(vectorResults, keywordResults []Record, alpha float64, k int) []Record {
	scores := make(map[string]*fused, len(vectorResults)+len(keywordResults))

	for rank, r := range vectorResults {
		s := scores[r.ID]
		if s == nil {
			s = &fused{record: r}
			scores[r.ID] = s
		}
		s.score += alpha / float64(k+rank+1)
	}
	for rank, r := range keywordResults {
		s := scores[r.ID]
		if s == nil {
			s = &fused{record: r}
			scores[r.ID] = s
		}
		s.score += (1 - alpha) / float64(k+rank+1)
	}

	out := make([]fused, 0, len(scores))
	for _, s := range scores {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })

	records := make([]Record, len(out))
	for i, f := range out {
		records[i] = f.record
	}
	return records
}
