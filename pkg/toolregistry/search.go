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

package toolregistry

import "sort"

// SelfTokenCost is the estimated context cost of the search tool's own
// definition — the only tool cost a turn pays for before any discovery
// has happened.
const SelfTokenCost = 500

// SearchOptions narrows a Search call.
type SearchOptions struct {
	TopK          int
	Category      Category      // zero value means "any category"
	IncludeLoaded bool
}

// Searcher is the single tool a model needs preloaded — every other tool
// is discovered and loaded through it, within a bounded token budget.
type Searcher struct {
	Registry        *Registry
	MaxLoadedTokens int
}

// NewSearcher wraps a registry with a token budget for dynamically
// loaded tools.
func NewSearcher(registry *Registry, maxLoadedTokens int) *Searcher {
	if maxLoadedTokens <= 0 {
		maxLoadedTokens = 5000
	}
	return &Searcher{Registry: registry, MaxLoadedTokens: maxLoadedTokens}
}

type scored struct {
	def   Definition
	score float64
}

// Search ranks registered tools against query and returns the top
// matches above a minimum relevance threshold.
func (s *Searcher) Search(query string, opts SearchOptions) []Definition {
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	var candidates []scored
	for _, d := range s.Registry.snapshot() {
		if opts.Category != "" && d.Category != opts.Category {
			continue
		}
		if !opts.IncludeLoaded && s.Registry.IsLoaded(d.Name) {
			continue
		}
		if score := d.Matches(query); score > 0.1 {
			candidates = append(candidates, scored{d, score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]Definition, len(candidates))
	for i, c := range candidates {
		out[i] = c.def
	}
	return out
}

// SearchAndLoad searches, then loads matches into context up to
// MaxLoadedTokens, stopping before the first tool that would exceed it.
func (s *Searcher) SearchAndLoad(query string, topK int) []Definition {
	if topK <= 0 {
		topK = 3
	}
	matches := s.Search(query, SearchOptions{TopK: topK})

	loaded := make([]Definition, 0, len(matches))
	for _, d := range matches {
		if s.Registry.LoadedTokenCost()+d.TokenCost > s.MaxLoadedTokens {
			break
		}
		if loadedDef, ok := s.Registry.Load(d.Name); ok {
			loaded = append(loaded, loadedDef)
		}
	}
	return loaded
}

// ContextSchema returns the description/schema pair for every tool
// currently loaded, suitable for injection into a model's system prompt.
func (s *Searcher) ContextSchema() map[string]map[string]any {
	schemas := make(map[string]map[string]any)
	for _, d := range s.Registry.snapshot() {
		if !s.Registry.IsLoaded(d.Name) {
			continue
		}
		schemas[d.Name] = map[string]any{
			"description": d.Description,
			"schema":      d.Schema,
		}
	}
	return schemas
}

// Stats reports search/load budget usage.
type Stats struct {
	TotalTools        int
	LoadedTools       int
	LoadedTokenCost   int
	MaxTokenBudget    int
	BudgetUsagePercent float64
}

// Stats summarizes the current registry's load state against budget.
func (s *Searcher) Stats() Stats {
	cost := s.Registry.LoadedTokenCost()
	pct := 0.0
	if s.MaxLoadedTokens > 0 {
		pct = float64(cost) / float64(s.MaxLoadedTokens) * 100
	}
	return Stats{
		TotalTools:         s.Registry.Count(),
		LoadedTools:        s.Registry.LoadedCount(),
		LoadedTokenCost:    cost,
		MaxTokenBudget:     s.MaxLoadedTokens,
		BudgetUsagePercent: pct,
	}
}
