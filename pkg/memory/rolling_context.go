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
	"fmt"
	"strings"
	"sync"
)

// RoundEntry is one turn of conversation held in a RollingContext.
type RoundEntry struct {
	Role        string
	Content     string
	TokenCount  int
	RoundNumber int
}

// Summarizer condenses a block of turn text into a shorter summary,
// typically a model call; RollingContext falls back to a cheap
// extractive summary when none is supplied.
type Summarizer func(content string) string

// RollingContext keeps a fixed token budget's worth of recent turns and
// compresses older ones into a running summary. The recent turns stay
// within the token budget; the summary gains one entry per compression.
type RollingContext struct {
	maxTokens             int
	compressionThreshold  float64
	summarizer            Summarizer

	mu            sync.Mutex
	staticContext string
	pastSummary   string
	recent        []RoundEntry
	roundCounter  int
}

// NewRollingContext builds a context bounded at maxTokens, compressing
// once recent-turn load exceeds maxTokens*compressionThreshold.
func NewRollingContext(maxTokens int, compressionThreshold float64, summarizer Summarizer) *RollingContext {
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	if compressionThreshold <= 0 || compressionThreshold > 1 {
		compressionThreshold = 0.7
	}
	return &RollingContext{
		maxTokens:            maxTokens,
		compressionThreshold: compressionThreshold,
		summarizer:           summarizer,
	}
}

// SetStaticContext sets the immutable system prompt / task description
// prefix that every rendered prompt carries.
func (r *RollingContext) SetStaticContext(context string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staticContext = context
}

// AddTurn records a new turn, estimating its token cost, and compresses
// the oldest turns into the summary if the budget threshold is crossed.
func (r *RollingContext) AddTurn(role, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roundCounter++
	entry := RoundEntry{
		Role:        role,
		Content:     content,
		TokenCount:  (len(content) + 3) / 4,
		RoundNumber: r.roundCounter,
	}
	r.recent = append(r.recent, entry)
	r.pruneIfNeeded()
}

func (r *RollingContext) pruneIfNeeded() {
	load := 0
	for _, e := range r.recent {
		load += e.TokenCount
	}
	if float64(load) <= float64(r.maxTokens)*r.compressionThreshold {
		return
	}
	r.compressOldestTurns()
}

// compressOldestTurns moves the first half of recent turns into the
// running summary. Caller holds r.mu.
func (r *RollingContext) compressOldestTurns() {
	if len(r.recent) < 2 {
		return
	}

	cut := len(r.recent) / 2
	toCompress := r.recent[:cut]
	r.recent = r.recent[cut:]

	var summary string
	if r.summarizer != nil {
		var sb strings.Builder
		for _, e := range toCompress {
			sb.WriteString(e.Role)
			sb.WriteString(": ")
			sb.WriteString(e.Content)
			sb.WriteString("\n")
		}
		summary = r.summarizer(sb.String())
	} else {
		summary = defaultSummarize(toCompress)
	}

	if r.pastSummary != "" {
		r.pastSummary += "\n\n" + summary
	} else {
		r.pastSummary = summary
	}
}

func defaultSummarize(entries []RoundEntry) string {
	roundRange := fmt.Sprintf("R%d-R%d", entries[0].RoundNumber, entries[len(entries)-1].RoundNumber)

	seen := map[string]bool{}
	var roles []string
	for _, e := range entries {
		if !seen[e.Role] {
			seen[e.Role] = true
			roles = append(roles, e.Role)
		}
	}

	previewCount := len(entries)
	if previewCount > 3 {
		previewCount = 3
	}
	previews := make([]string, previewCount)
	for i := 0; i < previewCount; i++ {
		c := entries[i].Content
		if len(c) > 50 {
			c = c[:50]
		}
		previews[i] = c
	}

	return fmt.Sprintf("[%s] participants: %s. summary: %s...", roundRange, strings.Join(roles, ", "), strings.Join(previews, "; "))
}

// ContextForPrompt renders the static context, summary, and recent
// turns into a single prompt-ready string.
func (r *RollingContext) ContextForPrompt(includeSummary bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var parts []string
	if r.staticContext != "" {
		parts = append(parts, r.staticContext)
	}
	if includeSummary && r.pastSummary != "" {
		parts = append(parts, "=== PREVIOUSLY ===", r.pastSummary)
	}
	if len(r.recent) > 0 {
		parts = append(parts, "=== CURRENT ===")
		for _, e := range r.recent {
			parts = append(parts, fmt.Sprintf("[R%d] %s: %s", e.RoundNumber, e.Role, e.Content))
		}
	}
	return strings.Join(parts, "\n\n")
}

// RollingContextStats reports current load for observability.
type RollingContextStats struct {
	RecentRounds   int
	RecentTokens   int
	SummaryTokens  int
}

// Stats summarizes current recent/summary token load.
func (r *RollingContext) Stats() RollingContextStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	recentTokens := 0
	for _, e := range r.recent {
		recentTokens += e.TokenCount
	}
	return RollingContextStats{
		RecentRounds:  len(r.recent),
		RecentTokens:  recentTokens,
		SummaryTokens: (len(r.pastSummary) + 3) / 4,
	}
}
