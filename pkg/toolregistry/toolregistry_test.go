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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesExactName(t *testing.T) {
	d := Definition{Name: "read_file", Description: "Read file contents"}
	require.Equal(t, 1.0, d.Matches("please read_file now"))
}

func TestMatchesKeyword(t *testing.T) {
	d := Definition{Name: "read_file", Description: "Read file contents", Keywords: []string{"cat", "view"}}
	score := d.Matches("can you cat this please")
	require.Greater(t, score, 0.0)
	require.LessOrEqual(t, score, 0.8)
}

func TestRegistryLoadUnload(t *testing.T) {
	r := New()
	r.Register(Definition{Name: "grep_search", TokenCost: 120})

	require.False(t, r.IsLoaded("grep_search"))
	_, ok := r.Load("grep_search")
	require.True(t, ok)
	require.True(t, r.IsLoaded("grep_search"))
	require.Equal(t, 120, r.LoadedTokenCost())

	require.True(t, r.Unload("grep_search"))
	require.False(t, r.IsLoaded("grep_search"))
}

func TestSearcherSearchAndLoadRespectsBudget(t *testing.T) {
	r := NewDefaultRegistry()
	s := NewSearcher(r, 150)

	loaded := s.SearchAndLoad("read a file", 5)
	require.NotEmpty(t, loaded)
	require.LessOrEqual(t, r.LoadedTokenCost(), 150)
}

func TestSearcherStats(t *testing.T) {
	r := NewDefaultRegistry()
	s := NewSearcher(r, 5000)
	s.SearchAndLoad("git commit changes", 2)

	stats := s.Stats()
	require.Equal(t, r.Count(), stats.TotalTools)
	require.Greater(t, stats.LoadedTools, 0)
}
