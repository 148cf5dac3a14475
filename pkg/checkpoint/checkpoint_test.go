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

package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveLoadClear(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Save(&State{WorkflowID: "wf1", RunID: "run1", CurrentNode: "a"}))

	got, err := s.Load("run1")
	require.NoError(t, err)
	require.Equal(t, "a", got.CurrentNode)

	require.NoError(t, s.Clear("run1"))
	_, err = s.Load("run1")
	require.Error(t, err)
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(&State{WorkflowID: "wf1", RunID: "run1", CurrentNode: "a", Data: map[string]any{"x": 1.0}}))
	require.NoError(t, s.Save(&State{WorkflowID: "wf2", RunID: "run2", CurrentNode: "b"}))

	pending, err := s.ListPending("wf1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "run1", pending[0].RunID)

	all, err := s.ListPending("")
	require.NoError(t, err)
	require.Len(t, all, 2)
}
