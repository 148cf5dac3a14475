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

package task

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndPersistAcrossReload(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, "")
	require.NoError(t, err)

	t1, err := m.Add("write docs", "document the API", "", nil)
	require.NoError(t, err)
	require.Equal(t, 1, t1.ID)

	reloaded, err := NewManager(dir, "")
	require.NoError(t, err)
	require.Len(t, reloaded.List(""), 1)
	require.Equal(t, "write docs", reloaded.List("")[0].Title)
}

func TestUpdateStatusRecordsResult(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, "")
	require.NoError(t, err)
	task, _ := m.Add("a", "b", "", nil)

	updated, err := m.UpdateStatus(task.ID, StatusCompleted, map[string]any{"ok": true})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, updated.Status)
	require.Equal(t, true, updated.Result["ok"])
}

func TestReadyRespectsDependencies(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, "")
	require.NoError(t, err)

	a, _ := m.Add("a", "", "", nil)
	b, _ := m.Add("b", "", "", []int{a.ID})

	require.Len(t, m.Ready(), 1)
	require.Equal(t, a.ID, m.Ready()[0].ID)

	_, err = m.UpdateStatus(a.ID, StatusCompleted, nil)
	require.NoError(t, err)

	ready := m.Ready()
	require.Len(t, ready, 1)
	require.Equal(t, b.ID, ready[0].ID)
}

func TestUpdateStatusUnknownIDErrors(t *testing.T) {
	m, err := NewManager(t.TempDir(), "")
	require.NoError(t, err)
	_, err = m.UpdateStatus(999, StatusCompleted, nil)
	require.Error(t, err)
}
