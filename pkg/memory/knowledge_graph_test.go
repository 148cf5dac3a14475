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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKnowledgeGraphAddAndRelate(t *testing.T) {
	kg, err := NewKnowledgeGraph(filepath.Join(t.TempDir(), "kg.json"))
	require.NoError(t, err)

	kg.AddEntity("file_1", EntityFile, "auth.go", map[string]any{"path": "pkg/auth/auth.go"})
	kg.AddEntity("decision_1", EntityDecision, "use JWT auth", nil)

	_, err = kg.AddRelation("decision_1", "file_1", RelationImplements, nil, 0)
	require.NoError(t, err)

	related := kg.Related("file_1", RelationImplements, DirectionBoth)
	require.Len(t, related, 1)
	require.Equal(t, "decision_1", related[0].Entity.ID)
}

func TestKnowledgeGraphRejectsUnknownEntities(t *testing.T) {
	kg, err := NewKnowledgeGraph(filepath.Join(t.TempDir(), "kg.json"))
	require.NoError(t, err)

	_, err = kg.AddRelation("missing_a", "missing_b", RelationRelatedTo, nil, 0)
	require.Error(t, err)
}

func TestKnowledgeGraphSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kg.json")
	kg, err := NewKnowledgeGraph(path)
	require.NoError(t, err)

	kg.AddEntity("task_1", EntityTask, "build memory fabric", nil)
	require.NoError(t, kg.Save())

	kg2, err := NewKnowledgeGraph(path)
	require.NoError(t, err)

	e, ok := kg2.Entity("task_1")
	require.True(t, ok)
	require.Equal(t, "build memory fabric", e.Name)
}
