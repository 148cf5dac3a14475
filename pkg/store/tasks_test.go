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

package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/councilrun/council/pkg/task"
	"github.com/stretchr/testify/require"
)

func newMockTaskStore(t *testing.T) (*TaskStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tasks").WillReturnResult(sqlmock.NewResult(0, 0))
	s := &TaskStore{db: db, dialect: "sqlite"}
	require.NoError(t, s.initSchema(context.Background()))
	return s, mock
}

func TestTaskStoreAddInsertsAndReturnsTask(t *testing.T) {
	s, mock := newMockTaskStore(t)

	mock.ExpectExec("INSERT INTO tasks").
		WithArgs("Plan release", "write the plan", string(task.StatusPending), "[]", "high", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "status", "dependencies", "priority", "result", "created_at", "updated_at"}).
		AddRow(1, "Plan release", "write the plan", string(task.StatusPending), "[]", "high", nil, now, now)
	mock.ExpectQuery("SELECT id, title, description, status, dependencies, priority, result, created_at, updated_at FROM tasks WHERE id =").
		WithArgs(1).
		WillReturnRows(rows)

	got, err := s.Add(context.Background(), "Plan release", "write the plan", "high", nil)
	require.NoError(t, err)
	require.Equal(t, 1, got.ID)
	require.Equal(t, "Plan release", got.Title)
	require.Equal(t, task.StatusPending, got.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStoreReadyFiltersOnCompletedDependencies(t *testing.T) {
	s, mock := newMockTaskStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "status", "dependencies", "priority", "result", "created_at", "updated_at"}).
		AddRow(1, "base", "", string(task.StatusCompleted), "[]", "medium", nil, now, now).
		AddRow(2, "depends on base", "", string(task.StatusPending), "[1]", "medium", nil, now, now).
		AddRow(3, "depends on unfinished", "", string(task.StatusPending), "[2]", "medium", nil, now, now)
	mock.ExpectQuery("SELECT id, title, description, status, dependencies, priority, result, created_at, updated_at FROM tasks ORDER BY id").
		WillReturnRows(rows)

	ready, err := s.Ready(context.Background())
	require.NoError(t, err)
	require.Len(t, ready, 1)
	require.Equal(t, 2, ready[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStoreUpdateStatusNoRowsReturnsError(t *testing.T) {
	s, mock := newMockTaskStore(t)

	mock.ExpectExec("UPDATE tasks SET status").
		WithArgs(string(task.StatusInProgress), sqlmock.AnyArg(), 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.UpdateStatus(context.Background(), 99, task.StatusInProgress, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
