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
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/councilrun/council/pkg/checkpoint"
	"github.com/stretchr/testify/require"
)

func newMockCheckpointStore(t *testing.T) (*CheckpointStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS checkpoints").WillReturnResult(sqlmock.NewResult(0, 0))
	s := &CheckpointStore{db: db, dialect: "sqlite"}
	_, err = s.db.ExecContext(context.Background(), createCheckpointsTableSQL)
	require.NoError(t, err)
	return s, mock
}

func TestCheckpointStoreSaveInsertsWhenAbsent(t *testing.T) {
	s, mock := newMockCheckpointStore(t)

	mock.ExpectQuery("SELECT state_json FROM checkpoints WHERE run_id").
		WithArgs("run-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO checkpoints").
		WithArgs("run-1", "wf-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	state := &checkpoint.State{WorkflowID: "wf-1", RunID: "run-1", CreatedAt: time.Now()}
	require.NoError(t, s.Save(state))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckpointStoreSaveUpdatesWhenPresent(t *testing.T) {
	s, mock := newMockCheckpointStore(t)

	existing := &checkpoint.State{WorkflowID: "wf-1", RunID: "run-1", CreatedAt: time.Now()}
	existingJSON, err := existing.Serialize()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT state_json FROM checkpoints WHERE run_id").
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"state_json"}).AddRow(string(existingJSON)))
	mock.ExpectExec("UPDATE checkpoints SET").
		WithArgs("wf-1", sqlmock.AnyArg(), sqlmock.AnyArg(), "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Save(existing))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckpointStoreLoadReturnsErrorWhenMissing(t *testing.T) {
	s, mock := newMockCheckpointStore(t)

	mock.ExpectQuery("SELECT state_json FROM checkpoints WHERE run_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Load("missing")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckpointStoreListPendingFiltersByWorkflow(t *testing.T) {
	s, mock := newMockCheckpointStore(t)

	state := &checkpoint.State{WorkflowID: "wf-1", RunID: "run-1", CreatedAt: time.Now()}
	stateJSON, err := state.Serialize()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT state_json FROM checkpoints WHERE workflow_id").
		WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows([]string{"state_json"}).AddRow(string(stateJSON)))

	states, err := s.ListPending("wf-1")
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.Equal(t, "run-1", states[0].RunID)
	require.NoError(t, mock.ExpectationsWereMet())
}
