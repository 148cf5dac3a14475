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
	"fmt"

	"github.com/councilrun/council/pkg/checkpoint"
	"github.com/councilrun/council/pkg/config"
)

const createCheckpointsTableSQL = `
CREATE TABLE IF NOT EXISTS checkpoints (
    run_id VARCHAR(255) PRIMARY KEY,
    workflow_id VARCHAR(255) NOT NULL,
    state_json TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_workflow_id ON checkpoints(workflow_id);
`

// CheckpointStore is a SQL-backed checkpoint.Store, used in place of
// checkpoint.FileStore when a council deployment configures
// config.Config.Store, so checkpoint state lives alongside the SQL task
// store rather than as loose JSON files on local disk.
type CheckpointStore struct {
	db      *sql.DB
	dialect string
}

// NewCheckpointStore opens (and schema-initializes) a CheckpointStore
// over pool's connection for cfg.
func NewCheckpointStore(ctx context.Context, pool *DBPool, cfg *config.DatabaseConfig) (*CheckpointStore, error) {
	db, err := pool.Get(cfg)
	if err != nil {
		return nil, err
	}
	s := &CheckpointStore{db: db, dialect: cfg.Dialect()}
	if _, err := s.db.ExecContext(ctx, createCheckpointsTableSQL); err != nil {
		return nil, fmt.Errorf("store: creating checkpoints schema: %w", err)
	}
	return s, nil
}

func (s *CheckpointStore) placeholder(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Save persists state, replacing any existing checkpoint for the same run.
func (s *CheckpointStore) Save(state *checkpoint.State) error {
	if state.RunID == "" {
		return fmt.Errorf("store: checkpoint run_id is required")
	}
	data, err := state.Serialize()
	if err != nil {
		return fmt.Errorf("store: serializing checkpoint: %w", err)
	}

	ctx := context.Background()
	if _, err := s.Load(state.RunID); err == nil {
		query := fmt.Sprintf("UPDATE checkpoints SET workflow_id = %s, state_json = %s, created_at = %s WHERE run_id = %s",
			s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))
		_, err := s.db.ExecContext(ctx, query, state.WorkflowID, string(data), state.CreatedAt.UTC(), state.RunID)
		if err != nil {
			return fmt.Errorf("store: updating checkpoint %s: %w", state.RunID, err)
		}
		return nil
	}

	query := fmt.Sprintf("INSERT INTO checkpoints (run_id, workflow_id, state_json, created_at) VALUES (%s, %s, %s, %s)",
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))
	_, err = s.db.ExecContext(ctx, query, state.RunID, state.WorkflowID, string(data), state.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("store: inserting checkpoint %s: %w", state.RunID, err)
	}
	return nil
}

// Load returns the checkpoint state for runID.
func (s *CheckpointStore) Load(runID string) (*checkpoint.State, error) {
	query := fmt.Sprintf("SELECT state_json FROM checkpoints WHERE run_id = %s", s.placeholder(1))
	var stateJSON string
	err := s.db.QueryRowContext(context.Background(), query, runID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: no checkpoint found for run %q", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: querying checkpoint %s: %w", runID, err)
	}
	return checkpoint.Deserialize([]byte(stateJSON))
}

// Clear removes the checkpoint for runID.
func (s *CheckpointStore) Clear(runID string) error {
	query := fmt.Sprintf("DELETE FROM checkpoints WHERE run_id = %s", s.placeholder(1))
	_, err := s.db.ExecContext(context.Background(), query, runID)
	if err != nil {
		return fmt.Errorf("store: clearing checkpoint %s: %w", runID, err)
	}
	return nil
}

// ListPending returns every stored checkpoint, optionally filtered by
// workflow id.
func (s *CheckpointStore) ListPending(workflowID string) ([]*checkpoint.State, error) {
	query := "SELECT state_json FROM checkpoints"
	var args []any
	if workflowID != "" {
		query += fmt.Sprintf(" WHERE workflow_id = %s", s.placeholder(1))
		args = append(args, workflowID)
	}

	rows, err := s.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: listing checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*checkpoint.State
	for rows.Next() {
		var stateJSON string
		if err := rows.Scan(&stateJSON); err != nil {
			return nil, fmt.Errorf("store: scanning checkpoint row: %w", err)
		}
		state, err := checkpoint.Deserialize([]byte(stateJSON))
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	return out, rows.Err()
}

var _ checkpoint.Store = (*CheckpointStore)(nil)
