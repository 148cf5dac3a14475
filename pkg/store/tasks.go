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
	"encoding/json"
	"fmt"
	"time"

	"github.com/councilrun/council/pkg/config"
	"github.com/councilrun/council/pkg/task"
)

const createTasksTableSQL = `
CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    status VARCHAR(32) NOT NULL,
    dependencies TEXT,
    priority VARCHAR(32),
    result TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

// taskRow is the on-disk shape of a task.Task: dependencies and result
// are stored as JSON text so the same schema works across postgres,
// mysql, and sqlite without a native array or JSON column type.
type taskRow struct {
	ID           int
	Title        string
	Description  string
	Status       string
	Dependencies string
	Priority     string
	Result       sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskStore is a SQL-backed alternative to task.Manager's JSON file
// persistence, with the same surface (Add/Get/List/Ready/UpdateStatus).
// cmd/council does not use it: its task list always uses task.Manager.
type TaskStore struct {
	db      *sql.DB
	dialect string
}

// NewTaskStore opens (and schema-initializes) a TaskStore over pool's
// connection for cfg.
func NewTaskStore(ctx context.Context, pool *DBPool, cfg *config.DatabaseConfig) (*TaskStore, error) {
	db, err := pool.Get(cfg)
	if err != nil {
		return nil, err
	}
	s := &TaskStore{db: db, dialect: cfg.Dialect()}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TaskStore) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTasksTableSQL); err != nil {
		return fmt.Errorf("store: creating tasks schema: %w", err)
	}
	return nil
}

// placeholder returns the n-th (1-indexed) bind parameter marker for the
// store's dialect: postgres uses $1, $2, ...; mysql and sqlite use ?.
func (s *TaskStore) placeholder(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Add creates and persists a new task, assigning it the next id via the
// database's auto-increment/rowid behavior.
func (s *TaskStore) Add(ctx context.Context, title, description, priority string, dependencies []int) (*task.Task, error) {
	if priority == "" {
		priority = "medium"
	}
	if dependencies == nil {
		dependencies = []int{}
	}
	depsJSON, err := json.Marshal(dependencies)
	if err != nil {
		return nil, fmt.Errorf("store: encoding dependencies: %w", err)
	}
	now := time.Now().UTC()

	query := fmt.Sprintf(
		"INSERT INTO tasks (title, description, status, dependencies, priority, created_at, updated_at) VALUES (%s, %s, %s, %s, %s, %s, %s)",
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5), s.placeholder(6), s.placeholder(7),
	)

	if s.dialect == "postgres" {
		query += " RETURNING id"
		var id int
		err := s.db.QueryRowContext(ctx, query, title, description, string(task.StatusPending), string(depsJSON), priority, now, now).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("store: inserting task: %w", err)
		}
		return s.Get(ctx, id)
	}

	res, err := s.db.ExecContext(ctx, query, title, description, string(task.StatusPending), string(depsJSON), priority, now, now)
	if err != nil {
		return nil, fmt.Errorf("store: inserting task: %w", err)
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: reading inserted id: %w", err)
	}
	return s.Get(ctx, int(id64))
}

// Get returns the task with the given id, or an error if none exists.
func (s *TaskStore) Get(ctx context.Context, id int) (*task.Task, error) {
	query := fmt.Sprintf(
		"SELECT id, title, description, status, dependencies, priority, result, created_at, updated_at FROM tasks WHERE id = %s",
		s.placeholder(1),
	)
	var row taskRow
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&row.ID, &row.Title, &row.Description, &row.Status,
		&row.Dependencies, &row.Priority, &row.Result,
		&row.CreatedAt, &row.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: no task with id %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: querying task %d: %w", id, err)
	}
	return rowToTask(&row)
}

// UpdateStatus transitions a task's status and optionally records a result.
func (s *TaskStore) UpdateStatus(ctx context.Context, id int, status task.Status, result map[string]any) (*task.Task, error) {
	now := time.Now().UTC()
	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("store: encoding result: %w", err)
		}
	}

	var query string
	var args []any
	if result != nil {
		query = fmt.Sprintf("UPDATE tasks SET status = %s, result = %s, updated_at = %s WHERE id = %s",
			s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))
		args = []any{string(status), string(resultJSON), now, id}
	} else {
		query = fmt.Sprintf("UPDATE tasks SET status = %s, updated_at = %s WHERE id = %s",
			s.placeholder(1), s.placeholder(2), s.placeholder(3))
		args = []any{string(status), now, id}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: updating task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("store: checking update result for task %d: %w", id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("store: no task with id %d", id)
	}
	return s.Get(ctx, id)
}

// List returns tasks, optionally filtered by status. An empty status
// returns every task, ordered by id.
func (s *TaskStore) List(ctx context.Context, status task.Status) ([]*task.Task, error) {
	query := "SELECT id, title, description, status, dependencies, priority, result, created_at, updated_at FROM tasks"
	var args []any
	if status != "" {
		query += fmt.Sprintf(" WHERE status = %s", s.placeholder(1))
		args = append(args, string(status))
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: listing tasks: %w", err)
	}
	defer rows.Close()

	var out []*task.Task
	for rows.Next() {
		var row taskRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Description, &row.Status,
			&row.Dependencies, &row.Priority, &row.Result, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scanning task row: %w", err)
		}
		t, err := rowToTask(&row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Ready returns pending tasks whose dependencies are all completed.
func (s *TaskStore) Ready(ctx context.Context) ([]*task.Task, error) {
	all, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	completed := make(map[int]bool)
	for _, t := range all {
		if t.Status == task.StatusCompleted {
			completed[t.ID] = true
		}
	}
	var out []*task.Task
	for _, t := range all {
		if t.Status != task.StatusPending {
			continue
		}
		ready := true
		for _, dep := range t.Dependencies {
			if !completed[dep] {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, t)
		}
	}
	return out, nil
}

func rowToTask(row *taskRow) (*task.Task, error) {
	var deps []int
	if row.Dependencies != "" {
		if err := json.Unmarshal([]byte(row.Dependencies), &deps); err != nil {
			return nil, fmt.Errorf("store: decoding dependencies for task %d: %w", row.ID, err)
		}
	}
	var result map[string]any
	if row.Result.Valid && row.Result.String != "" {
		if err := json.Unmarshal([]byte(row.Result.String), &result); err != nil {
			return nil, fmt.Errorf("store: decoding result for task %d: %w", row.ID, err)
		}
	}
	return &task.Task{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		Status:       task.Status(row.Status),
		Dependencies: deps,
		Priority:     row.Priority,
		Result:       result,
		CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    row.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}
