package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/repositories"
)

type RunRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) repositories.RunRepository {
	return &RunRepository{db: db}
}

type runRow struct {
	ID           string         `db:"id"`
	Command      string         `db:"command"`
	DryRun       bool           `db:"dry_run"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	Counters     sql.NullString `db:"counters"`
	Errors       sql.NullString `db:"errors"`
	StartTime    time.Time      `db:"start_time"`
	EndTime      sql.NullTime   `db:"end_time"`
	LastUpdated  time.Time      `db:"last_updated"`
}

type actionRow struct {
	RunID  string         `db:"run_id"`
	Action string         `db:"action"`
	Target string         `db:"target"`
	Detail sql.NullString `db:"detail"`
	At     time.Time      `db:"at"`
}

const runColumns = `id, command, dry_run, status, error_message, counters, errors, start_time, end_time, last_updated`

// Save inserts or replaces the run and its recorded actions
func (r *RunRepository) Save(ctx context.Context, run *entities.Run) error {
	countersJSON, err := json.Marshal(run.Counters)
	if err != nil {
		return err
	}
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return err
	}

	var endTime interface{}
	if run.EndTime != nil {
		endTime = run.EndTime.UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
	INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		command = excluded.command, dry_run = excluded.dry_run, status = excluded.status,
		error_message = excluded.error_message, counters = excluded.counters,
		errors = excluded.errors, start_time = excluded.start_time,
		end_time = excluded.end_time, last_updated = excluded.last_updated
	`
	if _, err := tx.ExecContext(ctx, query,
		run.ID, run.Command, run.DryRun, run.Status, run.ErrorMessage,
		string(countersJSON), string(errorsJSON),
		run.StartTime.UTC(), endTime, run.LastUpdated.UTC(),
	); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_actions WHERE run_id = ?", run.ID); err != nil {
		return err
	}
	for _, action := range run.Actions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO run_actions (run_id, action, target, detail, at) VALUES (?, ?, ?, ?, ?)",
			run.ID, action.Action, action.Target, action.Detail, action.At.UTC(),
		); err != nil {
			return fmt.Errorf("save action of run %s: %w", run.ID, err)
		}
	}

	return tx.Commit()
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*entities.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &entities.NotFoundError{Kind: "run", ID: id}
		}
		return nil, err
	}

	run, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	if err := r.loadActions(ctx, []*entities.Run{run}); err != nil {
		return nil, err
	}
	return run, nil
}

// GetRecent returns the newest runs first; actions are not loaded
func (r *RunRepository) GetRecent(ctx context.Context, limit int) ([]*entities.Run, error) {
	return r.list(ctx, "SELECT "+runColumns+" FROM runs ORDER BY start_time DESC LIMIT ?", limit)
}

func (r *RunRepository) GetByCommand(ctx context.Context, command string, limit int) ([]*entities.Run, error) {
	return r.list(ctx, "SELECT "+runColumns+" FROM runs WHERE command = ? ORDER BY start_time DESC LIMIT ?", command, limit)
}

// DeleteOlderThan removes runs started more than days ago along with their actions
func (r *RunRepository) DeleteOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM run_actions WHERE run_id IN (SELECT id FROM runs WHERE start_time < ?)", cutoff,
	); err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE start_time < ?", cutoff)
	if err != nil {
		return 0, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(deleted), tx.Commit()
}

func (r *RunRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entities.Run, error) {
	if n := args[len(args)-1].(int); n <= 0 {
		args[len(args)-1] = -1
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	runs := make([]*entities.Run, 0, len(rows))
	for _, row := range rows {
		run, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *RunRepository) loadActions(ctx context.Context, runs []*entities.Run) error {
	for _, run := range runs {
		var rows []actionRow
		if err := r.db.SelectContext(ctx, &rows,
			"SELECT run_id, action, target, detail, at FROM run_actions WHERE run_id = ? ORDER BY id", run.ID,
		); err != nil {
			return err
		}
		for _, a := range rows {
			run.Actions = append(run.Actions, entities.RunAction{
				Action: a.Action,
				Target: a.Target,
				Detail: a.Detail.String,
				At:     a.At,
			})
		}
	}
	return nil
}

func (row runRow) toEntity() (*entities.Run, error) {
	run := &entities.Run{
		ID:           row.ID,
		Command:      row.Command,
		DryRun:       row.DryRun,
		Status:       row.Status,
		ErrorMessage: row.ErrorMessage.String,
		StartTime:    row.StartTime,
		LastUpdated:  row.LastUpdated,
	}
	if row.EndTime.Valid {
		end := row.EndTime.Time
		run.EndTime = &end
	}
	if row.Counters.Valid && row.Counters.String != "" {
		if err := json.Unmarshal([]byte(row.Counters.String), &run.Counters); err != nil {
			return nil, fmt.Errorf("run %s counters: %w", row.ID, err)
		}
	}
	if row.Errors.Valid && row.Errors.String != "" {
		if err := json.Unmarshal([]byte(row.Errors.String), &run.Errors); err != nil {
			return nil, fmt.Errorf("run %s errors: %w", row.ID, err)
		}
	}
	return run, nil
}
