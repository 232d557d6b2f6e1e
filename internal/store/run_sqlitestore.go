package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/haatos/stageflow/internal"
)

type RunSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewRunSQLiteStore(rdb, rwdb *sql.DB) *RunSQLiteStore {
	return &RunSQLiteStore{rdb, rwdb}
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(internal.DBTimestampLayout)
	return &s
}

// SaveRunProgress inserts the run or, when it already exists, updates its
// progress columns.
func (store *RunSQLiteStore) SaveRunProgress(ctx context.Context, r *Run) error {
	query := `insert into runs (
		run_id,
		run_pipeline_id,
		trigger,
		status,
		stage_count,
		current_stage,
		started_on,
		ended_on
	)
	values ($1, $2, $3, $4, $5, $6, $7, $8)
	on conflict (run_id) do update
	set status = excluded.status,
		current_stage = excluded.current_stage,
		ended_on = excluded.ended_on`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		r.RunID,
		r.RunPipelineID,
		r.Trigger,
		r.Status,
		r.StageCount,
		r.CurrentStage,
		formatTimestamp(r.StartedOn),
		formatTimestamp(r.EndedOn),
	)
	return err
}

func (store *RunSQLiteStore) ReadRunByID(ctx context.Context, id string) (*Run, error) {
	r := &Run{RunID: id}
	query := "select * from runs where run_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, r, query, r.RunID); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) DeleteRun(ctx context.Context, id string) error {
	query := "delete from runs where run_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

// DeleteRunsBefore removes finished runs created before the given time.
func (store *RunSQLiteStore) DeleteRunsBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `delete from runs
	where status != $1
	and created_on < $2`
	res, err := store.rwdb.ExecContext(
		ctx, query,
		StatusRunning,
		before.UTC().Format(internal.DBTimestampLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InterruptRunningRuns marks runs left running by a previous process.
func (store *RunSQLiteStore) InterruptRunningRuns(ctx context.Context) (int64, error) {
	query := `update runs
	set status = $1,
		ended_on = $2
	where status = $3`
	res, err := store.rwdb.ExecContext(
		ctx, query,
		StatusInterrupted,
		time.Now().UTC().Format(internal.DBTimestampLayout),
		StatusRunning,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (store *RunSQLiteStore) ListPipelineRunsPaginated(
	ctx context.Context,
	pipelineID string,
	limit, offset int64,
) ([]Run, error) {
	query := `select * from runs
	where run_pipeline_id = $1
	order by created_on desc, started_on desc limit $2 offset $3`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, pipelineID, limit, offset)
	return runs, err
}

func (store *RunSQLiteStore) ListLatestPipelineRuns(
	ctx context.Context,
	pipelineID string,
	limit int64,
) ([]Run, error) {
	return store.ListPipelineRunsPaginated(ctx, pipelineID, limit, 0)
}

func (store *RunSQLiteStore) CountPipelineRuns(
	ctx context.Context,
	pipelineID string,
) (int64, error) {
	var count int64
	query := `select count(*) from runs where run_pipeline_id = $1`
	err := sqlscan.Get(ctx, store.rdb, &count, query, pipelineID)
	return count, err
}
