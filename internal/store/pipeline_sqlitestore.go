package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/haatos/stageflow/internal"
)

type PipelineSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewPipelineSQLiteStore(rdb, rwdb *sql.DB) *PipelineSQLiteStore {
	return &PipelineSQLiteStore{rdb, rwdb}
}

func (store *PipelineSQLiteStore) CreatePipeline(
	ctx context.Context,
	id, name, document string,
) (*Pipeline, error) {
	p := &Pipeline{
		PipelineID: id,
		Name:       name,
		Document:   document,
	}
	query := `insert into pipelines (
		pipeline_id,
		name,
		document
	)
	values ($1, $2, $3)
	returning created_on, updated_on`
	if err := sqlscan.Get(ctx, store.rwdb, p, query, p.PipelineID, p.Name, p.Document); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *PipelineSQLiteStore) ReadPipelineByID(
	ctx context.Context,
	id string,
) (*Pipeline, error) {
	p := &Pipeline{PipelineID: id}
	query := "select * from pipelines where pipeline_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, p, query, p.PipelineID); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePipelineDocument replaces the stored document. It returns
// sql.ErrNoRows when the pipeline does not exist.
func (store *PipelineSQLiteStore) UpdatePipelineDocument(
	ctx context.Context,
	id, name, document string,
) error {
	query := `update pipelines
	set name = $1,
		document = $2,
		updated_on = $3
	where pipeline_id = $4`
	res, err := store.rwdb.ExecContext(
		ctx, query,
		name,
		document,
		time.Now().UTC().Format(internal.DBTimestampLayout),
		id,
	)
	if err != nil {
		return err
	}
	return expectRows(res)
}

func (store *PipelineSQLiteStore) DeletePipeline(ctx context.Context, id string) error {
	query := "delete from pipelines where pipeline_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *PipelineSQLiteStore) ListPipelines(ctx context.Context) ([]*Pipeline, error) {
	query := "select * from pipelines order by created_on, pipeline_id"
	pipelines := make([]*Pipeline, 0)
	err := sqlscan.Select(ctx, store.rdb, &pipelines, query)
	return pipelines, err
}

func (store *PipelineSQLiteStore) ListScheduledPipelines(ctx context.Context) ([]*Pipeline, error) {
	query := "select * from pipelines where schedule is not null"
	pipelines := make([]*Pipeline, 0)
	err := sqlscan.Select(ctx, store.rdb, &pipelines, query)
	return pipelines, err
}

func (store *PipelineSQLiteStore) UpdatePipelineSchedule(
	ctx context.Context,
	id string,
	schedule, jobID *string,
) error {
	query := `update pipelines
	set schedule = $1,
		schedule_job_id = $2
	where pipeline_id = $3`
	_, err := store.rwdb.ExecContext(ctx, query, schedule, jobID, id)
	return err
}

func expectRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
