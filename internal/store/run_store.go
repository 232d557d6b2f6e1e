package store

import (
	"context"
	"time"
)

type RunStatus string

const (
	StatusRunning     RunStatus = "running"
	StatusCompleted   RunStatus = "completed"
	StatusInterrupted RunStatus = "interrupted"
)

type Run struct {
	RunID         string `param:"run_id"`
	RunPipelineID string
	Trigger       string
	Status        RunStatus
	StageCount    int64
	CurrentStage  int64
	CreatedOn     time.Time
	StartedOn     *time.Time
	EndedOn       *time.Time
}

type RunStore interface {
	SaveRunProgress(context.Context, *Run) error
	ReadRunByID(context.Context, string) (*Run, error)
	DeleteRun(context.Context, string) error
	DeleteRunsBefore(context.Context, time.Time) (int64, error)
	InterruptRunningRuns(context.Context) (int64, error)
	ListLatestPipelineRuns(context.Context, string, int64) ([]Run, error)
	ListPipelineRunsPaginated(context.Context, string, int64, int64) ([]Run, error)
	CountPipelineRuns(context.Context, string) (int64, error)
}
