package store

import (
	"context"
	"time"
)

// Pipeline is a stored pipeline document.
type Pipeline struct {
	PipelineID string
	Name       string
	// Document holds the pipeline serialized as JSON
	Document string
	// Pipeline schedule in cron syntax
	Schedule *string
	// Scheduled job ID
	ScheduleJobID *string
	CreatedOn     time.Time
	UpdatedOn     time.Time
}

type PipelineStore interface {
	CreatePipeline(context.Context, string, string, string) (*Pipeline, error)
	ReadPipelineByID(context.Context, string) (*Pipeline, error)
	UpdatePipelineDocument(context.Context, string, string, string) error
	UpdatePipelineSchedule(context.Context, string, *string, *string) error
	DeletePipeline(context.Context, string) error
	ListPipelines(context.Context) ([]*Pipeline, error)
	ListScheduledPipelines(context.Context) ([]*Pipeline, error)
}
