package handler

import (
	"github.com/haatos/stageflow/internal/layout"
	"github.com/haatos/stageflow/internal/topology"
)

type PipelineParams struct {
	PipelineID string `param:"pipeline_id"`
}

type InfoParams struct {
	PipelineID  string `param:"pipeline_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type StageParams struct {
	PipelineID string  `param:"pipeline_id"`
	StageID    string  `param:"stage_id"`
	AfterIndex *int    `json:"after_index"`
	Name       *string `json:"name"`
	IsParallel *bool   `json:"is_parallel"`
}

type ReorderParams struct {
	PipelineID string `param:"pipeline_id"`
	From       int    `json:"from"`
	To         int    `json:"to"`
}

type JobParams struct {
	PipelineID  string           `param:"pipeline_id"`
	StageID     string           `param:"stage_id"`
	JobID       string           `param:"job_id"`
	Type        topology.JobType `json:"type"`
	GroupIndex  *int             `json:"group_index"`
	InsertIndex *int             `json:"insert_index"`
}

func (jp JobParams) placement() topology.Placement {
	switch {
	case jp.GroupIndex == nil:
		return topology.NewBranch()
	case jp.InsertIndex == nil:
		return topology.InGroup(*jp.GroupIndex)
	}
	return topology.InGroupAt(*jp.GroupIndex, *jp.InsertIndex)
}

type VariableParams struct {
	PipelineID string `param:"pipeline_id"`
	VariableID string `param:"variable_id"`
}

type FormatParams struct {
	PipelineID string `param:"pipeline_id"`
	Format     string `                     query:"format"`
}

type RunParams struct {
	PipelineID string `param:"pipeline_id"`
	RunID      string `param:"run_id"`
	JobID      string `param:"job_id"`
}

type ListRunsParams struct {
	PipelineID string `param:"pipeline_id"`
	Page       int64  `                     query:"page"`
}

type BoxesParams struct {
	PipelineID string        `param:"pipeline_id"`
	Boxes      layout.BoxMap `json:"boxes"`
}

type ComputeParams struct {
	Pipeline topology.Pipeline `json:"pipeline"`
	Boxes    layout.BoxMap     `json:"boxes"`
}

type ConfigParams struct {
	DwellMinMs         int64   `json:"dwell_min_ms"`
	DwellMaxMs         int64   `json:"dwell_max_ms"`
	LayoutPollMs       int64   `json:"layout_poll_ms"`
	LogIntervalMs      int64   `json:"log_interval_ms"`
	CurveRadius        float64 `json:"curve_radius"`
	BridgeWidth        float64 `json:"bridge_width"`
	AlignTolerance     float64 `json:"align_tolerance"`
	RunHistoryPageSize int64   `json:"run_history_page_size"`
	RunRetentionDays   int64   `json:"run_retention_days"`
}
