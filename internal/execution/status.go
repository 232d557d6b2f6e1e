package execution

import (
	"time"

	"github.com/haatos/stageflow/internal/topology"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusWaiting   Status = "waiting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	// StatusFailed is never produced by the simulated controller.
	StatusFailed Status = "failed"
)

type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerCron   Trigger = "cron"
)

// Snapshot is the observable state of a controller at one instant.
type Snapshot struct {
	RunID      string    `json:"run_id"`
	PipelineID string    `json:"pipeline_id"`
	Trigger    Trigger   `json:"trigger"`
	State      State     `json:"state"`
	Current    int       `json:"current"`
	StageCount int       `json:"stage_count"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s Snapshot) IsRunning() bool {
	return s.State == StateRunning
}

// StageStatus derives the status of the stage at index i.
func (s Snapshot) StageStatus(i int) Status {
	switch s.State {
	case StateNotStarted, "":
		return StatusIdle
	case StateCompleted:
		return StatusCompleted
	}
	switch {
	case i < s.Current:
		return StatusCompleted
	case i == s.Current:
		return StatusRunning
	default:
		return StatusWaiting
	}
}

// StageStatuses lists the status of every stage of the captured pipeline.
func (s Snapshot) StageStatuses() []Status {
	out := make([]Status, s.StageCount)
	for i := range out {
		out[i] = s.StageStatus(i)
	}
	return out
}

// JobStatus returns the status of the stage holding jobID in p. Jobs that
// are not in p are idle.
func (s Snapshot) JobStatus(p topology.Pipeline, jobID string) Status {
	loc, ok := p.FindJob(jobID)
	if !ok {
		return StatusIdle
	}
	return s.StageStatus(loc.StageIndex)
}
