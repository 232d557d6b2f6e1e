package service

import "fmt"

type ErrUnknownFormat struct {
	Format string
}

func (e ErrUnknownFormat) Error() string {
	return fmt.Sprintf("unknown document format %q", e.Format)
}

func NewErrUnknownFormat(format string) *ErrUnknownFormat {
	return &ErrUnknownFormat{Format: format}
}

type ErrInvalidSchedule struct {
	Schedule string
	Err      error
}

func (e ErrInvalidSchedule) Error() string {
	return fmt.Sprintf("invalid schedule %q: %v", e.Schedule, e.Err)
}

func (e ErrInvalidSchedule) Unwrap() error {
	return e.Err
}

type ErrJobNotFound struct {
	JobID string
}

func (e ErrJobNotFound) Error() string {
	return fmt.Sprintf("job %s not found", e.JobID)
}

func NewErrJobNotFound(jobID string) *ErrJobNotFound {
	return &ErrJobNotFound{JobID: jobID}
}

type ErrRunInProgress struct {
	RunID string
}

func (e ErrRunInProgress) Error() string {
	return fmt.Sprintf("run %s is still in progress", e.RunID)
}

func NewErrRunInProgress(runID string) *ErrRunInProgress {
	return &ErrRunInProgress{RunID: runID}
}
