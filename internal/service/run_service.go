package service

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/haatos/stageflow/internal/execution"
	"github.com/haatos/stageflow/internal/store"
	"github.com/haatos/stageflow/internal/topology"
)

type PipelineGetter interface {
	GetPipeline(context.Context, string) (topology.Pipeline, error)
}

type ScheduleStore interface {
	UpdatePipelineSchedule(context.Context, string, *string, *string) error
	ListScheduledPipelines(context.Context) ([]*store.Pipeline, error)
}

type RunWriter interface {
	SaveRunProgress(context.Context, *store.Run) error
	DeleteRun(context.Context, string) error
	DeleteRunsBefore(context.Context, time.Time) (int64, error)
	InterruptRunningRuns(context.Context) (int64, error)
}

type RunReader interface {
	ReadRunByID(context.Context, string) (*store.Run, error)
	ListLatestPipelineRuns(context.Context, string, int64) ([]store.Run, error)
	ListPipelineRunsPaginated(context.Context, string, int64, int64) ([]store.Run, error)
	CountPipelineRuns(context.Context, string) (int64, error)
}

type RunStore interface {
	RunWriter
	RunReader
}

// RunUpdate is what status subscribers receive on every transition.
type RunUpdate struct {
	execution.Snapshot
	Stages []execution.Status `json:"stages"`
}

func NewRunUpdate(snap execution.Snapshot) RunUpdate {
	return RunUpdate{Snapshot: snap, Stages: snap.StageStatuses()}
}

type RunServiceOption func(*RunService)

func WithRunClock(clock clockwork.Clock) RunServiceOption {
	return func(s *RunService) {
		s.clock = clock
	}
}

func WithRunDwell(lo, hi time.Duration) RunServiceOption {
	return func(s *RunService) {
		s.dwellMin, s.dwellMax = lo, hi
	}
}

func WithLogInterval(d time.Duration) RunServiceOption {
	return func(s *RunService) {
		if d > 0 {
			s.logInterval = d
		}
	}
}

// RunService owns one execution controller per pipeline and the cron
// triggers that start them.
type RunService struct {
	pipelines     PipelineGetter
	scheduleStore ScheduleStore
	runStore      RunStore
	scheduler     gocron.Scheduler
	clock         clockwork.Clock
	dwellMin      time.Duration
	dwellMax      time.Duration
	logInterval   time.Duration
	clients       *SSEClientMap[RunUpdate]

	mu          sync.Mutex
	controllers map[string]*execution.Controller

	scheduleMu sync.Mutex
	jobs       map[string]uuid.UUID
	schedules  map[string]string
}

func NewRunService(
	pipelines PipelineGetter,
	scheduleStore ScheduleStore,
	runStore RunStore,
	scheduler gocron.Scheduler,
	opts ...RunServiceOption,
) *RunService {
	s := &RunService{
		pipelines:     pipelines,
		scheduleStore: scheduleStore,
		runStore:      runStore,
		scheduler:     scheduler,
		clock:         clockwork.NewRealClock(),
		dwellMin:      execution.DefaultMinDwell,
		dwellMax:      execution.DefaultMaxDwell,
		logInterval:   execution.LogInterval,
		clients:       NewSSEClientMap[RunUpdate](),
		controllers:   make(map[string]*execution.Controller),
		jobs:          make(map[string]uuid.UUID),
		schedules:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RunService) controller(pipelineID string) *execution.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.controllers[pipelineID]
	if !ok {
		c = execution.NewController(
			execution.WithClock(s.clock),
			execution.WithDwell(s.dwellMin, s.dwellMax),
			execution.WithObserver(s.observe),
		)
		s.controllers[pipelineID] = c
	}
	return c
}

func runFromSnapshot(snap execution.Snapshot) *store.Run {
	started := snap.StartedAt
	r := &store.Run{
		RunID:         snap.RunID,
		RunPipelineID: snap.PipelineID,
		Trigger:       string(snap.Trigger),
		Status:        store.StatusRunning,
		StageCount:    int64(snap.StageCount),
		CurrentStage:  int64(snap.Current),
		StartedOn:     &started,
	}
	if snap.State == execution.StateCompleted {
		ended := snap.UpdatedAt
		r.Status = store.StatusCompleted
		r.EndedOn = &ended
	}
	return r
}

func (s *RunService) observe(snap execution.Snapshot) {
	if err := s.runStore.SaveRunProgress(context.Background(), runFromSnapshot(snap)); err != nil {
		log.Println("err recording run progress:", err)
	}
	s.clients.SendToClients(snap.PipelineID, NewRunUpdate(snap))
}

// StartRun starts a simulated run of the current document. It reports false
// when the pipeline already has a run in flight.
func (s *RunService) StartRun(
	ctx context.Context,
	pipelineID string,
	trigger execution.Trigger,
) (execution.Snapshot, bool, error) {
	p, err := s.pipelines.GetPipeline(ctx, pipelineID)
	if err != nil {
		return execution.Snapshot{}, false, err
	}
	c := s.controller(pipelineID)
	started := c.Start(p, trigger)
	return c.Snapshot(), started, nil
}

func (s *RunService) existingController(pipelineID string) (*execution.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.controllers[pipelineID]
	return c, ok
}

func (s *RunService) Status(pipelineID string) execution.Snapshot {
	c, ok := s.existingController(pipelineID)
	if !ok {
		return execution.Snapshot{PipelineID: pipelineID, State: execution.StateNotStarted, Current: -1}
	}
	return c.Snapshot()
}

func (s *RunService) Subscribe(pipelineID, uid string) chan RunUpdate {
	return s.clients.AddClient(pipelineID, uid)
}

func (s *RunService) Unsubscribe(pipelineID, uid string) {
	s.clients.RemoveClient(pipelineID, uid)
}

func (s *RunService) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	return s.runStore.ReadRunByID(ctx, runID)
}

func (s *RunService) LatestRuns(ctx context.Context, pipelineID string, n int64) ([]store.Run, error) {
	return s.runStore.ListLatestPipelineRuns(ctx, pipelineID, n)
}

// DeleteRun removes a finished run of the given pipeline.
func (s *RunService) DeleteRun(ctx context.Context, pipelineID, runID string) error {
	r, err := s.runStore.ReadRunByID(ctx, runID)
	if err != nil {
		return err
	}
	if r.RunPipelineID != pipelineID {
		return sql.ErrNoRows
	}
	if r.Status == store.StatusRunning {
		return NewErrRunInProgress(runID)
	}
	return s.runStore.DeleteRun(ctx, runID)
}

// ListRuns returns one page of run history together with the total count.
func (s *RunService) ListRuns(
	ctx context.Context,
	pipelineID string,
	limit, offset int64,
) ([]store.Run, int64, error) {
	runs, err := s.runStore.ListPipelineRunsPaginated(ctx, pipelineID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.runStore.CountPipelineRuns(ctx, pipelineID)
	if err != nil {
		return nil, 0, err
	}
	return runs, count, nil
}

// StreamJobLog sends the simulated log of a job of the latest run line by
// line, pacing stamped lines by the log interval. The job is looked up in the
// document the run captured, so later edits do not change the log.
func (s *RunService) StreamJobLog(
	ctx context.Context,
	pipelineID, jobID string,
	send func(string) error,
) error {
	c, ok := s.existingController(pipelineID)
	if !ok {
		return NewErrJobNotFound(jobID)
	}
	job, ok := c.Pipeline().Job(jobID)
	if !ok {
		return NewErrJobNotFound(jobID)
	}
	for _, line := range execution.JobLog(job) {
		if line.Stamped {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.clock.After(s.logInterval):
			}
		}
		if err := send(line.Format(s.clock.Now())); err != nil {
			return err
		}
	}
	return nil
}

// SchedulePipeline keeps the cron trigger of p in line with its settings.
func (s *RunService) SchedulePipeline(ctx context.Context, p topology.Pipeline) error {
	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	schedule := strings.TrimSpace(p.Settings.Cron)
	_, registered := s.jobs[p.ID]
	if !registered && schedule == "" {
		return nil
	}
	if registered && s.schedules[p.ID] == schedule {
		return nil
	}
	s.unschedule(p.ID)

	if schedule == "" {
		return s.scheduleStore.UpdatePipelineSchedule(ctx, p.ID, nil, nil)
	}

	pipelineID := p.ID
	job, err := s.scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(func() {
			s.startScheduled(pipelineID)
		}),
		gocron.WithName(pipelineID),
	)
	if err != nil {
		if err := s.scheduleStore.UpdatePipelineSchedule(ctx, p.ID, nil, nil); err != nil {
			log.Println("err clearing pipeline schedule:", err)
		}
		return &ErrInvalidSchedule{Schedule: schedule, Err: err}
	}
	s.jobs[p.ID] = job.ID()
	s.schedules[p.ID] = schedule
	jobID := job.ID().String()
	return s.scheduleStore.UpdatePipelineSchedule(ctx, p.ID, &schedule, &jobID)
}

func (s *RunService) unschedule(pipelineID string) {
	id, ok := s.jobs[pipelineID]
	if !ok {
		return
	}
	if err := s.scheduler.RemoveJob(id); err != nil {
		log.Println("unable to remove existing job: ", err)
	}
	delete(s.jobs, pipelineID)
	delete(s.schedules, pipelineID)
}

func (s *RunService) startScheduled(pipelineID string) {
	_, started, err := s.StartRun(context.Background(), pipelineID, execution.TriggerCron)
	if err != nil {
		log.Println("err starting scheduled run:", err)
		return
	}
	if !started {
		log.Printf("scheduled run of pipeline %s skipped: a run is in flight\n", pipelineID)
	}
}

// InitializeSchedules registers the cron triggers stored by a previous
// process.
func (s *RunService) InitializeSchedules(ctx context.Context) error {
	records, err := s.scheduleStore.ListScheduledPipelines(ctx)
	if err != nil {
		return err
	}
	for _, record := range records {
		p, err := s.pipelines.GetPipeline(ctx, record.PipelineID)
		if err != nil {
			log.Println("err loading scheduled pipeline:", err)
			continue
		}
		if strings.TrimSpace(p.Settings.Cron) == "" {
			// stored schedule left behind by a document without a cron
			if err := s.scheduleStore.UpdatePipelineSchedule(ctx, p.ID, nil, nil); err != nil {
				log.Println("err clearing pipeline schedule:", err)
			}
			continue
		}
		if err := s.SchedulePipeline(ctx, p); err != nil {
			log.Println("err scheduling pipeline:", err)
		}
	}
	return nil
}

// ForgetPipeline drops the controller and cron trigger of a deleted
// pipeline.
func (s *RunService) ForgetPipeline(pipelineID string) {
	s.scheduleMu.Lock()
	s.unschedule(pipelineID)
	s.scheduleMu.Unlock()

	s.mu.Lock()
	delete(s.controllers, pipelineID)
	s.mu.Unlock()
}

// InterruptStaleRuns closes runs that a previous process left running.
func (s *RunService) InterruptStaleRuns(ctx context.Context) (int64, error) {
	return s.runStore.InterruptRunningRuns(ctx)
}

func (s *RunService) PruneRuns(ctx context.Context, retention time.Duration) (int64, error) {
	return s.runStore.DeleteRunsBefore(ctx, s.clock.Now().Add(-retention))
}

func (s *RunService) ScheduleRunPruning(retention time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			n, err := s.PruneRuns(context.Background(), retention)
			if err != nil {
				log.Println("err pruning run history:", err)
				return
			}
			log.Printf("pruned %d runs\n", n)
		}),
	)
	return err
}
