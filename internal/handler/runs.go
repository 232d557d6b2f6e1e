package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/haatos/stageflow/internal"
	"github.com/haatos/stageflow/internal/execution"
	"github.com/haatos/stageflow/internal/service"
	"github.com/haatos/stageflow/internal/store"
)

type RunServicer interface {
	StartRun(context.Context, string, execution.Trigger) (execution.Snapshot, bool, error)
	Status(string) execution.Snapshot
	Subscribe(string, string) chan service.RunUpdate
	Unsubscribe(string, string)
	GetRun(context.Context, string) (*store.Run, error)
	DeleteRun(context.Context, string, string) error
	LatestRuns(context.Context, string, int64) ([]store.Run, error)
	ListRuns(context.Context, string, int64, int64) ([]store.Run, int64, error)
	StreamJobLog(context.Context, string, string, func(string) error) error
}

func SetupRunRoutes(g *echo.Group, h *RunHandler) {
	runs := g.Group("/pipelines/:pipeline_id/runs")
	runs.POST("", h.PostRun)
	runs.GET("", h.GetRuns)
	runs.GET("/status", h.GetRunStatus, NoCache)
	runs.GET("/status/sse", h.GetRunStatusSSE)
	runs.GET("/jobs/:job_id/log", h.GetJobLogSSE)
	runs.GET("/latest", h.GetLatestRuns)
	runs.GET("/:run_id", h.GetRun)
	runs.DELETE("/:run_id", h.DeleteRun)
}

type RunHandler struct {
	runService RunServicer
}

func NewRunHandler(runService RunServicer) *RunHandler {
	return &RunHandler{runService: runService}
}

type StartRunResponse struct {
	Started bool              `json:"started"`
	Run     service.RunUpdate `json:"run"`
}

// PostRun starts a run. A pipeline that is already running answers 200 with
// started false and the snapshot of the run in flight.
func (h *RunHandler) PostRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}

	snap, started, err := h.runService.StartRun(
		c.Request().Context(),
		rp.PipelineID,
		execution.TriggerManual,
	)
	if err != nil {
		return serviceError(c, err, "unable to start run")
	}
	status := http.StatusAccepted
	if !started {
		status = http.StatusOK
	}
	return c.JSON(status, StartRunResponse{Started: started, Run: service.NewRunUpdate(snap)})
}

type RunsPage struct {
	Runs  []store.Run `json:"runs"`
	Page  int64       `json:"page"`
	Pages int64       `json:"pages"`
	Total int64       `json:"total"`
}

func (h *RunHandler) GetRuns(c echo.Context) error {
	lp := new(ListRunsParams)
	if err := c.Bind(lp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run list parameters")
	}
	if lp.Page < 1 {
		lp.Page = 1
	}

	pageSize := internal.Config.RunHistoryPageSize
	if pageSize < 1 {
		pageSize = internal.DefaultConfiguration().RunHistoryPageSize
	}
	runs, total, err := h.runService.ListRuns(
		c.Request().Context(),
		lp.PipelineID,
		pageSize,
		(lp.Page-1)*pageSize,
	)
	if err != nil {
		return serviceError(c, err, "something went wrong listing runs")
	}
	return c.JSON(http.StatusOK, RunsPage{
		Runs:  runs,
		Page:  lp.Page,
		Pages: (total + pageSize - 1) / pageSize,
		Total: total,
	})
}

func (h *RunHandler) GetRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run id")
	}

	r, err := h.runService.GetRun(c.Request().Context(), rp.RunID)
	if err != nil {
		return serviceError(c, err, "something went wrong getting run data")
	}
	if r.RunPipelineID != rp.PipelineID {
		return newError(c, nil, http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RunHandler) DeleteRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run id")
	}

	if err := h.runService.DeleteRun(c.Request().Context(), rp.PipelineID, rp.RunID); err != nil {
		return serviceError(c, err, "something went wrong deleting the run")
	}
	return c.NoContent(http.StatusNoContent)
}

const latestRunsLimit = 5

func (h *RunHandler) GetLatestRuns(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}

	runs, err := h.runService.LatestRuns(c.Request().Context(), rp.PipelineID, latestRunsLimit)
	if err != nil {
		return serviceError(c, err, "something went wrong listing runs")
	}
	return c.JSON(http.StatusOK, runs)
}

func (h *RunHandler) GetRunStatus(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}
	return c.JSON(http.StatusOK, service.NewRunUpdate(h.runService.Status(rp.PipelineID)))
}

// GetRunStatusSSE streams the current status followed by every transition
// until the client disconnects.
func (h *RunHandler) GetRunStatusSSE(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}

	id := uuid.NewString()
	updates := h.runService.Subscribe(rp.PipelineID, id)
	defer h.runService.Unsubscribe(rp.PipelineID, id)

	w := startEventStream(c)
	if err := writeRunUpdate(w, service.NewRunUpdate(h.runService.Status(rp.PipelineID))); err != nil {
		return nil
	}
	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeRunUpdate(w, u); err != nil {
				log.Println("err writing run update:", err)
				return nil
			}
		}
	}
}

func writeRunUpdate(w *echo.Response, u service.RunUpdate) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return writeEvent(w, &Event{ID: []byte(u.RunID), Event: []byte("status"), Data: b})
}

// GetJobLogSSE streams the simulated log of one job line by line.
func (h *RunHandler) GetJobLogSSE(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid job id")
	}

	var w *echo.Response
	err := h.runService.StreamJobLog(
		c.Request().Context(),
		rp.PipelineID,
		rp.JobID,
		func(line string) error {
			if w == nil {
				w = startEventStream(c)
			}
			return writeEvent(w, &Event{Event: []byte("log"), Data: []byte(line)})
		},
	)
	if err != nil && w == nil {
		return serviceError(c, err, "unable to stream job log")
	}
	if err != nil && c.Request().Context().Err() == nil {
		log.Println("err streaming job log:", err)
	}
	if w != nil {
		_ = writeEvent(w, &Event{Event: []byte("done"), Data: []byte(rp.JobID)})
	}
	return nil
}
