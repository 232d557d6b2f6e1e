package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/haatos/stageflow/internal/service"
	"github.com/haatos/stageflow/internal/topology"
	"github.com/haatos/stageflow/internal/util"
)

const maxImportSize = 1 << 20

type PipelineWriter interface {
	CreatePipeline(context.Context) (topology.Pipeline, error)
	DeletePipeline(context.Context, string) error
	ImportPipeline(context.Context, []byte, string) (topology.Pipeline, error)
	AddJob(
		ctx context.Context,
		pipelineID, stageID string,
		jobType topology.JobType,
		at topology.Placement,
	) (topology.Pipeline, error)
	DeleteJob(ctx context.Context, pipelineID, stageID, jobID string) (topology.Pipeline, error)
	UpdateJob(
		ctx context.Context,
		pipelineID, jobID string,
		patch topology.JobPatch,
	) (topology.Pipeline, error)
	AddStage(ctx context.Context, pipelineID string, afterIndex int) (topology.Pipeline, error)
	DeleteStage(ctx context.Context, pipelineID, stageID string) (topology.Pipeline, error)
	ReorderStage(ctx context.Context, pipelineID string, from, to int) (topology.Pipeline, error)
	RenameStage(ctx context.Context, pipelineID, stageID, name string) (topology.Pipeline, error)
	SetStageParallel(
		ctx context.Context,
		pipelineID, stageID string,
		parallel bool,
	) (topology.Pipeline, error)
	AddVariable(ctx context.Context, pipelineID string, v topology.Variable) (topology.Pipeline, error)
	UpdateVariable(
		ctx context.Context,
		pipelineID, variableID string,
		patch topology.VariablePatch,
	) (topology.Pipeline, error)
	DeleteVariable(ctx context.Context, pipelineID, variableID string) (topology.Pipeline, error)
	UpdateInfo(ctx context.Context, pipelineID, name, description string) (topology.Pipeline, error)
	UpdateSettings(
		ctx context.Context,
		pipelineID string,
		settings topology.Settings,
	) (topology.Pipeline, error)
}

type PipelineReader interface {
	GetPipeline(context.Context, string) (topology.Pipeline, error)
	ListPipelines(context.Context) ([]topology.Pipeline, error)
	LintPipeline(context.Context, string) ([]topology.Hint, error)
	ExportPipeline(context.Context, string, string) ([]byte, error)
}

type PipelineServicer interface {
	PipelineWriter
	PipelineReader
}

func SetupPipelineRoutes(g *echo.Group, h *PipelineHandler) {
	g.GET("/job-types", h.GetJobTypes)

	pipelines := g.Group("/pipelines")
	pipelines.GET("", h.GetPipelines)
	pipelines.POST("", h.PostPipeline)
	pipelines.POST("/import", h.PostImportPipeline)
	pipelines.GET("/:pipeline_id", h.GetPipeline)
	pipelines.DELETE("/:pipeline_id", h.DeletePipeline)
	pipelines.PATCH("/:pipeline_id/info", h.PatchPipelineInfo, RequireJSON)
	pipelines.PUT("/:pipeline_id/settings", h.PutPipelineSettings, RequireJSON)
	pipelines.GET("/:pipeline_id/lint", h.GetPipelineLint)
	pipelines.GET("/:pipeline_id/export", h.GetPipelineExport)

	pipelines.POST("/:pipeline_id/stages", h.PostStage, RequireJSON)
	pipelines.POST("/:pipeline_id/stages/reorder", h.PostReorderStage, RequireJSON)
	pipelines.PATCH("/:pipeline_id/stages/:stage_id", h.PatchStage, RequireJSON)
	pipelines.DELETE("/:pipeline_id/stages/:stage_id", h.DeleteStage)

	pipelines.POST("/:pipeline_id/stages/:stage_id/jobs", h.PostJob, RequireJSON)
	pipelines.DELETE("/:pipeline_id/stages/:stage_id/jobs/:job_id", h.DeleteJob)
	pipelines.PATCH("/:pipeline_id/jobs/:job_id", h.PatchJob, RequireJSON)

	pipelines.POST("/:pipeline_id/variables", h.PostVariable, RequireJSON)
	pipelines.PATCH("/:pipeline_id/variables/:variable_id", h.PatchVariable, RequireJSON)
	pipelines.DELETE("/:pipeline_id/variables/:variable_id", h.DeleteVariable)
}

type PipelineHandler struct {
	pipelineService PipelineServicer
	onDelete        []func(string)
}

// NewPipelineHandler returns a handler that calls every onDelete function
// with the id of each deleted pipeline.
func NewPipelineHandler(
	pipelineService PipelineServicer,
	onDelete ...func(pipelineID string),
) *PipelineHandler {
	return &PipelineHandler{
		pipelineService: pipelineService,
		onDelete:        onDelete,
	}
}

func (h *PipelineHandler) GetJobTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, topology.JobTypes())
}

func (h *PipelineHandler) GetPipelines(c echo.Context) error {
	pipelines, err := h.pipelineService.ListPipelines(c.Request().Context())
	if err != nil {
		return serviceError(c, err, "something went wrong listing pipelines")
	}
	return c.JSON(http.StatusOK, pipelines)
}

func (h *PipelineHandler) PostPipeline(c echo.Context) error {
	p, err := h.pipelineService.CreatePipeline(c.Request().Context())
	if err != nil {
		return serviceError(c, err, "unable to create pipeline")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PipelineHandler) GetPipeline(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}

	p, err := h.pipelineService.GetPipeline(c.Request().Context(), pp.PipelineID)
	if err != nil {
		return serviceError(c, err, "something went wrong getting pipeline data")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) DeletePipeline(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}

	if err := h.pipelineService.DeletePipeline(c.Request().Context(), pp.PipelineID); err != nil {
		return serviceError(c, err, "something went wrong deleting the pipeline")
	}
	for _, fn := range h.onDelete {
		fn(pp.PipelineID)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PipelineHandler) PatchPipelineInfo(c echo.Context) error {
	ip := new(InfoParams)
	if err := c.Bind(ip); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline info")
	}

	p, err := h.pipelineService.UpdateInfo(
		c.Request().Context(),
		ip.PipelineID,
		strings.TrimSpace(ip.Name),
		strings.TrimSpace(ip.Description),
	)
	if err != nil {
		return serviceError(c, err, "something went wrong updating the pipeline")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) PutPipelineSettings(c echo.Context) error {
	pipelineID := c.Param("pipeline_id")
	settings := new(topology.Settings)
	if err := c.Bind(settings); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline settings")
	}
	if settings.TimeoutMinutes < 0 || settings.RetryCount < 0 {
		return newError(c, nil, http.StatusBadRequest, "timeout and retry count must not be negative")
	}
	settings.Cron = strings.TrimSpace(settings.Cron)

	p, err := h.pipelineService.UpdateSettings(c.Request().Context(), pipelineID, *settings)
	if err != nil {
		return serviceError(c, err, "something went wrong updating pipeline settings")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) GetPipelineLint(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}

	hints, err := h.pipelineService.LintPipeline(c.Request().Context(), pp.PipelineID)
	if err != nil {
		return serviceError(c, err, "something went wrong checking the pipeline")
	}
	return c.JSON(http.StatusOK, hints)
}

var formatContentTypes = map[string]string{
	service.FormatYAML: "application/yaml",
	service.FormatJSON: echo.MIMEApplicationJSON,
	service.FormatDOT:  "text/vnd.graphviz",
}

func (h *PipelineHandler) GetPipelineExport(c echo.Context) error {
	fp := new(FormatParams)
	if err := c.Bind(fp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid export parameters")
	}
	if fp.Format == "" {
		fp.Format = service.FormatYAML
	}

	out, err := h.pipelineService.ExportPipeline(c.Request().Context(), fp.PipelineID, fp.Format)
	if err != nil {
		return serviceError(c, err, "unable to export pipeline")
	}
	name := util.Slugify(fp.PipelineID)
	if name == "" {
		name = "pipeline"
	}
	c.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", name+"."+fp.Format),
	)
	return c.Blob(http.StatusOK, formatContentTypes[fp.Format], out)
}

func (h *PipelineHandler) PostImportPipeline(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = service.FormatYAML
	}
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportSize))
	if err != nil {
		return newError(c, err, http.StatusBadRequest, "unable to read pipeline document")
	}

	p, err := h.pipelineService.ImportPipeline(c.Request().Context(), data, format)
	if err != nil {
		if errors.Is(err, topology.ErrMalformedDocument) {
			return newError(c, err, http.StatusBadRequest, "invalid pipeline document")
		}
		return serviceError(c, err, "unable to import pipeline")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) PostStage(c echo.Context) error {
	sp := new(StageParams)
	if err := c.Bind(sp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid stage data")
	}

	ctx := c.Request().Context()
	var afterIndex int
	if sp.AfterIndex != nil {
		afterIndex = *sp.AfterIndex
	} else {
		current, err := h.pipelineService.GetPipeline(ctx, sp.PipelineID)
		if err != nil {
			return serviceError(c, err, "something went wrong getting pipeline data")
		}
		afterIndex = len(current.Stages) - 1
	}

	p, err := h.pipelineService.AddStage(ctx, sp.PipelineID, afterIndex)
	if err != nil {
		return serviceError(c, err, "unable to add stage")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PipelineHandler) PatchStage(c echo.Context) error {
	sp := new(StageParams)
	if err := c.Bind(sp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid stage data")
	}

	ctx := c.Request().Context()
	var (
		p   topology.Pipeline
		err error
	)
	if sp.Name != nil {
		p, err = h.pipelineService.RenameStage(ctx, sp.PipelineID, sp.StageID, strings.TrimSpace(*sp.Name))
		if err != nil {
			return serviceError(c, err, "unable to rename stage")
		}
	}
	if sp.IsParallel != nil {
		p, err = h.pipelineService.SetStageParallel(ctx, sp.PipelineID, sp.StageID, *sp.IsParallel)
		if err != nil {
			return serviceError(c, err, "unable to update stage")
		}
	}
	if sp.Name == nil && sp.IsParallel == nil {
		return newError(c, nil, http.StatusBadRequest, "nothing to update")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) DeleteStage(c echo.Context) error {
	sp := new(StageParams)
	if err := c.Bind(sp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid stage id")
	}

	p, err := h.pipelineService.DeleteStage(c.Request().Context(), sp.PipelineID, sp.StageID)
	if err != nil {
		return serviceError(c, err, "unable to delete stage")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) PostReorderStage(c echo.Context) error {
	rp := new(ReorderParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid reorder data")
	}

	p, err := h.pipelineService.ReorderStage(c.Request().Context(), rp.PipelineID, rp.From, rp.To)
	if err != nil {
		return serviceError(c, err, "unable to reorder stages")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) PostJob(c echo.Context) error {
	jp := new(JobParams)
	if err := c.Bind(jp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid job data")
	}
	if jp.Type == "" {
		jp.Type = topology.JobScript
	}
	if _, ok := topology.LookupJobType(jp.Type); !ok {
		return newError(c, nil, http.StatusBadRequest, fmt.Sprintf("unknown job type %q", jp.Type))
	}

	p, err := h.pipelineService.AddJob(
		c.Request().Context(),
		jp.PipelineID,
		jp.StageID,
		jp.Type,
		jp.placement(),
	)
	if err != nil {
		return serviceError(c, err, "unable to add job")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PipelineHandler) PatchJob(c echo.Context) error {
	pipelineID, jobID := c.Param("pipeline_id"), c.Param("job_id")
	patch := new(topology.JobPatch)
	if err := c.Bind(patch); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid job data")
	}
	if patch.Type != nil {
		if _, ok := topology.LookupJobType(*patch.Type); !ok {
			return newError(c, nil, http.StatusBadRequest, fmt.Sprintf("unknown job type %q", *patch.Type))
		}
	}

	p, err := h.pipelineService.UpdateJob(c.Request().Context(), pipelineID, jobID, *patch)
	if err != nil {
		return serviceError(c, err, "unable to update job")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) DeleteJob(c echo.Context) error {
	jp := new(JobParams)
	if err := c.Bind(jp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid job id")
	}

	p, err := h.pipelineService.DeleteJob(c.Request().Context(), jp.PipelineID, jp.StageID, jp.JobID)
	if err != nil {
		return serviceError(c, err, "unable to delete job")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) PostVariable(c echo.Context) error {
	pipelineID := c.Param("pipeline_id")
	v := new(topology.Variable)
	if err := c.Bind(v); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid variable data")
	}
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return newError(c, nil, http.StatusBadRequest, "variable name is required")
	}
	if v.Type == "" {
		v.Type = topology.VariableString
	}

	p, err := h.pipelineService.AddVariable(c.Request().Context(), pipelineID, *v)
	if err != nil {
		return serviceError(c, err, "unable to add variable")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PipelineHandler) PatchVariable(c echo.Context) error {
	pipelineID, variableID := c.Param("pipeline_id"), c.Param("variable_id")
	patch := new(topology.VariablePatch)
	if err := c.Bind(patch); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid variable data")
	}

	p, err := h.pipelineService.UpdateVariable(c.Request().Context(), pipelineID, variableID, *patch)
	if err != nil {
		return serviceError(c, err, "unable to update variable")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) DeleteVariable(c echo.Context) error {
	vp := new(VariableParams)
	if err := c.Bind(vp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid variable id")
	}

	p, err := h.pipelineService.DeleteVariable(c.Request().Context(), vp.PipelineID, vp.VariableID)
	if err != nil {
		return serviceError(c, err, "unable to delete variable")
	}
	return c.JSON(http.StatusOK, p)
}
