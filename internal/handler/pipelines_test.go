package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/haatos/stageflow/internal/service"
	"github.com/haatos/stageflow/internal/topology"
	"github.com/haatos/stageflow/internal/util"
)

type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) pipeline(args mock.Arguments) (topology.Pipeline, error) {
	if args.Get(0) == nil {
		return topology.Pipeline{}, args.Error(1)
	}
	return args.Get(0).(topology.Pipeline), args.Error(1)
}

func (m *MockPipelineService) CreatePipeline(ctx context.Context) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx))
}

func (m *MockPipelineService) DeletePipeline(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPipelineService) ImportPipeline(
	ctx context.Context,
	data []byte,
	format string,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, data, format))
}

func (m *MockPipelineService) AddJob(
	ctx context.Context,
	pipelineID, stageID string,
	jobType topology.JobType,
	at topology.Placement,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, stageID, jobType, at))
}

func (m *MockPipelineService) DeleteJob(
	ctx context.Context,
	pipelineID, stageID, jobID string,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, stageID, jobID))
}

func (m *MockPipelineService) UpdateJob(
	ctx context.Context,
	pipelineID, jobID string,
	patch topology.JobPatch,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, jobID, patch))
}

func (m *MockPipelineService) AddStage(
	ctx context.Context,
	pipelineID string,
	afterIndex int,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, afterIndex))
}

func (m *MockPipelineService) DeleteStage(
	ctx context.Context,
	pipelineID, stageID string,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, stageID))
}

func (m *MockPipelineService) ReorderStage(
	ctx context.Context,
	pipelineID string,
	from, to int,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, from, to))
}

func (m *MockPipelineService) RenameStage(
	ctx context.Context,
	pipelineID, stageID, name string,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, stageID, name))
}

func (m *MockPipelineService) SetStageParallel(
	ctx context.Context,
	pipelineID, stageID string,
	parallel bool,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, stageID, parallel))
}

func (m *MockPipelineService) AddVariable(
	ctx context.Context,
	pipelineID string,
	v topology.Variable,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, v))
}

func (m *MockPipelineService) UpdateVariable(
	ctx context.Context,
	pipelineID, variableID string,
	patch topology.VariablePatch,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, variableID, patch))
}

func (m *MockPipelineService) DeleteVariable(
	ctx context.Context,
	pipelineID, variableID string,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, variableID))
}

func (m *MockPipelineService) UpdateInfo(
	ctx context.Context,
	pipelineID, name, description string,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, name, description))
}

func (m *MockPipelineService) UpdateSettings(
	ctx context.Context,
	pipelineID string,
	settings topology.Settings,
) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, pipelineID, settings))
}

func (m *MockPipelineService) GetPipeline(ctx context.Context, id string) (topology.Pipeline, error) {
	return m.pipeline(m.Called(ctx, id))
}

func (m *MockPipelineService) ListPipelines(ctx context.Context) ([]topology.Pipeline, error) {
	args := m.Called(ctx)
	var pipelines []topology.Pipeline
	if args.Get(0) != nil {
		pipelines = args.Get(0).([]topology.Pipeline)
	}
	return pipelines, args.Error(1)
}

func (m *MockPipelineService) LintPipeline(ctx context.Context, id string) ([]topology.Hint, error) {
	args := m.Called(ctx, id)
	var hints []topology.Hint
	if args.Get(0) != nil {
		hints = args.Get(0).([]topology.Hint)
	}
	return hints, args.Error(1)
}

func (m *MockPipelineService) ExportPipeline(
	ctx context.Context,
	id, format string,
) ([]byte, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodePipeline(t *testing.T, rec *httptest.ResponseRecorder) topology.Pipeline {
	t.Helper()
	var p topology.Pipeline
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func assertHTTPError(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if assert.True(t, ok, "expected *echo.HTTPError, got %T", err) {
		assert.Equal(t, status, he.Code)
	}
}

func TestPipelineHandler_GetJobTypes(t *testing.T) {
	t.Run("success - lists the job catalog", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodGet, "/api/job-types", "")
		h := NewPipelineHandler(new(MockPipelineService))

		// act
		err := h.GetJobTypes(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		var defs []topology.JobTypeDef
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))
		assert.Len(t, defs, len(topology.JobTypes()))
	})
}

func TestPipelineHandler_PostPipeline(t *testing.T) {
	t.Run("success - pipeline is created from the seed", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodPost, "/api/pipelines", "")
		svc := new(MockPipelineService)
		seed := topology.Seed()
		seed.ID = "p-1"
		svc.On("CreatePipeline", mock.Anything).Return(seed, nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.PostPipeline(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		p := decodePipeline(t, rec)
		assert.Equal(t, "p-1", p.ID)
		assert.Equal(t, seed.JobCount(), p.JobCount())
	})
	t.Run("failure - store error is internal", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodPost, "/api/pipelines", "")
		svc := new(MockPipelineService)
		svc.On("CreatePipeline", mock.Anything).Return(nil, fmt.Errorf("disk full"))
		h := NewPipelineHandler(svc)

		// act
		err := h.PostPipeline(c)

		// assert
		assertHTTPError(t, err, http.StatusInternalServerError)
	})
}

func TestPipelineHandler_GetPipeline(t *testing.T) {
	t.Run("success - pipeline is returned", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodGet, "/", "")
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		svc := new(MockPipelineService)
		svc.On("GetPipeline", mock.Anything, "p-1").Return(topology.Seed(), nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.GetPipeline(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodePipeline(t, rec).Stages, len(topology.Seed().Stages))
	})
	t.Run("failure - missing pipeline is not found", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodGet, "/", "")
		c.SetParamNames("pipeline_id")
		c.SetParamValues("nope")
		svc := new(MockPipelineService)
		svc.On("GetPipeline", mock.Anything, "nope").Return(nil, sql.ErrNoRows)
		h := NewPipelineHandler(svc)

		// act
		err := h.GetPipeline(c)

		// assert
		assertHTTPError(t, err, http.StatusNotFound)
	})
}

func TestPipelineHandler_DeletePipeline(t *testing.T) {
	t.Run("success - delete hooks receive the id", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodDelete, "/", "")
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		svc := new(MockPipelineService)
		svc.On("DeletePipeline", mock.Anything, "p-1").Return(nil)
		var forgotten []string
		h := NewPipelineHandler(svc, func(id string) { forgotten = append(forgotten, id) })

		// act
		err := h.DeletePipeline(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"p-1"}, forgotten)
	})
	t.Run("failure - hooks are skipped when delete fails", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodDelete, "/", "")
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		svc := new(MockPipelineService)
		svc.On("DeletePipeline", mock.Anything, "p-1").Return(sql.ErrNoRows)
		called := false
		h := NewPipelineHandler(svc, func(string) { called = true })

		// act
		err := h.DeletePipeline(c)

		// assert
		assertHTTPError(t, err, http.StatusNotFound)
		assert.False(t, called)
	})
}

func TestPipelineHandler_PutPipelineSettings(t *testing.T) {
	t.Run("success - cron is trimmed", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(
			http.MethodPut, "/",
			`{"cron":"  0 * * * * ","timeout_minutes":30,"retry_count":1,"skip_strategy":"none"}`,
		)
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		want := topology.Settings{Cron: "0 * * * *", TimeoutMinutes: 30, RetryCount: 1, SkipStrategy: "none"}
		svc := new(MockPipelineService)
		svc.On("UpdateSettings", mock.Anything, "p-1", want).
			Return(topology.Seed().UpdateSettings(want), nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.PutPipelineSettings(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, decodePipeline(t, rec).Settings)
	})
	t.Run("failure - negative retry count", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodPut, "/", `{"retry_count":-1}`)
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		svc := new(MockPipelineService)
		h := NewPipelineHandler(svc)

		// act
		err := h.PutPipelineSettings(c)

		// assert
		assertHTTPError(t, err, http.StatusBadRequest)
		svc.AssertNumberOfCalls(t, "UpdateSettings", 0)
	})
	t.Run("failure - invalid cron expression", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodPut, "/", `{"cron":"every day"}`)
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		svc := new(MockPipelineService)
		svc.On("UpdateSettings", mock.Anything, "p-1", topology.Settings{Cron: "every day"}).
			Return(nil, &service.ErrInvalidSchedule{})
		h := NewPipelineHandler(svc)

		// act
		err := h.PutPipelineSettings(c)

		// assert
		assertHTTPError(t, err, http.StatusBadRequest)
	})
}

func TestPipelineHandler_GetPipelineExport(t *testing.T) {
	t.Run("success - defaults to yaml attachment", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodGet, "/api/pipelines/p-1/export", "")
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		svc := new(MockPipelineService)
		svc.On("ExportPipeline", mock.Anything, "p-1", service.FormatYAML).
			Return([]byte("id: p-1\n"), nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.GetPipelineExport(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `"p-1.yaml"`)
		assert.Equal(t, "id: p-1\n", rec.Body.String())
	})
	t.Run("failure - unknown format", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodGet, "/api/pipelines/p-1/export?format=xml", "")
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		svc := new(MockPipelineService)
		svc.On("ExportPipeline", mock.Anything, "p-1", "xml").
			Return(nil, &service.ErrUnknownFormat{Format: "xml"})
		h := NewPipelineHandler(svc)

		// act
		err := h.GetPipelineExport(c)

		// assert
		assertHTTPError(t, err, http.StatusBadRequest)
	})
}

func TestPipelineHandler_PostImportPipeline(t *testing.T) {
	t.Run("success - raw yaml body is imported", func(t *testing.T) {
		// arrange
		body := "name: imported\nstages: []\n"
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/pipelines/import?format=yaml", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, "application/yaml")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		svc := new(MockPipelineService)
		svc.On("ImportPipeline", mock.Anything, []byte(body), service.FormatYAML).
			Return(topology.Pipeline{ID: "p-9", Name: "imported"}, nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.PostImportPipeline(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "p-9", decodePipeline(t, rec).ID)
	})
	t.Run("failure - malformed document", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodPost, "/api/pipelines/import?format=json", "{")
		svc := new(MockPipelineService)
		svc.On("ImportPipeline", mock.Anything, []byte("{"), service.FormatJSON).
			Return(nil, fmt.Errorf("decode pipeline json: %w", topology.ErrMalformedDocument))
		h := NewPipelineHandler(svc)

		// act
		err := h.PostImportPipeline(c)

		// assert
		assertHTTPError(t, err, http.StatusBadRequest)
	})
}

func TestPipelineHandler_PostStage(t *testing.T) {
	t.Run("success - explicit index", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodPost, "/", `{"after_index":0}`)
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		svc := new(MockPipelineService)
		svc.On("AddStage", mock.Anything, "p-1", 0).Return(topology.Seed(), nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.PostStage(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		svc.AssertNumberOfCalls(t, "GetPipeline", 0)
	})
	t.Run("success - missing index appends after the last stage", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodPost, "/", `{}`)
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		seed := topology.Seed()
		svc := new(MockPipelineService)
		svc.On("GetPipeline", mock.Anything, "p-1").Return(seed, nil)
		svc.On("AddStage", mock.Anything, "p-1", len(seed.Stages)-1).Return(seed, nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.PostStage(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		svc.AssertExpectations(t)
	})
}

func TestPipelineHandler_PatchStage(t *testing.T) {
	t.Run("success - name and parallel flag", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodPatch, "/", `{"name":" Verify ","is_parallel":false}`)
		c.SetParamNames("pipeline_id", "stage_id")
		c.SetParamValues("p-1", "s2")
		seed := topology.Seed()
		renamed := seed.RenameStage("s2", "Verify")
		svc := new(MockPipelineService)
		svc.On("RenameStage", mock.Anything, "p-1", "s2", "Verify").Return(renamed, nil)
		svc.On("SetStageParallel", mock.Anything, "p-1", "s2", false).
			Return(renamed.SetStageParallel("s2", false), nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.PatchStage(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		s := decodePipeline(t, rec).Stages[1]
		assert.Equal(t, "Verify", s.Name)
		assert.False(t, s.IsParallel)
	})
	t.Run("failure - empty patch", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodPatch, "/", `{}`)
		c.SetParamNames("pipeline_id", "stage_id")
		c.SetParamValues("p-1", "s2")
		h := NewPipelineHandler(new(MockPipelineService))

		// act
		err := h.PatchStage(c)

		// assert
		assertHTTPError(t, err, http.StatusBadRequest)
	})
}

func TestPipelineHandler_PostReorderStage(t *testing.T) {
	t.Run("success - indices are forwarded", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodPost, "/", `{"from":4,"to":0}`)
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		seed := topology.Seed()
		svc := new(MockPipelineService)
		svc.On("ReorderStage", mock.Anything, "p-1", 4, 0).Return(seed.ReorderStage(4, 0), nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.PostReorderStage(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, seed.Stages[4].ID, decodePipeline(t, rec).Stages[0].ID)
	})
}

func TestPipelineHandler_PostJob(t *testing.T) {
	testcases := []struct {
		name      string
		body      string
		jobType   topology.JobType
		placement topology.Placement
	}{
		{
			name:      "new branch with default type",
			body:      `{}`,
			jobType:   topology.JobScript,
			placement: topology.NewBranch(),
		},
		{
			name:      "append to group",
			body:      `{"type":"test-go","group_index":1}`,
			jobType:   topology.JobTestGo,
			placement: topology.InGroup(1),
		},
		{
			name:      "insert into group",
			body:      `{"type":"test-coverage","group_index":0,"insert_index":1}`,
			jobType:   topology.JobTestCoverage,
			placement: topology.InGroupAt(0, 1),
		},
	}
	for _, tc := range testcases {
		t.Run(fmt.Sprintf("success - %s", tc.name), func(t *testing.T) {
			// arrange
			c, rec := newJSONContext(http.MethodPost, "/", tc.body)
			c.SetParamNames("pipeline_id", "stage_id")
			c.SetParamValues("p-1", "s2")
			svc := new(MockPipelineService)
			svc.On("AddJob", mock.Anything, "p-1", "s2", tc.jobType, tc.placement).
				Return(topology.Seed(), nil)
			h := NewPipelineHandler(svc)

			// act
			err := h.PostJob(c)

			// assert
			assert.NoError(t, err)
			assert.Equal(t, http.StatusCreated, rec.Code)
			svc.AssertExpectations(t)
		})
	}
	t.Run("failure - unknown job type", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodPost, "/", `{"type":"teleport"}`)
		c.SetParamNames("pipeline_id", "stage_id")
		c.SetParamValues("p-1", "s2")
		svc := new(MockPipelineService)
		h := NewPipelineHandler(svc)

		// act
		err := h.PostJob(c)

		// assert
		assertHTTPError(t, err, http.StatusBadRequest)
		svc.AssertNumberOfCalls(t, "AddJob", 0)
	})
}

func TestPipelineHandler_PatchJob(t *testing.T) {
	t.Run("success - patch is forwarded", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodPatch, "/", `{"name":"Unit tests"}`)
		c.SetParamNames("pipeline_id", "job_id")
		c.SetParamValues("p-1", "j3")
		patch := topology.JobPatch{Name: util.AsPtr("Unit tests")}
		seed := topology.Seed()
		svc := new(MockPipelineService)
		svc.On("UpdateJob", mock.Anything, "p-1", "j3", patch).Return(seed.UpdateJob("j3", patch), nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.PatchJob(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		j, ok := decodePipeline(t, rec).Job("j3")
		assert.True(t, ok)
		assert.Equal(t, "Unit tests", j.Name)
	})
	t.Run("failure - unknown job type", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodPatch, "/", `{"type":"teleport"}`)
		c.SetParamNames("pipeline_id", "job_id")
		c.SetParamValues("p-1", "j3")
		h := NewPipelineHandler(new(MockPipelineService))

		// act
		err := h.PatchJob(c)

		// assert
		assertHTTPError(t, err, http.StatusBadRequest)
	})
}

func TestPipelineHandler_DeleteJob(t *testing.T) {
	t.Run("success - job is removed", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodDelete, "/", "")
		c.SetParamNames("pipeline_id", "stage_id", "job_id")
		c.SetParamValues("p-1", "s2", "j5")
		seed := topology.Seed()
		svc := new(MockPipelineService)
		svc.On("DeleteJob", mock.Anything, "p-1", "s2", "j5").Return(seed.DeleteJob("s2", "j5"), nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.DeleteJob(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, seed.JobCount()-1, decodePipeline(t, rec).JobCount())
	})
}

func TestPipelineHandler_PostVariable(t *testing.T) {
	t.Run("success - type defaults to string", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodPost, "/", `{"id":"v2","name":" branch ","default_value":"main"}`)
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		v := topology.Variable{ID: "v2", Name: "branch", Type: topology.VariableString, DefaultValue: "main"}
		svc := new(MockPipelineService)
		svc.On("AddVariable", mock.Anything, "p-1", v).Return(topology.Seed().AddVariable(v), nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.PostVariable(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Len(t, decodePipeline(t, rec).Variables, 2)
	})
	t.Run("failure - name is required", func(t *testing.T) {
		// arrange
		c, _ := newJSONContext(http.MethodPost, "/", `{"name":"  "}`)
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		h := NewPipelineHandler(new(MockPipelineService))

		// act
		err := h.PostVariable(c)

		// assert
		assertHTTPError(t, err, http.StatusBadRequest)
	})
}

func TestPipelineHandler_GetPipelineLint(t *testing.T) {
	t.Run("success - hints are returned", func(t *testing.T) {
		// arrange
		c, rec := newJSONContext(http.MethodGet, "/", "")
		c.SetParamNames("pipeline_id")
		c.SetParamValues("p-1")
		hints := topology.Lint(topology.Seed())
		svc := new(MockPipelineService)
		svc.On("LintPipeline", mock.Anything, "p-1").Return(hints, nil)
		h := NewPipelineHandler(svc)

		// act
		err := h.GetPipelineLint(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		var got []topology.Hint
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, len(hints))
	})
}
