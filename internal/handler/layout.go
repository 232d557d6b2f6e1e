package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/haatos/stageflow/internal/layout"
	"github.com/haatos/stageflow/internal/topology"
)

type LayoutServicer interface {
	SetBoxes(context.Context, string, layout.BoxMap) error
	Paths(context.Context, string) ([]layout.Path, error)
	Compute(topology.Pipeline, layout.BoxMap) []layout.Path
	Subscribe(string, string) chan []layout.Path
	Unsubscribe(string, string)
}

func SetupLayoutRoutes(g *echo.Group, h *LayoutHandler) {
	g.POST("/layout/compute", h.PostCompute, RequireJSON)

	l := g.Group("/pipelines/:pipeline_id/layout")
	l.PUT("/boxes", h.PutBoxes, RequireJSON)
	l.GET("/paths", h.GetPaths, NoCache)
	l.GET("/paths/sse", h.GetPathsSSE)
	l.GET("/svg", h.GetSVG)
}

type LayoutHandler struct {
	layoutService LayoutServicer
}

func NewLayoutHandler(layoutService LayoutServicer) *LayoutHandler {
	return &LayoutHandler{layoutService: layoutService}
}

type PathResponse struct {
	layout.Path
	D string `json:"d"`
}

func pathResponses(paths []layout.Path) []PathResponse {
	out := make([]PathResponse, len(paths))
	for i, p := range paths {
		out[i] = PathResponse{Path: p, D: p.SVG()}
	}
	return out
}

// PutBoxes replaces the node geometry reported by the presentation layer and
// answers with the paths it produces.
func (h *LayoutHandler) PutBoxes(c echo.Context) error {
	bp := new(BoxesParams)
	if err := c.Bind(bp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid bounding boxes")
	}

	ctx := c.Request().Context()
	if err := h.layoutService.SetBoxes(ctx, bp.PipelineID, bp.Boxes); err != nil {
		return serviceError(c, err, "unable to store bounding boxes")
	}
	paths, err := h.layoutService.Paths(ctx, bp.PipelineID)
	if err != nil {
		return serviceError(c, err, "unable to compute layout")
	}
	return c.JSON(http.StatusOK, pathResponses(paths))
}

func (h *LayoutHandler) GetPaths(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}

	paths, err := h.layoutService.Paths(c.Request().Context(), pp.PipelineID)
	if err != nil {
		return serviceError(c, err, "unable to compute layout")
	}
	return c.JSON(http.StatusOK, pathResponses(paths))
}

func (h *LayoutHandler) GetSVG(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}

	paths, err := h.layoutService.Paths(c.Request().Context(), pp.PipelineID)
	if err != nil {
		return serviceError(c, err, "unable to compute layout")
	}
	return render(c, "image/svg+xml", connectorSVG(paths))
}

// PostCompute runs a single pass over a document and geometry sent in the
// request, leaving stored state alone.
func (h *LayoutHandler) PostCompute(c echo.Context) error {
	cp := new(ComputeParams)
	if err := c.Bind(cp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid layout request")
	}
	return c.JSON(http.StatusOK, pathResponses(h.layoutService.Compute(cp.Pipeline, cp.Boxes)))
}

func (h *LayoutHandler) GetPathsSSE(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid pipeline id")
	}

	ctx := c.Request().Context()
	current, err := h.layoutService.Paths(ctx, pp.PipelineID)
	if err != nil {
		return serviceError(c, err, "unable to compute layout")
	}

	id := uuid.NewString()
	updates := h.layoutService.Subscribe(pp.PipelineID, id)
	defer h.layoutService.Unsubscribe(pp.PipelineID, id)

	w := startEventStream(c)
	if err := writePaths(w, current); err != nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writePaths(w, paths); err != nil {
				log.Println("err writing layout update:", err)
				return nil
			}
		}
	}
}

func writePaths(w *echo.Response, paths []layout.Path) error {
	b, err := json.Marshal(pathResponses(paths))
	if err != nil {
		return err
	}
	return writeEvent(w, &Event{Event: []byte("paths"), Data: b})
}
