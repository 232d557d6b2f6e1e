package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/haatos/stageflow/internal/layout"
)

func render(c echo.Context, contentType string, component templ.Component) error {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := component.Render(c.Request().Context(), buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func formatExtent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// connectorSVG draws the given paths as a standalone SVG document sized to
// hold every segment.
func connectorSVG(paths []layout.Path) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var maxX, maxY float64
		for _, p := range paths {
			for _, s := range p.Segments {
				maxX, maxY = max(maxX, s.To.X), max(maxY, s.To.Y)
				if s.Control != nil {
					maxX, maxY = max(maxX, s.Control.X), max(maxY, s.Control.Y)
				}
			}
		}
		if _, err := fmt.Fprintf(
			w,
			`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" fill="none" stroke="currentColor" stroke-width="2">`,
			formatExtent(maxX+1), formatExtent(maxY+1),
		); err != nil {
			return err
		}
		for _, p := range paths {
			if _, err := fmt.Fprintf(
				w,
				`<path class="%s" data-stage="%d" d="%s"/>`,
				templ.EscapeString("connector connector-"+string(p.Kind)),
				p.Stage,
				templ.EscapeString(p.SVG()),
			); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</svg>")
		return err
	})
}
