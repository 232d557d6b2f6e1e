package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RequireJSON(t *testing.T) {
	testcases := []struct {
		name        string
		body        string
		contentType string
		passes      bool
	}{
		{name: "json body", body: `{}`, contentType: echo.MIMEApplicationJSON, passes: true},
		{name: "json body with charset", body: `{}`, contentType: echo.MIMEApplicationJSONCharsetUTF8, passes: true},
		{name: "empty body", body: "", contentType: "", passes: true},
		{name: "form body", body: "a=b", contentType: echo.MIMEApplicationForm, passes: false},
		{name: "missing content type", body: `{}`, contentType: "", passes: false},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set(echo.HeaderContentType, tc.contentType)
			}
			rec := httptest.NewRecorder()
			h := RequireJSON(func(c echo.Context) error {
				return c.String(http.StatusOK, "accepted")
			})
			e := echo.New()
			c := e.NewContext(req, rec)

			// act
			err := h(c)

			// assert
			if tc.passes {
				assert.NoError(t, err)
				assert.Equal(t, "accepted", rec.Body.String())
			} else {
				assertHTTPError(t, err, http.StatusUnsupportedMediaType)
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestMiddleware_NoCache(t *testing.T) {
	t.Run("header is set before the handler runs", func(t *testing.T) {
		// arrange
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h := NoCache(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		e := echo.New()
		c := e.NewContext(req, rec)

		// act
		err := h(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})
}
