package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/haatos/stageflow/internal/service"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := http.StatusInternalServerError, "something went terribly wrong"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(he.Code)
		}
		if he.Internal != nil {
			c.Logger().Errorf(
				"handler internal error %s [%d]: %+v\n",
				c.Request().URL.Path, he.Code, he.Internal,
			)
		}
	} else {
		c.Logger().Errorf("handler error: %+v\n", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Code: status, Message: message})
	}
	if err != nil {
		log.Printf("err returning json: %+v\n", err)
	}
}

func isUniqueConstraintError(err error) bool {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func newError(c echo.Context, err error, status int, message string) error {
	e := echo.NewHTTPError(status, message)
	if err != nil {
		e = e.WithInternal(err)
	}
	return e
}

// serviceError maps the errors returned by the services onto responses.
func serviceError(c echo.Context, err error, message string) error {
	var (
		formatErr   *service.ErrUnknownFormat
		scheduleErr *service.ErrInvalidSchedule
		jobErr      *service.ErrJobNotFound
		runErr      *service.ErrRunInProgress
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return newError(c, err, http.StatusNotFound, "resource not found")
	case errors.As(err, &jobErr):
		return newError(c, err, http.StatusNotFound, jobErr.Error())
	case errors.As(err, &runErr):
		return newError(c, err, http.StatusConflict, runErr.Error())
	case errors.As(err, &formatErr):
		return newError(c, err, http.StatusBadRequest, formatErr.Error())
	case errors.As(err, &scheduleErr):
		return newError(c, err, http.StatusBadRequest, scheduleErr.Error())
	case isUniqueConstraintError(err):
		return newError(c, err, http.StatusConflict, "pipeline already exists")
	}
	return newError(c, err, http.StatusInternalServerError, message)
}
