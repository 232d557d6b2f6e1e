package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haatos/stageflow/internal"
)

func SetupConfigRoutes(g *echo.Group, h *ConfigHandler) {
	g.GET("/config", h.GetConfig)
	g.PUT("/config", h.PutConfig, RequireJSON)
}

type ConfigHandler struct {
	path string
}

func NewConfigHandler(path string) *ConfigHandler {
	return &ConfigHandler{path: path}
}

func configParams(c *internal.Configuration) ConfigParams {
	return ConfigParams{
		DwellMinMs:         int64(c.DwellMin),
		DwellMaxMs:         int64(c.DwellMax),
		LayoutPollMs:       int64(c.LayoutPoll),
		LogIntervalMs:      int64(c.LogInterval),
		CurveRadius:        c.CurveRadius,
		BridgeWidth:        c.BridgeWidth,
		AlignTolerance:     c.AlignTolerance,
		RunHistoryPageSize: c.RunHistoryPageSize,
		RunRetentionDays:   c.RunRetentionDays,
	}
}

func (h *ConfigHandler) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, configParams(internal.Config))
}

// PutConfig replaces the configuration file. Runtime values such as the
// dwell window are read by services at construction, so changes apply on the
// next start.
func (h *ConfigHandler) PutConfig(c echo.Context) error {
	cp := configParams(internal.Config)
	if err := c.Bind(&cp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid config data")
	}

	switch {
	case cp.DwellMinMs < 0 || cp.DwellMaxMs <= cp.DwellMinMs:
		return newError(c, nil, http.StatusBadRequest, "dwell window must satisfy 0 <= min < max")
	case cp.LayoutPollMs <= 0 || cp.LogIntervalMs <= 0:
		return newError(c, nil, http.StatusBadRequest, "intervals must be positive")
	case cp.CurveRadius < 0 || cp.BridgeWidth < 0 || cp.AlignTolerance < 0:
		return newError(c, nil, http.StatusBadRequest, "layout values must not be negative")
	case cp.RunHistoryPageSize < 1 || cp.RunRetentionDays < 1:
		return newError(c, nil, http.StatusBadRequest, "run history values must be positive")
	}

	config := &internal.Configuration{
		DwellMin:           internal.Millis(cp.DwellMinMs),
		DwellMax:           internal.Millis(cp.DwellMaxMs),
		LayoutPoll:         internal.Millis(cp.LayoutPollMs),
		LogInterval:        internal.Millis(cp.LogIntervalMs),
		CurveRadius:        cp.CurveRadius,
		BridgeWidth:        cp.BridgeWidth,
		AlignTolerance:     cp.AlignTolerance,
		RunHistoryPageSize: cp.RunHistoryPageSize,
		RunRetentionDays:   cp.RunRetentionDays,
	}

	if err := internal.UpdateConfiguration(h.path, config); err != nil {
		return newError(
			c, err,
			http.StatusInternalServerError,
			"unable to update configuration file",
		)
	}

	return c.JSON(http.StatusOK, configParams(config))
}
