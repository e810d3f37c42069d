package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/services"
	"asset-system/pkg/utils"
)

type LogController struct {
	logService *services.LogService
	logger     *zap.Logger
}

func NewLogController(logService *services.LogService, logger *zap.Logger) *LogController {
	return &LogController{
		logService: logService,
		logger:     logger,
	}
}

func (c *LogController) GetLogs(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	entries, total, err := c.logService.GetLogs(ctx.Request().Context(), uint64(filter.Limit), uint64(filter.Offset))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, entries, "Журнал действий получен", http.StatusOK, total)
}

func (c *LogController) GetAssetHistory(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	entries, err := c.logService.GetAssetHistory(ctx.Request().Context(), ctx.Param("id"), uint64(filter.Limit), uint64(filter.Offset))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, entries, "История актива получена", http.StatusOK, uint64(len(entries)))
}
